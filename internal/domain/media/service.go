package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/domain/entity"
	"github.com/propside/media-service/internal/infrastructure/metrics"
	"github.com/propside/media-service/internal/infrastructure/storage"
	"github.com/propside/media-service/utils/publicid"
)

// Repository defines the ledger persistence operations the service and the
// reconciler jobs need.
type Repository interface {
	Create(ctx context.Context, m *Media) error
	GetByPublicID(ctx context.Context, publicID string) (*Media, error)
	FindByOwnerAndFilename(ctx context.Context, owner entity.Ref, originalFilename string) (*Media, error)
	ListBatch(ctx context.Context, afterID int64, limit int) ([]*Media, error)
	ListUnapprovedBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*Media, error)
	UpdateLocations(ctx context.Context, m *Media) error
	SetModeration(ctx context.Context, publicID string, status ModerationStatus, approved bool) error
	Approve(ctx context.Context, publicIDs []string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// UploadRequest carries one raw input through the pipeline.
type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string

	Owner       entity.Ref
	EntityField string
	UploadedBy  string

	AltText   string
	Caption   string
	Tags      []string
	IsPrimary bool
	SortOrder int

	// SourceURL records scrape provenance; empty for direct uploads.
	SourceURL string

	// AutoApprove is set for direct uploads. Scraped items stay unapproved
	// until curated, which also puts them in retention-sweep scope.
	AutoApprove bool
}

// EmbedRequest registers a third-party video URL as a ledger-only row.
type EmbedRequest struct {
	URL         string
	Owner       entity.Ref
	EntityField string
	UploadedBy  string
	Caption     string
	SourceURL   string
	AutoApprove bool
}

// Service orchestrates validation, processing, blob persistence and the
// ledger write for media items. The storage backend is an injected instance;
// the service never consults global state to find it.
type Service struct {
	cfg       *config.Config
	repo      Repository
	backend   storage.Backend
	resolver  *entity.Resolver
	validator *Validator
	images    *ImageProcessor
	videos    *VideoProcessor
	log       zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, backend storage.Backend, resolver *entity.Resolver, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		repo:      repo,
		backend:   backend,
		resolver:  resolver,
		validator: NewValidator(cfg),
		images:    NewImageProcessor(cfg, log),
		videos:    NewVideoProcessor(cfg, log),
		log:       log.With().Str("component", "media-service").Logger(),
	}
}

// Repo exposes the ledger for collaborators wired around the service.
func (s *Service) Repo() Repository {
	return s.repo
}

// Backend exposes the active blob backend.
func (s *Service) Backend() storage.Backend {
	return s.backend
}

// Duplicates returns the advisory duplicate detector configured with the
// service threshold.
func (s *Service) Duplicates() DuplicateDetector {
	return DuplicateDetector{Threshold: s.cfg.DuplicateThreshold}
}

type stagedBlob struct {
	key         string
	data        []byte
	contentType string
}

// Upload runs one input through the full pipeline: validate, process, stage
// every artifact, persist all blobs, then write the ledger row. If a later
// blob save fails the earlier ones are rolled back best-effort, so the
// ledger never references a partially written set.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Media, error) {
	start := time.Now()

	mediaType, err := s.validator.Validate(req.Filename, int64(len(req.Data)), req.ContentType, req.EntityField)
	if err != nil {
		metrics.RecordUpload("unknown", "rejected", 0)
		return nil, err
	}

	profileID, err := s.resolver.ProfileID(ctx, req.Owner)
	if err != nil {
		return nil, err
	}

	filename := storage.NewFilename(strings.ToLower(string(mediaType)), filepath.Ext(req.Filename))
	key := storage.ObjectKey(profileID, req.EntityField, filename)

	m := &Media{
		PublicID:         publicid.New(),
		Filename:         filename,
		OriginalFilename: req.Filename,
		MediaType:        mediaType,
		ContentType:      strings.ToLower(req.ContentType),
		StorageType:      s.backend.Kind(),
		FileSize:         int64(len(req.Data)),
		StoragePath:      key,
		EntityType:       req.Owner.Kind,
		EntityID:         req.Owner.ID,
		EntityField:      req.EntityField,
		UploadedBy:       req.UploadedBy,
		IsPublic:         true,
		IsApproved:       req.AutoApprove,
		ModerationStatus: ModerationPending,
		AltText:          req.AltText,
		Caption:          req.Caption,
		SortOrder:        req.SortOrder,
		IsPrimary:        req.IsPrimary,
		SourceURL:        req.SourceURL,
		Tags:             req.Tags,
		EntityProfileID:  profileID,
	}

	var staged []stagedBlob
	switch mediaType {
	case TypeImage:
		staged, err = s.stageImage(m, key, req)
	case TypeVideo:
		staged, err = s.stageVideo(ctx, m, key, req)
	}
	if err != nil {
		metrics.RecordUpload(strings.ToLower(string(mediaType)), "failed", 0)
		return nil, err
	}
	metrics.RecordProcessing(strings.ToLower(string(mediaType)), time.Since(start).Seconds())

	if err := s.persist(ctx, m, staged); err != nil {
		metrics.RecordUpload(strings.ToLower(string(mediaType)), "failed", 0)
		return nil, err
	}

	metrics.RecordUpload(strings.ToLower(string(mediaType)), "success", m.FileSize)
	s.log.Info().
		Str("public_id", m.PublicID).
		Str("storage_path", m.StoragePath).
		Str("media_type", string(mediaType)).
		Int64("bytes", m.FileSize).
		Msg("media ingested")
	return m, nil
}

func (s *Service) stageImage(m *Media, key string, req UploadRequest) ([]stagedBlob, error) {
	result, err := s.images.Process(req.Data)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDimensions(result.Width, result.Height); err != nil {
		return nil, err
	}

	m.Width = result.Width
	m.Height = result.Height
	m.ImageHash = result.Hash
	m.Metadata = result.Meta

	staged := []stagedBlob{
		{key: key, data: req.Data, contentType: m.ContentType},
		{key: storage.VariantKey(key, result.Thumbnail.Suffix), data: result.Thumbnail.Data, contentType: result.Thumbnail.ContentType},
	}
	m.ThumbnailURL = s.backend.URL(staged[1].key)

	if result.Medium != nil {
		k := storage.VariantKey(key, result.Medium.Suffix)
		staged = append(staged, stagedBlob{key: k, data: result.Medium.Data, contentType: result.Medium.ContentType})
		m.MediumURL = s.backend.URL(k)
	}
	if result.Large != nil {
		k := storage.VariantKey(key, result.Large.Suffix)
		staged = append(staged, stagedBlob{key: k, data: result.Large.Data, contentType: result.Large.ContentType})
		m.LargeURL = s.backend.URL(k)
	}
	return staged, nil
}

func (s *Service) stageVideo(ctx context.Context, m *Media, key string, req UploadRequest) ([]stagedBlob, error) {
	// ffprobe/ffmpeg work on files, so spool the upload to a temp path.
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(req.Filename))
	if err != nil {
		return nil, &ProcessingError{Stage: "spool", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		return nil, &ProcessingError{Stage: "spool", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ProcessingError{Stage: "spool", Err: err}
	}

	info, err := s.videos.Probe(ctx, tmpName)
	if err != nil {
		return nil, err
	}
	m.Width = info.Width
	m.Height = info.Height
	m.Duration = info.Duration
	m.Metadata = Meta{Extra: map[string]string{"codec": info.Codec}}

	thumbData, err := s.videos.Thumbnail(ctx, tmpName, s.cfg.VideoThumbnailOffset)
	if err != nil {
		return nil, err
	}

	// Posters are JPEG frames; keeping the container extension would make
	// static serving hand them out as video.
	thumbKey := storage.PosterKey(key)
	m.ThumbnailURL = s.backend.URL(thumbKey)

	return []stagedBlob{
		{key: key, data: req.Data, contentType: m.ContentType},
		{key: thumbKey, data: thumbData, contentType: "image/jpeg"},
	}, nil
}

// persist writes every staged blob and then the ledger row. A failed save
// rolls back the blobs already written; a failed ledger insert does too.
func (s *Service) persist(ctx context.Context, m *Media, staged []stagedBlob) error {
	var uploaded []string
	rollback := func() {
		for _, key := range uploaded {
			if !s.backend.Delete(ctx, key) {
				s.log.Warn().Str("key", key).Msg("rollback delete failed; orphan scan will reclaim it")
			}
		}
	}

	for i, blob := range staged {
		result, err := s.backend.Save(ctx, blob.data, blob.key, blob.contentType)
		if err != nil {
			rollback()
			return &StorageError{Op: "save", Key: blob.key, Err: err}
		}
		uploaded = append(uploaded, blob.key)
		if i == 0 {
			m.StoragePath = result.StoragePath
			m.OriginalURL = result.AccessURL
		}
	}

	if err := s.repo.Create(ctx, m); err != nil {
		rollback()
		return fmt.Errorf("create ledger row: %w", err)
	}
	return nil
}

// UploadBatch ingests up to MaxBatchUploadSize items with bounded
// concurrency. Items succeed or fail independently; the caller always gets
// the created rows plus per-item error strings.
func (s *Service) UploadBatch(ctx context.Context, reqs []UploadRequest) ([]*Media, []string) {
	if len(reqs) > s.cfg.MaxBatchUploadSize {
		return nil, []string{fmt.Sprintf("batch of %d exceeds the limit of %d files", len(reqs), s.cfg.MaxBatchUploadSize)}
	}

	var (
		mu      sync.Mutex
		created []*Media
		errs    []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentUploads)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			m, err := s.Upload(gctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", req.Filename, err))
				return nil
			}
			created = append(created, m)
			return nil
		})
	}
	_ = g.Wait()
	return created, errs
}

// IngestEmbed registers a YouTube/Vimeo URL as a ledger-only row. Embeds
// carry no blob: storage_path equals the embed URL and file size is zero.
func (s *Service) IngestEmbed(ctx context.Context, req EmbedRequest) (*Media, error) {
	embedURL, ok := ParseEmbedURL(req.URL)
	if !ok {
		return nil, validationErrorf("%q is not a supported YouTube/Vimeo URL", req.URL)
	}

	profileID, err := s.resolver.ProfileID(ctx, req.Owner)
	if err != nil {
		return nil, err
	}

	m := &Media{
		PublicID:         publicid.New(),
		Filename:         embedURL,
		OriginalFilename: req.URL,
		MediaType:        TypeVideo,
		ContentType:      EmbedContentType,
		StorageType:      s.backend.Kind(),
		StoragePath:      embedURL,
		OriginalURL:      embedURL,
		EntityType:       req.Owner.Kind,
		EntityID:         req.Owner.ID,
		EntityField:      req.EntityField,
		UploadedBy:       req.UploadedBy,
		IsPublic:         true,
		IsApproved:       req.AutoApprove,
		ModerationStatus: ModerationPending,
		Caption:          req.Caption,
		SourceURL:        req.SourceURL,
		EntityProfileID:  profileID,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create embed row: %w", err)
	}
	s.log.Info().Str("public_id", m.PublicID).Str("embed_url", embedURL).Msg("embed registered")
	return m, nil
}

// Get loads one item and resolves its owner's profile ID for the response.
func (s *Service) Get(ctx context.Context, publicID string) (*Media, error) {
	m, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if profileID, err := s.resolver.ProfileID(ctx, m.Owner()); err == nil {
		m.EntityProfileID = profileID
	}
	return m, nil
}

// Delete removes the ledger row and, for non-embeds, best-effort deletes the
// original and every variant blob. Blob deletion failures do not block the
// row delete; the orphan scan has nothing to find afterwards either way.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	m, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	if !m.IsEmbed() {
		if !s.backend.Delete(ctx, m.StoragePath) {
			s.log.Warn().Str("key", m.StoragePath).Msg("original blob delete failed or blob absent")
		}
		for _, key := range m.VariantKeys() {
			if !s.backend.Delete(ctx, key) {
				s.log.Warn().Str("key", key).Msg("variant blob delete failed or blob absent")
			}
		}
	}

	return s.repo.Delete(ctx, m.ID)
}

// Approve marks one item approved, exempting it from the retention sweep.
func (s *Service) Approve(ctx context.Context, publicID string) error {
	return s.repo.SetModeration(ctx, publicID, ModerationApproved, true)
}

// Reject marks one item rejected; the retention sweep reclaims it after the
// grace period.
func (s *Service) Reject(ctx context.Context, publicID string) error {
	return s.repo.SetModeration(ctx, publicID, ModerationRejected, false)
}
