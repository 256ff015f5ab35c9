package media

import (
	"time"

	"github.com/propside/media-service/internal/domain/entity"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// MediaType classifies a ledger row.
type MediaType string

const (
	TypeImage MediaType = "IMAGE"
	TypeVideo MediaType = "VIDEO"
)

// ModerationStatus tracks the curation state of an item.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationFlagged  ModerationStatus = "flagged"
)

// EmbedContentType marks third-party video embeds. Such rows have no backing
// blob: storage_path equals original_url and reconciliation skips them.
const EmbedContentType = "video/embed"

// Meta is the processing/EXIF metadata blob. The named fields are the typed
// core the reconciler and privacy stripping rely on; everything else lives in
// Extra.
type Meta struct {
	CameraMake  string            `json:"camera_make,omitempty"`
	CameraModel string            `json:"camera_model,omitempty"`
	TakenAt     string            `json:"taken_at,omitempty"`
	GPSPresent  bool              `json:"gps_present,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Media is one logical media item attached to exactly one owning entity.
// URL fields other than OriginalURL are empty when the variant was not
// produced.
type Media struct {
	ID               int64
	PublicID         string
	Filename         string
	OriginalFilename string

	MediaType   MediaType
	ContentType string
	StorageType storage.StorageType

	FileSize  int64
	Width     int
	Height    int
	Duration  float64
	ImageHash string

	StoragePath       string
	OriginalURL       string
	ThumbnailURL      string
	MediumURL         string
	LargeURL          string
	VideoProcessedURL string

	EntityType  entity.Kind
	EntityID    int64
	EntityField string

	UploadedBy       string
	IsPublic         bool
	IsApproved       bool
	ModerationStatus ModerationStatus

	AltText   string
	Caption   string
	SortOrder int
	IsPrimary bool
	SourceURL string
	Tags      []string
	Metadata  Meta

	CreatedAt time.Time
	UpdatedAt time.Time

	// EntityProfileID is the owning entity's public business ID, resolved at
	// read time for API consumers. Not persisted.
	EntityProfileID string
}

// Owner returns the attachment target as an entity reference.
func (m *Media) Owner() entity.Ref {
	return entity.Ref{Kind: m.EntityType, ID: m.EntityID}
}

// IsEmbed reports whether the row describes a third-party embed with no
// backing blob.
func (m *Media) IsEmbed() bool {
	return m.ContentType == EmbedContentType
}

// ThumbnailKey returns the storage key of the thumbnail blob. Video posters
// are JPEG frames, so their key swaps the container extension for .jpg.
func (m *Media) ThumbnailKey() string {
	if m.MediaType == TypeVideo {
		return storage.PosterKey(m.StoragePath)
	}
	return storage.VariantKey(m.StoragePath, storage.SuffixThumb)
}

// VariantKeys returns the storage keys of every variant blob this row
// references, derived from StoragePath by the fixed suffix convention.
func (m *Media) VariantKeys() []string {
	if m.IsEmbed() {
		return nil
	}
	var keys []string
	if m.ThumbnailURL != "" {
		keys = append(keys, m.ThumbnailKey())
	}
	if m.MediumURL != "" {
		keys = append(keys, storage.VariantKey(m.StoragePath, storage.SuffixMedium))
	}
	if m.LargeURL != "" {
		keys = append(keys, storage.VariantKey(m.StoragePath, storage.SuffixLarge))
	}
	if m.VideoProcessedURL != "" {
		keys = append(keys, storage.VariantKey(m.StoragePath, storage.SuffixProcessed))
	}
	return keys
}
