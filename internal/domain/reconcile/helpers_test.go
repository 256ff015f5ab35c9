package reconcile

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/propside/media-service/internal/domain/entity"
	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// memRepo is an in-memory media.Repository for reconciliation tests.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*media.Media
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*media.Media{}}
}

func (r *memRepo) add(m *media.Media) *media.Media {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	clone := *m
	r.rows[m.ID] = &clone
	return m
}

func (r *memRepo) get(id int64) *media.Media {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rows[id]; ok {
		clone := *m
		return &clone
	}
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memRepo) Create(ctx context.Context, m *media.Media) error {
	r.add(m)
	return nil
}

func (r *memRepo) GetByPublicID(ctx context.Context, publicID string) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.PublicID == publicID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, media.ErrNotFound
}

func (r *memRepo) FindByOwnerAndFilename(ctx context.Context, owner entity.Ref, originalFilename string) (*media.Media, error) {
	return nil, nil
}

func (r *memRepo) ListBatch(ctx context.Context, afterID int64, limit int) ([]*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*media.Media
	for id := afterID + 1; id <= r.nextID && len(out) < limit; id++ {
		if m, ok := r.rows[id]; ok {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRepo) ListUnapprovedBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*media.Media
	for id := afterID + 1; id <= r.nextID && len(out) < limit; id++ {
		if m, ok := r.rows[id]; ok && !m.IsApproved && m.CreatedAt.Before(cutoff) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateLocations(ctx context.Context, m *media.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[m.ID]
	if !ok {
		return media.ErrNotFound
	}
	row.StorageType = m.StorageType
	row.StoragePath = m.StoragePath
	row.OriginalURL = m.OriginalURL
	row.ThumbnailURL = m.ThumbnailURL
	row.MediumURL = m.MediumURL
	row.LargeURL = m.LargeURL
	row.VideoProcessedURL = m.VideoProcessedURL
	return nil
}

func (r *memRepo) SetModeration(ctx context.Context, publicID string, status media.ModerationStatus, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.PublicID == publicID {
			m.ModerationStatus = status
			m.IsApproved = approved
			return nil
		}
	}
	return media.ErrNotFound
}

func (r *memRepo) Approve(ctx context.Context, publicIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.rows {
		for _, id := range publicIDs {
			if m.PublicID == id {
				m.IsApproved = true
				m.ModerationStatus = media.ModerationApproved
				n++
			}
		}
	}
	return n, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return media.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// stubBackend is a storage.Backend with programmable existence answers, used
// where real filesystem state cannot express a case (Unknown in particular).
type stubBackend struct {
	mu      sync.Mutex
	kind    storage.StorageType
	baseURL string
	blobs   map[string][]byte
	stats   map[string]storage.Existence
	deleted []string
}

func newStubBackend(kind storage.StorageType, baseURL string) *stubBackend {
	return &stubBackend{
		kind:    kind,
		baseURL: baseURL,
		blobs:   map[string][]byte{},
		stats:   map[string]storage.Existence{},
	}
}

func (b *stubBackend) put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	b.stats[key] = storage.Found
}

func (b *stubBackend) markUnknown(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats[key] = storage.Unknown
}

func (b *stubBackend) Save(ctx context.Context, data []byte, key string, contentType string) (storage.SaveResult, error) {
	b.put(key, data)
	return storage.SaveResult{StoragePath: key, AccessURL: b.URL(key)}, nil
}

func (b *stubBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, media.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *stubBackend) Delete(ctx context.Context, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[key]; !ok {
		return false
	}
	delete(b.blobs, key)
	b.stats[key] = storage.NotFound
	b.deleted = append(b.deleted, key)
	return true
}

func (b *stubBackend) URL(key string) string {
	return b.baseURL + "/uploads/" + key
}

func (b *stubBackend) Stat(ctx context.Context, key string) storage.Existence {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ex, ok := b.stats[key]; ok {
		return ex
	}
	return storage.NotFound
}

func (b *stubBackend) Kind() storage.StorageType {
	return b.kind
}
