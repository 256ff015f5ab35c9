// Package media implements the gorm-backed ledger repository.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/domain/entity"
	"github.com/propside/media-service/internal/infrastructure/database/entities"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// Repository persists media ledger rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *domain.Media) error {
	row := toEntity(m)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create media row: %w", err)
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) GetByPublicID(ctx context.Context, publicID string) (*domain.Media, error) {
	var row entities.Media
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get media by public id: %w", err)
	}
	return fromEntity(row), nil
}

// FindByOwnerAndFilename implements the scrape-time soft uniqueness lookup.
// A missing row returns (nil, nil).
func (r *Repository) FindByOwnerAndFilename(ctx context.Context, owner entity.Ref, originalFilename string) (*domain.Media, error) {
	var row entities.Media
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND original_filename = ?", string(owner.Kind), owner.ID, originalFilename).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find media by owner and filename: %w", err)
	}
	return fromEntity(row), nil
}

// ListBatch returns rows ordered by id, starting after afterID. The cursor
// keeps reconciler scans stable while rows are deleted mid-run.
func (r *Repository) ListBatch(ctx context.Context, afterID int64, limit int) ([]*domain.Media, error) {
	var rows []entities.Media
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list media batch: %w", err)
	}
	return fromEntities(rows), nil
}

func (r *Repository) ListUnapprovedBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*domain.Media, error) {
	var rows []entities.Media
	err := r.db.WithContext(ctx).
		Where("is_approved = ? AND created_at < ? AND id > ?", false, cutoff, afterID).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unapproved media: %w", err)
	}
	return fromEntities(rows), nil
}

// UpdateLocations rewrites the storage location columns after a migration or
// a path repair.
func (r *Repository) UpdateLocations(ctx context.Context, m *domain.Media) error {
	err := r.db.WithContext(ctx).Model(&entities.Media{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"storage_type":        string(m.StorageType),
			"storage_path":        m.StoragePath,
			"original_url":        m.OriginalURL,
			"thumbnail_url":       m.ThumbnailURL,
			"medium_url":          m.MediumURL,
			"large_url":           m.LargeURL,
			"video_processed_url": m.VideoProcessedURL,
		}).Error
	if err != nil {
		return fmt.Errorf("update media locations: %w", err)
	}
	return nil
}

func (r *Repository) SetModeration(ctx context.Context, publicID string, status domain.ModerationStatus, approved bool) error {
	result := r.db.WithContext(ctx).Model(&entities.Media{}).
		Where("public_id = ?", publicID).
		Updates(map[string]any{
			"moderation_status": string(status),
			"is_approved":       approved,
		})
	if result.Error != nil {
		return fmt.Errorf("set moderation status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) Approve(ctx context.Context, publicIDs []string) (int64, error) {
	if len(publicIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&entities.Media{}).
		Where("public_id IN ?", publicIDs).
		Updates(map[string]any{
			"moderation_status": string(domain.ModerationApproved),
			"is_approved":       true,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("approve media rows: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Media{}, id).Error; err != nil {
		return fmt.Errorf("delete media row: %w", err)
	}
	return nil
}

func toEntity(m *domain.Media) entities.Media {
	return entities.Media{
		ID:                m.ID,
		PublicID:          m.PublicID,
		Filename:          m.Filename,
		OriginalFilename:  m.OriginalFilename,
		MediaType:         string(m.MediaType),
		ContentType:       m.ContentType,
		StorageType:       string(m.StorageType),
		FileSize:          m.FileSize,
		Width:             m.Width,
		Height:            m.Height,
		Duration:          m.Duration,
		ImageHash:         m.ImageHash,
		StoragePath:       m.StoragePath,
		OriginalURL:       m.OriginalURL,
		ThumbnailURL:      m.ThumbnailURL,
		MediumURL:         m.MediumURL,
		LargeURL:          m.LargeURL,
		VideoProcessedURL: m.VideoProcessedURL,
		EntityType:        string(m.EntityType),
		EntityID:          m.EntityID,
		EntityField:       m.EntityField,
		UploadedBy:        m.UploadedBy,
		IsPublic:          m.IsPublic,
		IsApproved:        m.IsApproved,
		ModerationStatus:  string(m.ModerationStatus),
		AltText:           m.AltText,
		Caption:           m.Caption,
		SortOrder:         m.SortOrder,
		IsPrimary:         m.IsPrimary,
		SourceURL:         m.SourceURL,
		Tags:              marshalJSON(m.Tags),
		Metadata:          marshalJSON(m.Metadata),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromEntity(row entities.Media) *domain.Media {
	m := &domain.Media{
		ID:                row.ID,
		PublicID:          row.PublicID,
		Filename:          row.Filename,
		OriginalFilename:  row.OriginalFilename,
		MediaType:         domain.MediaType(row.MediaType),
		ContentType:       row.ContentType,
		StorageType:       storage.StorageType(row.StorageType),
		FileSize:          row.FileSize,
		Width:             row.Width,
		Height:            row.Height,
		Duration:          row.Duration,
		ImageHash:         row.ImageHash,
		StoragePath:       row.StoragePath,
		OriginalURL:       row.OriginalURL,
		ThumbnailURL:      row.ThumbnailURL,
		MediumURL:         row.MediumURL,
		LargeURL:          row.LargeURL,
		VideoProcessedURL: row.VideoProcessedURL,
		EntityType:        entity.Kind(row.EntityType),
		EntityID:          row.EntityID,
		EntityField:       row.EntityField,
		UploadedBy:        row.UploadedBy,
		IsPublic:          row.IsPublic,
		IsApproved:        row.IsApproved,
		ModerationStatus:  domain.ModerationStatus(row.ModerationStatus),
		AltText:           row.AltText,
		Caption:           row.Caption,
		SortOrder:         row.SortOrder,
		IsPrimary:         row.IsPrimary,
		SourceURL:         row.SourceURL,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.Tags != "" {
		_ = json.Unmarshal([]byte(row.Tags), &m.Tags)
	}
	if row.Metadata != "" {
		_ = json.Unmarshal([]byte(row.Metadata), &m.Metadata)
	}
	return m
}

func fromEntities(rows []entities.Media) []*domain.Media {
	out := make([]*domain.Media, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromEntity(row))
	}
	return out
}

func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
