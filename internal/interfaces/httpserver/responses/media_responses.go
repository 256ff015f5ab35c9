package responses

import (
	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/domain/scraper"
)

// MediaResponse is the API shape of one ledger row.
type MediaResponse struct {
	PublicID         string   `json:"public_id"`
	MediaType        string   `json:"media_type"`
	ContentType      string   `json:"content_type"`
	StorageType      string   `json:"storage_type"`
	OriginalFilename string   `json:"original_filename"`
	FileSize         int64    `json:"file_size"`
	Width            int      `json:"width,omitempty"`
	Height           int      `json:"height,omitempty"`
	Duration         float64  `json:"duration,omitempty"`
	OriginalURL      string   `json:"original_url"`
	ThumbnailURL     string   `json:"thumbnail_url,omitempty"`
	MediumURL        string   `json:"medium_url,omitempty"`
	LargeURL         string   `json:"large_url,omitempty"`
	EntityType       string   `json:"entity_type"`
	EntityID         int64    `json:"entity_id"`
	EntityProfileID  string   `json:"entity_profile_id,omitempty"`
	EntityField      string   `json:"entity_field,omitempty"`
	IsApproved       bool     `json:"is_approved"`
	ModerationStatus string   `json:"moderation_status"`
	AltText          string   `json:"alt_text,omitempty"`
	Caption          string   `json:"caption,omitempty"`
	SortOrder        int      `json:"sort_order"`
	IsPrimary        bool     `json:"is_primary"`
	SourceURL        string   `json:"source_url,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// BuildMediaResponse maps a domain row to its API shape.
func BuildMediaResponse(m *media.Media) *MediaResponse {
	return &MediaResponse{
		PublicID:         m.PublicID,
		MediaType:        string(m.MediaType),
		ContentType:      m.ContentType,
		StorageType:      string(m.StorageType),
		OriginalFilename: m.OriginalFilename,
		FileSize:         m.FileSize,
		Width:            m.Width,
		Height:           m.Height,
		Duration:         m.Duration,
		OriginalURL:      m.OriginalURL,
		ThumbnailURL:     m.ThumbnailURL,
		MediumURL:        m.MediumURL,
		LargeURL:         m.LargeURL,
		EntityType:       string(m.EntityType),
		EntityID:         m.EntityID,
		EntityProfileID:  m.EntityProfileID,
		EntityField:      m.EntityField,
		IsApproved:       m.IsApproved,
		ModerationStatus: string(m.ModerationStatus),
		AltText:          m.AltText,
		Caption:          m.Caption,
		SortOrder:        m.SortOrder,
		IsPrimary:        m.IsPrimary,
		SourceURL:        m.SourceURL,
		Tags:             m.Tags,
		CreatedAt:        m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// BatchUploadResponse carries the per-item outcome of a multi-file upload.
type BatchUploadResponse struct {
	Uploaded []*MediaResponse `json:"uploaded"`
	Errors   []string         `json:"errors,omitempty"`
}

// BuildBatchUploadResponse maps batch results to the API shape.
func BuildBatchUploadResponse(items []*media.Media, errs []string) *BatchUploadResponse {
	resp := &BatchUploadResponse{Errors: errs}
	for _, m := range items {
		resp.Uploaded = append(resp.Uploaded, BuildMediaResponse(m))
	}
	return resp
}

// ScrapeResponse carries the partial outcome of a page scrape.
type ScrapeResponse struct {
	Items  []*MediaResponse `json:"items"`
	Errors []string         `json:"errors,omitempty"`
}

// BuildScrapeResponse maps a scrape result to the API shape.
func BuildScrapeResponse(result *scraper.Result) *ScrapeResponse {
	resp := &ScrapeResponse{Errors: result.Errors}
	for _, m := range result.Items {
		resp.Items = append(resp.Items, BuildMediaResponse(m))
	}
	return resp
}
