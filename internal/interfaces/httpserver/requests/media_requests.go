package requests

import (
	"strings"

	"github.com/propside/media-service/internal/domain/entity"
)

// UploadForm carries the multipart fields that accompany an uploaded file.
// The file itself arrives as the "file" part (or "files" for batches).
type UploadForm struct {
	EntityType  string `form:"entity_type" binding:"required"`
	EntityID    int64  `form:"entity_id" binding:"required"`
	EntityField string `form:"entity_field"`
	UploadedBy  string `form:"uploaded_by"`
	AltText     string `form:"alt_text"`
	Caption     string `form:"caption"`
	Tags        string `form:"tags"`
	IsPrimary   bool   `form:"is_primary"`
	SortOrder   int    `form:"sort_order"`
}

// Owner builds the entity reference from the form fields.
func (f *UploadForm) Owner() entity.Ref {
	return entity.Ref{Kind: entity.Kind(strings.ToLower(f.EntityType)), ID: f.EntityID}
}

// TagList splits the comma separated tags field.
func (f *UploadForm) TagList() []string {
	if strings.TrimSpace(f.Tags) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(f.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// EmbedRequest registers a YouTube/Vimeo URL against an entity.
type EmbedRequest struct {
	URL         string `json:"url" binding:"required"`
	EntityType  string `json:"entity_type" binding:"required"`
	EntityID    int64  `json:"entity_id" binding:"required"`
	EntityField string `json:"entity_field"`
	UploadedBy  string `json:"uploaded_by"`
	Caption     string `json:"caption"`
}

// Owner builds the entity reference from the request fields.
func (r *EmbedRequest) Owner() entity.Ref {
	return entity.Ref{Kind: entity.Kind(strings.ToLower(r.EntityType)), ID: r.EntityID}
}

// ScrapeRequest asks for one listing page to be harvested.
type ScrapeRequest struct {
	PageURL     string `json:"page_url" binding:"required"`
	EntityType  string `json:"entity_type" binding:"required"`
	EntityID    int64  `json:"entity_id" binding:"required"`
	EntityField string `json:"entity_field"`
	UploadedBy  string `json:"uploaded_by"`
	MaxImages   int    `json:"max_images"`
	MaxVideos   int    `json:"max_videos"`
}

// Owner builds the entity reference from the request fields.
func (r *ScrapeRequest) Owner() entity.Ref {
	return entity.Ref{Kind: entity.Kind(strings.ToLower(r.EntityType)), ID: r.EntityID}
}

// ApproveRequest marks a set of items approved in one call.
type ApproveRequest struct {
	PublicIDs []string `json:"public_ids" binding:"required"`
}
