package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
	domain "github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/interfaces/httpserver/requests"
	"github.com/propside/media-service/internal/interfaces/httpserver/responses"
)

// MediaHandler exposes the media ingest, lookup and moderation endpoints.
type MediaHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "media-handler").Logger(),
	}
}

// Upload accepts one multipart file plus attachment fields and runs it
// through the full pipeline. Direct uploads are auto approved.
func (h *MediaHandler) Upload(c *gin.Context) {
	var form requests.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	if !form.Owner().Kind.Valid() {
		responses.BadRequest(c, "unknown entity_type")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		responses.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	req, err := h.buildUploadRequest(file, header, &form)
	if err != nil {
		h.log.Error().Err(err).Msg("read upload body")
		responses.BadRequest(c, "failed to read file")
		return
	}

	m, err := h.service.Upload(c.Request.Context(), req)
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusCreated, responses.BuildMediaResponse(m))
}

// UploadBatch accepts multiple files under the "files" part. Items succeed
// or fail independently; the response lists both.
func (h *MediaHandler) UploadBatch(c *gin.Context) {
	var form requests.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	if !form.Owner().Kind.Valid() {
		responses.BadRequest(c, "unknown entity_type")
		return
	}

	mpForm, err := c.MultipartForm()
	if err != nil {
		responses.BadRequest(c, "multipart form is required")
		return
	}
	headers := mpForm.File["files"]
	if len(headers) == 0 {
		responses.BadRequest(c, "at least one file is required")
		return
	}

	var reqs []domain.UploadRequest
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			responses.BadRequest(c, "failed to open "+header.Filename)
			return
		}
		req, err := h.buildUploadRequest(file, header, &form)
		file.Close()
		if err != nil {
			responses.BadRequest(c, "failed to read "+header.Filename)
			return
		}
		reqs = append(reqs, req)
	}

	created, errs := h.service.UploadBatch(c.Request.Context(), reqs)
	status := http.StatusCreated
	if len(created) == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, responses.BuildBatchUploadResponse(created, errs))
}

func (h *MediaHandler) buildUploadRequest(file multipart.File, header *multipart.FileHeader, form *requests.UploadForm) (domain.UploadRequest, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.UploadRequest{}, err
	}
	// Browsers sometimes omit or genericize the part's content type; sniff
	// the bytes instead of trusting a blank header.
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return domain.UploadRequest{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		Owner:       form.Owner(),
		EntityField: form.EntityField,
		UploadedBy:  form.UploadedBy,
		AltText:     form.AltText,
		Caption:     form.Caption,
		Tags:        form.TagList(),
		IsPrimary:   form.IsPrimary,
		SortOrder:   form.SortOrder,
		AutoApprove: true,
	}, nil
}

// Embed registers a YouTube/Vimeo URL as a ledger-only row.
func (h *MediaHandler) Embed(c *gin.Context) {
	var req requests.EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	if !req.Owner().Kind.Valid() {
		responses.BadRequest(c, "unknown entity_type")
		return
	}

	m, err := h.service.IngestEmbed(c.Request.Context(), domain.EmbedRequest{
		URL:         req.URL,
		Owner:       req.Owner(),
		EntityField: req.EntityField,
		UploadedBy:  req.UploadedBy,
		Caption:     req.Caption,
		AutoApprove: true,
	})
	if err != nil {
		responses.HandleError(c, err, "embed registration failed")
		return
	}
	c.JSON(http.StatusCreated, responses.BuildMediaResponse(m))
}

// Get returns one item by public ID.
func (h *MediaHandler) Get(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "lookup failed")
		return
	}
	c.JSON(http.StatusOK, responses.BuildMediaResponse(m))
}

// Delete removes the ledger row and its blobs.
func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "delete failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// Approve marks one item approved.
func (h *MediaHandler) Approve(c *gin.Context) {
	if err := h.service.Approve(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "approve failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// Reject marks one item rejected, scheduling it for the retention sweep.
func (h *MediaHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "reject failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// ApproveBatch marks a set of items approved in one call and reports how
// many rows matched.
func (h *MediaHandler) ApproveBatch(c *gin.Context) {
	var req requests.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	n, err := h.service.Repo().Approve(c.Request.Context(), req.PublicIDs)
	if err != nil {
		responses.HandleError(c, err, "approve failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": n})
}

// Duplicate compares the perceptual hashes of two stored images. The result
// is advisory; nothing is blocked either way.
func (h *MediaHandler) Duplicate(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "lookup failed")
		return
	}
	b, err := h.service.Get(c.Request.Context(), c.Param("other"))
	if err != nil {
		responses.HandleError(c, err, "lookup failed")
		return
	}
	if a.ImageHash == "" || b.ImageHash == "" {
		responses.BadRequest(c, "both items must be images with a stored hash")
		return
	}
	distance, err := domain.HashDistance(a.ImageHash, b.ImageHash)
	if err != nil {
		responses.HandleError(c, err, "hash comparison failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"distance":  distance,
		"duplicate": h.service.Duplicates().IsDuplicate(a.ImageHash, b.ImageHash),
	})
}
