package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/domain/scraper"
	"github.com/propside/media-service/internal/interfaces/httpserver/requests"
	"github.com/propside/media-service/internal/interfaces/httpserver/responses"
)

// ScrapeHandler exposes the listing-page harvest endpoint.
type ScrapeHandler struct {
	scraper *scraper.Scraper
	log     zerolog.Logger
}

func NewScrapeHandler(s *scraper.Scraper, log zerolog.Logger) *ScrapeHandler {
	return &ScrapeHandler{
		scraper: s,
		log:     log.With().Str("component", "scrape-handler").Logger(),
	}
}

// Scrape fetches one page and ingests its media candidates. Per-item
// failures are reported in the response, not as an HTTP error.
func (h *ScrapeHandler) Scrape(c *gin.Context) {
	var req requests.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	if !req.Owner().Kind.Valid() {
		responses.BadRequest(c, "unknown entity_type")
		return
	}

	result, err := h.scraper.Scrape(c.Request.Context(), scraper.Request{
		PageURL:     req.PageURL,
		Owner:       req.Owner(),
		EntityField: req.EntityField,
		UploadedBy:  req.UploadedBy,
		MaxImages:   req.MaxImages,
		MaxVideos:   req.MaxVideos,
	})
	if err != nil {
		h.log.Error().Err(err).Str("page_url", req.PageURL).Msg("scrape failed")
		responses.HandleError(c, err, "scrape failed")
		return
	}
	c.JSON(http.StatusOK, responses.BuildScrapeResponse(result))
}
