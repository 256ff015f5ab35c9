package handlers

import (
	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
	domain "github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/domain/scraper"
)

// Provider wires HTTP handlers.
type Provider struct {
	Media  *MediaHandler
	Scrape *ScrapeHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, scrape *scraper.Scraper, log zerolog.Logger) *Provider {
	return &Provider{
		Media:  NewMediaHandler(cfg, service, log),
		Scrape: NewScrapeHandler(scrape, log),
	}
}
