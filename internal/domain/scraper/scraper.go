// Package scraper harvests media candidates from listing pages and feeds
// them into the ingest pipeline.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/domain/entity"
	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/metrics"
)

// Ingestor is the slice of the media service the scraper drives.
type Ingestor interface {
	Upload(ctx context.Context, req media.UploadRequest) (*media.Media, error)
	IngestEmbed(ctx context.Context, req media.EmbedRequest) (*media.Media, error)
}

// Request describes one page scrape.
type Request struct {
	PageURL     string
	Owner       entity.Ref
	EntityField string
	UploadedBy  string
	MaxImages   int
	MaxVideos   int
}

// Result is the partial outcome of a scrape: every created or reused row
// plus one error string per failed candidate. A failed item never aborts the
// rest of the page.
type Result struct {
	Items  []*media.Media
	Errors []string
}

type candidateKind int

const (
	candidateImage candidateKind = iota
	candidateVideo
	candidateEmbed
)

type candidate struct {
	url  string
	kind candidateKind
}

var (
	backgroundImagePattern = regexp.MustCompile(`background(?:-image)?\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	unlikelyNamePattern    = regexp.MustCompile(`(?i)(icon|logo|sprite|avatar|favicon)`)
)

// Scraper fetches listing pages, extracts media URLs and ingests each
// candidate through the pipeline. It keeps no state of its own; idempotency
// comes from the (entity, original_filename) ledger lookup.
type Scraper struct {
	cfg         *config.Config
	repo        media.Repository
	ingest      Ingestor
	pageClient  *http.Client
	imageClient *http.Client
	videoClient *http.Client
	log         zerolog.Logger
}

func New(cfg *config.Config, repo media.Repository, ingest Ingestor, log zerolog.Logger) *Scraper {
	return &Scraper{
		cfg:         cfg,
		repo:        repo,
		ingest:      ingest,
		pageClient:  &http.Client{Timeout: cfg.ImageFetchTimeout},
		imageClient: &http.Client{Timeout: cfg.ImageFetchTimeout},
		videoClient: &http.Client{Timeout: cfg.VideoFetchTimeout},
		log:         log.With().Str("component", "media-scraper").Logger(),
	}
}

// Scrape fetches one page and ingests its media candidates. Re-scraping the
// same page for the same owner reuses existing ledger rows instead of
// re-downloading.
func (s *Scraper) Scrape(ctx context.Context, req Request) (*Result, error) {
	base, candidates, err := s.collect(ctx, req.PageURL)
	if err != nil {
		return nil, err
	}

	maxImages := req.MaxImages
	if maxImages <= 0 || maxImages > s.cfg.ScrapeMaxImages {
		maxImages = s.cfg.ScrapeMaxImages
	}
	maxVideos := req.MaxVideos
	if maxVideos <= 0 || maxVideos > s.cfg.ScrapeMaxVideos {
		maxVideos = s.cfg.ScrapeMaxVideos
	}

	result := &Result{}
	images, videos := 0, 0
	for _, c := range candidates {
		switch c.kind {
		case candidateImage:
			if images >= maxImages {
				continue
			}
			images++
		default:
			if videos >= maxVideos {
				continue
			}
			videos++
		}

		item, err := s.ingestCandidate(ctx, req, base, c)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.url, err))
			metrics.RecordScrapedItem(kindLabel(c.kind), "failed")
			continue
		}
		result.Items = append(result.Items, item)
		metrics.RecordScrapedItem(kindLabel(c.kind), "success")
	}

	s.log.Info().
		Str("page", req.PageURL).
		Int("items", len(result.Items)).
		Int("errors", len(result.Errors)).
		Msg("scrape finished")
	return result, nil
}

// collect fetches and parses the page, returning the resolved base URL and
// the filtered, deduplicated candidate list in document order.
func (s *Scraper) collect(ctx context.Context, pageURL string) (*url.URL, []candidate, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build page request: %w", err)
	}
	resp, err := s.pageClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("fetch page: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}

	base := resp.Request.URL

	var out []candidate
	seen := map[string]bool{}
	add := func(raw string, kind candidateKind) bool {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return false
		}
		resolved := resolveURL(base, raw)
		if resolved == "" || seen[resolved] {
			return false
		}
		if kind != candidateEmbed && unlikelyNamePattern.MatchString(path.Base(resolved)) {
			return false
		}
		seen[resolved] = true
		out = append(out, candidate{url: resolved, kind: kind})
		return true
	}

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		// Lazy-loading markup ships a blank or data: src with the real URL
		// in a data attribute; keep trying until one candidate is accepted.
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := sel.Attr(attr); ok && add(v, candidateImage) {
				return
			}
		}
	})

	doc.Find("picture source").Each(func(_ int, sel *goquery.Selection) {
		if srcset, ok := sel.Attr("srcset"); ok {
			for _, entry := range strings.Split(srcset, ",") {
				fields := strings.Fields(strings.TrimSpace(entry))
				if len(fields) > 0 {
					add(fields[0], candidateImage)
				}
			}
		}
	})

	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		for _, match := range backgroundImagePattern.FindAllStringSubmatch(style, -1) {
			add(match[1], candidateImage)
		}
	})

	doc.Find("video").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("src"); ok {
			add(v, candidateVideo)
		}
		sel.Find("source").Each(func(_ int, source *goquery.Selection) {
			if v, ok := source.Attr("src"); ok {
				add(v, candidateVideo)
			}
		})
	})

	doc.Find("iframe").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("src"); ok {
			if _, isEmbed := media.ParseEmbedURL(resolveURL(base, v)); isEmbed {
				add(v, candidateEmbed)
			}
		}
	})

	return base, out, nil
}

func (s *Scraper) ingestCandidate(ctx context.Context, req Request, base *url.URL, c candidate) (*media.Media, error) {
	if c.kind == candidateEmbed {
		return s.ingest.IngestEmbed(ctx, media.EmbedRequest{
			URL:         c.url,
			Owner:       req.Owner,
			EntityField: req.EntityField,
			UploadedBy:  req.UploadedBy,
			SourceURL:   req.PageURL,
		})
	}

	originalFilename := filenameFromURL(c.url)

	// Idempotent re-scrape: a row for this (owner, original_filename) means
	// the asset was already downloaded and stored.
	if existing, err := s.repo.FindByOwnerAndFilename(ctx, req.Owner, originalFilename); err == nil && existing != nil {
		metrics.RecordScrapedItem(kindLabel(c.kind), "reused")
		return existing, nil
	}

	data, contentType, err := s.download(ctx, c)
	if err != nil {
		return nil, err
	}

	return s.ingest.Upload(ctx, media.UploadRequest{
		Data:        data,
		Filename:    originalFilename,
		ContentType: contentType,
		Owner:       req.Owner,
		EntityField: req.EntityField,
		UploadedBy:  req.UploadedBy,
		SourceURL:   req.PageURL,
	})
}

func (s *Scraper) download(ctx context.Context, c candidate) ([]byte, string, error) {
	client := s.imageClient
	limit := s.cfg.MaxImageBytes
	if c.kind == candidateVideo {
		client = s.videoClient
		limit = s.cfg.MaxVideoBytes
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("download: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(contentType)
	// CDNs routinely serve images as octet-stream; sniff those.
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return data, contentType, nil
}

func resolveURL(base *url.URL, raw string) string {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// filenameFromURL derives the scrape-time original filename used for dedup.
func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	return name
}

func kindLabel(kind candidateKind) string {
	switch kind {
	case candidateVideo:
		return "video"
	case candidateEmbed:
		return "embed"
	default:
		return "image"
	}
}
