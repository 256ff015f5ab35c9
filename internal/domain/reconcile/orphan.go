// Package reconcile keeps the media ledger consistent with physical blob
// state: orphan cleanup, cross-backend migration and retention sweeping.
// The jobs are batch processes meant for cron-style scheduling; operators
// serialize runs against the same backend.
package reconcile

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/metrics"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

const defaultBatchSize = 200

// OrphanReport describes one orphan scan run.
type OrphanReport struct {
	Scanned  int
	Skipped  int      // embeds and rows with ambiguous backend state
	Repaired int      // full-URL storage_path rows normalized
	Orphans  []string // public IDs whose blob is definitively gone
	Deleted  int
}

// OrphanScanner walks the ledger and removes rows whose blob no longer
// exists. Drift is repaired by deleting the orphaned row, never by
// fabricating a blob.
type OrphanScanner struct {
	repo      media.Repository
	backend   storage.Backend
	log       zerolog.Logger
	BatchSize int
}

func NewOrphanScanner(repo media.Repository, backend storage.Backend, log zerolog.Logger) *OrphanScanner {
	return &OrphanScanner{
		repo:      repo,
		backend:   backend,
		log:       log.With().Str("component", "orphan-scanner").Logger(),
		BatchSize: defaultBatchSize,
	}
}

// Run scans the whole ledger in batches. With dryRun the report lists every
// orphan but nothing is deleted. Deletions commit per row, so an interrupted
// run loses no applied progress.
func (s *OrphanScanner) Run(ctx context.Context, dryRun bool) (*OrphanReport, error) {
	report := &OrphanReport{}
	var afterID int64

	for {
		rows, err := s.repo.ListBatch(ctx, afterID, s.BatchSize)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}
		afterID = rows[len(rows)-1].ID

		for _, row := range rows {
			report.Scanned++

			if row.IsEmbed() {
				report.Skipped++
				continue
			}

			if repaired, err := s.repairStoragePath(ctx, row, dryRun); err != nil {
				s.log.Warn().Err(err).Str("public_id", row.PublicID).Msg("storage path repair failed")
			} else if repaired {
				report.Repaired++
			}

			switch s.backend.Stat(ctx, row.StoragePath) {
			case storage.Found:
				metrics.RecordReconcileRow("orphan", "present")
			case storage.Unknown:
				// Ambiguous backend state keeps the row: deleting metadata
				// during an outage would be silent data loss.
				report.Skipped++
				metrics.RecordReconcileRow("orphan", "ambiguous")
			case storage.NotFound:
				report.Orphans = append(report.Orphans, row.PublicID)
				if dryRun {
					s.log.Info().Str("public_id", row.PublicID).Str("storage_path", row.StoragePath).Msg("orphan (dry run)")
					continue
				}
				if err := s.repo.Delete(ctx, row.ID); err != nil {
					s.log.Error().Err(err).Str("public_id", row.PublicID).Msg("orphan row delete failed")
					metrics.RecordReconcileRow("orphan", "delete_failed")
					continue
				}
				report.Deleted++
				metrics.RecordReconcileRow("orphan", "deleted")
				s.log.Info().Str("public_id", row.PublicID).Msg("orphan row deleted")
			}
		}
	}

	s.log.Info().
		Int("scanned", report.Scanned).
		Int("orphans", len(report.Orphans)).
		Int("repaired", report.Repaired).
		Int("deleted", report.Deleted).
		Bool("dry_run", dryRun).
		Msg("orphan scan finished")
	return report, nil
}

// repairStoragePath fixes rows whose storage_path holds a full URL instead
// of a backend-relative key (a known historical bug class from swapped
// path/URL fields).
func (s *OrphanScanner) repairStoragePath(ctx context.Context, row *media.Media, dryRun bool) (bool, error) {
	key, ok := RelativeKeyFromURL(row.StoragePath)
	if !ok {
		return false, nil
	}
	s.log.Info().
		Str("public_id", row.PublicID).
		Str("from", row.StoragePath).
		Str("to", key).
		Bool("dry_run", dryRun).
		Msg("repairing full-URL storage path")
	if dryRun {
		return true, nil
	}
	row.StoragePath = key
	return true, s.repo.UpdateLocations(ctx, row)
}

// RelativeKeyFromURL extracts the backend-relative key out of a full blob
// URL. Local URLs carry the key after /uploads/; other URLs fall back to the
// path with the leading segment (bucket) heuristically dropped when it does
// not look like a profile ID.
func RelativeKeyFromURL(value string) (string, bool) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil {
		return "", false
	}
	p := strings.TrimPrefix(u.Path, "/")
	if idx := strings.Index(p, "uploads/"); idx >= 0 {
		return p[idx+len("uploads/"):], true
	}
	return p, p != ""
}
