package reconcile

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/metrics"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// MigrationReport describes one migrator run.
type MigrationReport struct {
	Scanned      int
	WouldMigrate []string // public IDs, dry run only
	Migrated     int
	Skipped      int
	Failed       int
}

// Migrator copies blobs from one backend to another and rewrites ledger
// locations. Runs are idempotent: resumed or repeated runs skip rows whose
// original_url already points at the destination or that appear in the
// resume file.
type Migrator struct {
	repo     media.Repository
	src      storage.Backend
	dst      storage.Backend
	progress *Progress
	log      zerolog.Logger

	// DeleteSource removes the source blob after a confirmed copy. Off by
	// default.
	DeleteSource bool
	BatchSize    int
}

func NewMigrator(repo media.Repository, src, dst storage.Backend, progress *Progress, log zerolog.Logger) *Migrator {
	return &Migrator{
		repo:      repo,
		src:       src,
		dst:       dst,
		progress:  progress,
		log:       log.With().Str("component", "backend-migrator").Logger(),
		BatchSize: defaultBatchSize,
	}
}

// Run migrates every row still located on the source backend.
func (m *Migrator) Run(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	report := &MigrationReport{}
	var afterID int64

	for {
		rows, err := m.repo.ListBatch(ctx, afterID, m.BatchSize)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}
		afterID = rows[len(rows)-1].ID

		for _, row := range rows {
			report.Scanned++

			if !m.needsMigration(row) {
				report.Skipped++
				m.progress.MarkSkipped()
				continue
			}

			if dryRun {
				report.WouldMigrate = append(report.WouldMigrate, row.PublicID)
				m.log.Info().Str("public_id", row.PublicID).Str("storage_path", row.StoragePath).Msg("would migrate (dry run)")
				continue
			}

			if err := m.migrateRow(ctx, row); err != nil {
				report.Failed++
				m.progress.MarkFailed()
				metrics.RecordReconcileRow("migrate", "failed")
				m.log.Error().Err(err).Str("public_id", row.PublicID).Msg("row migration failed")
				continue
			}
			report.Migrated++
			metrics.RecordReconcileRow("migrate", "migrated")
		}
	}

	m.log.Info().
		Int("scanned", report.Scanned).
		Int("migrated", report.Migrated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("dry_run", dryRun).
		Msg("migration finished")
	return report, nil
}

// needsMigration is true for blob-backed rows whose original_url still
// points at the source backend and that no earlier run already handled.
func (m *Migrator) needsMigration(row *media.Media) bool {
	if row.IsEmbed() {
		return false
	}
	if m.progress.Contains(row.PublicID) {
		return false
	}
	return m.onSource(row.OriginalURL)
}

func (m *Migrator) onSource(blobURL string) bool {
	if blobURL == "" {
		return false
	}
	return strings.HasPrefix(blobURL, m.src.URL(""))
}

// migrateRow copies the original and every existing variant blob, then
// rewrites the row's locations in one update. The ledger update is the
// commit point; a crash before it leaves the row on the source backend and
// a rerun copies again harmlessly (saves are idempotent).
func (m *Migrator) migrateRow(ctx context.Context, row *media.Media) error {
	keys := append([]string{row.StoragePath}, row.VariantKeys()...)

	var copied []string
	for _, key := range keys {
		if m.src.Stat(ctx, key) != storage.Found {
			// Variant rows can reference blobs that were never produced on
			// the old backend; only definite presence is copied.
			continue
		}
		if err := m.copyBlob(ctx, key, row.ContentType); err != nil {
			return err
		}
		copied = append(copied, key)
	}
	if len(copied) == 0 {
		return fmt.Errorf("no blobs found on source for %s", row.StoragePath)
	}

	row.StorageType = m.dst.Kind()
	row.OriginalURL = m.dst.URL(row.StoragePath)
	if row.ThumbnailURL != "" {
		row.ThumbnailURL = m.dst.URL(row.ThumbnailKey())
	}
	if row.MediumURL != "" {
		row.MediumURL = m.dst.URL(storage.VariantKey(row.StoragePath, storage.SuffixMedium))
	}
	if row.LargeURL != "" {
		row.LargeURL = m.dst.URL(storage.VariantKey(row.StoragePath, storage.SuffixLarge))
	}
	if row.VideoProcessedURL != "" {
		row.VideoProcessedURL = m.dst.URL(storage.VariantKey(row.StoragePath, storage.SuffixProcessed))
	}

	if err := m.repo.UpdateLocations(ctx, row); err != nil {
		return fmt.Errorf("update locations: %w", err)
	}
	if err := m.progress.MarkMigrated(row.PublicID); err != nil {
		m.log.Warn().Err(err).Str("public_id", row.PublicID).Msg("resume file flush failed")
	}

	if m.DeleteSource {
		for _, key := range copied {
			if !m.src.Delete(ctx, key) {
				m.log.Warn().Str("key", key).Msg("source blob delete failed")
			}
		}
	}

	m.log.Info().Str("public_id", row.PublicID).Int("blobs", len(copied)).Msg("row migrated")
	return nil
}

func (m *Migrator) copyBlob(ctx context.Context, key, contentType string) error {
	reader, err := m.src.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open source blob %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read source blob %s: %w", key, err)
	}
	if _, err := m.dst.Save(ctx, data, key, contentType); err != nil {
		return fmt.Errorf("write destination blob %s: %w", key, err)
	}
	return nil
}
