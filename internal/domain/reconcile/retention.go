package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/metrics"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// SweepReport describes one retention sweep run.
type SweepReport struct {
	Examined int
	Expired  []string // public IDs past the grace period
	Deleted  int
}

// RetentionSweeper reclaims unapproved media older than the grace period.
// Blob deletes are best-effort; the row delete is the commit.
type RetentionSweeper struct {
	repo      media.Repository
	backend   storage.Backend
	grace     time.Duration
	log       zerolog.Logger
	BatchSize int

	// now is swappable for boundary tests.
	now func() time.Time
}

func NewRetentionSweeper(repo media.Repository, backend storage.Backend, grace time.Duration, log zerolog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		repo:      repo,
		backend:   backend,
		grace:     grace,
		log:       log.With().Str("component", "retention-sweeper").Logger(),
		BatchSize: defaultBatchSize,
		now:       time.Now,
	}
}

// Run deletes every row with is_approved=false created before now-grace,
// together with its blobs. With dryRun the report lists the expired rows and
// nothing is touched.
func (s *RetentionSweeper) Run(ctx context.Context, dryRun bool) (*SweepReport, error) {
	report := &SweepReport{}
	cutoff := s.now().Add(-s.grace)
	var afterID int64

	for {
		rows, err := s.repo.ListUnapprovedBefore(ctx, cutoff, afterID, s.BatchSize)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			break
		}
		afterID = rows[len(rows)-1].ID

		for _, row := range rows {
			report.Examined++
			report.Expired = append(report.Expired, row.PublicID)

			if dryRun {
				s.log.Info().
					Str("public_id", row.PublicID).
					Time("created_at", row.CreatedAt).
					Msg("past retention grace (dry run)")
				continue
			}

			if !row.IsEmbed() {
				if !s.backend.Delete(ctx, row.StoragePath) {
					s.log.Warn().Str("key", row.StoragePath).Msg("retention blob delete failed or blob absent")
				}
				for _, key := range row.VariantKeys() {
					if !s.backend.Delete(ctx, key) {
						s.log.Warn().Str("key", key).Msg("retention variant delete failed or blob absent")
					}
				}
			}

			if err := s.repo.Delete(ctx, row.ID); err != nil {
				s.log.Error().Err(err).Str("public_id", row.PublicID).Msg("retention row delete failed")
				metrics.RecordReconcileRow("retention", "delete_failed")
				continue
			}
			report.Deleted++
			metrics.RecordReconcileRow("retention", "deleted")
		}
	}

	s.log.Info().
		Int("examined", report.Examined).
		Int("deleted", report.Deleted).
		Bool("dry_run", dryRun).
		Msg("retention sweep finished")
	return report, nil
}

// Approve exempts the given rows from future sweeps.
func (s *RetentionSweeper) Approve(ctx context.Context, publicIDs []string) (int64, error) {
	return s.repo.Approve(ctx, publicIDs)
}
