// Command reconciler runs the batch jobs that keep the media ledger and the
// blob store consistent: orphan cleanup, cross-backend migration and the
// retention sweep. Jobs are meant for cron-style scheduling; runs against the
// same backend are serialized by the operator.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/domain/reconcile"
	"github.com/propside/media-service/internal/infrastructure/database"
	"github.com/propside/media-service/internal/infrastructure/logger"
	repo "github.com/propside/media-service/internal/infrastructure/repository/media"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

const usage = `usage: reconciler <command> [flags]

commands:
  orphan     delete ledger rows whose blob no longer exists
  migrate    copy blobs between backends and rewrite ledger locations
  retention  delete unapproved media older than the grace period
  approve    exempt media from the retention sweep by public ID
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report what would change without touching anything")
	resumeFile := fs.String("resume-file", "media-migration.json", "migration resume file path")
	deleteSource := fs.Bool("delete-source", false, "remove source blobs after a confirmed copy")
	target := fs.String("to", "", "migration destination backend: local or s3")
	ids := fs.String("ids", "", "comma separated public IDs for approve")
	logDir := fs.String("log-dir", "", "also write logs to a per-run file in this directory")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Overload(path)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	jobID := ulid.Make().String()
	log, closeLog, err := jobLogger(cfg, *logDir, command, jobID)
	if err != nil {
		panic(err)
	}
	defer closeLog()
	log = log.With().Str("job", command).Str("job_id", jobID).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	mediaRepo := repo.NewRepository(db)

	switch command {
	case "orphan":
		runOrphan(ctx, cfg, mediaRepo, *dryRun, log)
	case "migrate":
		runMigrate(ctx, cfg, mediaRepo, *target, *resumeFile, *deleteSource, *dryRun, log)
	case "retention":
		runRetention(ctx, cfg, mediaRepo, *dryRun, log)
	case "approve":
		runApprove(ctx, cfg, mediaRepo, *ids, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runOrphan(ctx context.Context, cfg *config.Config, mediaRepo *repo.Repository, dryRun bool, log zerolog.Logger) {
	backend := activeBackend(ctx, cfg, log)
	report, err := reconcile.NewOrphanScanner(mediaRepo, backend, log).Run(ctx, dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("orphan scan failed")
	}
	log.Info().
		Int("scanned", report.Scanned).
		Int("skipped", report.Skipped).
		Int("repaired", report.Repaired).
		Int("orphans", len(report.Orphans)).
		Int("deleted", report.Deleted).
		Bool("dry_run", dryRun).
		Msg("orphan scan complete")
	for _, id := range report.Orphans {
		fmt.Println(id)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, mediaRepo *repo.Repository, target, resumeFile string, deleteSource, dryRun bool, log zerolog.Logger) {
	src := activeBackend(ctx, cfg, log)
	dst := namedBackend(ctx, cfg, target, log)
	if dst.Kind() == src.Kind() {
		log.Fatal().Str("backend", string(src.Kind())).Msg("source and destination backend are the same")
	}

	progress, err := reconcile.LoadProgress(resumeFile)
	if err != nil {
		log.Fatal().Err(err).Str("resume_file", resumeFile).Msg("load resume file")
	}

	migrator := reconcile.NewMigrator(mediaRepo, src, dst, progress, log)
	migrator.DeleteSource = deleteSource
	report, err := migrator.Run(ctx, dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().
		Int("scanned", report.Scanned).
		Int("migrated", report.Migrated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("dry_run", dryRun).
		Msg("migration complete")
	for _, id := range report.WouldMigrate {
		fmt.Println(id)
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}

func runRetention(ctx context.Context, cfg *config.Config, mediaRepo *repo.Repository, dryRun bool, log zerolog.Logger) {
	backend := activeBackend(ctx, cfg, log)
	sweeper := reconcile.NewRetentionSweeper(mediaRepo, backend, cfg.RetentionGrace(), log)
	report, err := sweeper.Run(ctx, dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("retention sweep failed")
	}
	log.Info().
		Int("examined", report.Examined).
		Int("expired", len(report.Expired)).
		Int("deleted", report.Deleted).
		Bool("dry_run", dryRun).
		Msg("retention sweep complete")
	for _, id := range report.Expired {
		fmt.Println(id)
	}
}

func runApprove(ctx context.Context, cfg *config.Config, mediaRepo *repo.Repository, ids string, log zerolog.Logger) {
	var publicIDs []string
	for _, id := range strings.Split(ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			publicIDs = append(publicIDs, id)
		}
	}
	if len(publicIDs) == 0 {
		log.Fatal().Msg("approve requires -ids with at least one public ID")
	}
	n, err := mediaRepo.Approve(ctx, publicIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("approve failed")
	}
	log.Info().Int64("approved", n).Int("requested", len(publicIDs)).Msg("approve complete")
}

// activeBackend builds the backend named by MEDIA_STORAGE_BACKEND.
func activeBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) storage.Backend {
	name := "local"
	if cfg.IsS3Storage() {
		name = "s3"
	}
	return namedBackend(ctx, cfg, name, log)
}

func namedBackend(ctx context.Context, cfg *config.Config, name string, log zerolog.Logger) storage.Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "local":
		backend, err := storage.NewLocalBackend(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize local backend")
		}
		return backend
	case "s3":
		backend, err := storage.NewS3Backend(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize s3 backend")
		}
		return backend
	default:
		log.Fatal().Str("backend", name).Msg("unknown backend, expected local or s3")
		return nil
	}
}

// jobLogger tees logs to stderr and, when requested, a per-run file named
// after the job ID so operators can archive individual run transcripts.
func jobLogger(cfg *config.Config, dir, command, jobID string) (zerolog.Logger, func(), error) {
	if dir == "" {
		return logger.New(cfg), func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", command, jobID))
	f, err := os.Create(path)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("create log file: %w", err)
	}
	log := logger.NewWriter(cfg, io.MultiWriter(os.Stderr, f))
	return log, func() { _ = f.Close() }, nil
}
