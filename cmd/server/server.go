package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propside/media-service/internal/config"
	domain "github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/domain/scraper"
	"github.com/propside/media-service/internal/infrastructure/database"
	"github.com/propside/media-service/internal/infrastructure/logger"
	repo "github.com/propside/media-service/internal/infrastructure/repository/media"
	"github.com/propside/media-service/internal/infrastructure/repository/profiles"
	"github.com/propside/media-service/internal/infrastructure/storage"
	"github.com/propside/media-service/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

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

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	backend, err := newBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage backend")
	}
	log.Info().Str("backend", string(backend.Kind())).Msg("storage backend ready")

	resolver := profiles.NewResolver(db)
	mediaRepository := repo.NewRepository(db)
	mediaService := domain.NewService(cfg, mediaRepository, backend, resolver, log)
	pageScraper := scraper.New(cfg, mediaRepository, mediaService, log)

	httpServer := httpserver.New(cfg, log, mediaService, pageScraper)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Backend, error) {
	if cfg.IsS3Storage() {
		return storage.NewS3Backend(ctx, cfg, log)
	}
	return storage.NewLocalBackend(cfg, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
