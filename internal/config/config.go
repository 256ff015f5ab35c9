package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the media service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"media-service"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIA_PORT" envDefault:"8090"`
	LogLevel        string        `env:"MEDIA_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"MEDIA_LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DatabaseDSN    string        `env:"DB_POSTGRESQL_DSN,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"MEDIA_STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// Local Storage Configuration
	LocalStoragePath string `env:"MEDIA_LOCAL_STORAGE_PATH" envDefault:"./media-data"`
	LocalBaseURL     string `env:"MEDIA_LOCAL_BASE_URL" envDefault:"http://localhost:8090"`

	// S3 / MinIO Storage Configuration
	S3Endpoint      string `env:"MEDIA_S3_ENDPOINT"`
	S3PublicBaseURL string `env:"MEDIA_S3_PUBLIC_BASE_URL"`
	S3Region        string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string `env:"MEDIA_S3_BUCKET"`
	S3AccessKeyID   string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"MEDIA_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle  bool   `env:"MEDIA_S3_USE_PATH_STYLE" envDefault:"true"`

	// Upload ceilings
	MaxImageBytes  int64 `env:"MEDIA_MAX_IMAGE_BYTES" envDefault:"20971520"`   // 20 MB
	MaxVideoBytes  int64 `env:"MEDIA_MAX_VIDEO_BYTES" envDefault:"524288000"`  // 500 MB
	MaxAvatarBytes int64 `env:"MEDIA_MAX_AVATAR_BYTES" envDefault:"5242880"`   // 5 MB

	// Image dimension bounds, validated after decode
	MinDimension int `env:"MEDIA_MIN_DIMENSION" envDefault:"50"`
	MaxDimension int `env:"MEDIA_MAX_DIMENSION" envDefault:"8000"`

	// Variant tiers
	ThumbnailSize    int `env:"MEDIA_THUMBNAIL_SIZE" envDefault:"150"`
	ThumbnailQuality int `env:"MEDIA_THUMBNAIL_QUALITY" envDefault:"80"`
	MediumSize       int `env:"MEDIA_MEDIUM_SIZE" envDefault:"800"`
	MediumQuality    int `env:"MEDIA_MEDIUM_QUALITY" envDefault:"85"`
	LargeSize        int `env:"MEDIA_LARGE_SIZE" envDefault:"1600"`
	LargeQuality     int `env:"MEDIA_LARGE_QUALITY" envDefault:"90"`

	// Video processing
	VideoThumbnailOffset time.Duration `env:"MEDIA_VIDEO_THUMBNAIL_OFFSET" envDefault:"1s"`

	// Privacy: drop GPS EXIF tags from the stored metadata blob
	StripGPSMetadata bool `env:"MEDIA_STRIP_GPS" envDefault:"true"`

	// Perceptual-hash duplicate threshold (Hamming distance)
	DuplicateThreshold int `env:"MEDIA_DUPLICATE_THRESHOLD" envDefault:"5"`

	// Scraping
	ScrapeMaxImages    int           `env:"MEDIA_SCRAPE_MAX_IMAGES" envDefault:"20"`
	ScrapeMaxVideos    int           `env:"MEDIA_SCRAPE_MAX_VIDEOS" envDefault:"5"`
	ImageFetchTimeout  time.Duration `env:"MEDIA_IMAGE_FETCH_TIMEOUT" envDefault:"30s"`
	VideoFetchTimeout  time.Duration `env:"MEDIA_VIDEO_FETCH_TIMEOUT" envDefault:"60s"`

	// Batch uploads
	MaxBatchUploadSize   int `env:"MAX_BATCH_UPLOAD_SIZE" envDefault:"20"`
	MaxConcurrentUploads int `env:"MAX_CONCURRENT_UPLOADS" envDefault:"5"`

	// Retention sweep grace period for unapproved media
	RetentionGraceDays int `env:"MEDIA_RETENTION_GRACE_DAYS" envDefault:"7"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicBaseURL = strings.TrimSpace(cfg.S3PublicBaseURL)

	if cfg.IsS3Storage() {
		if cfg.S3Bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
			return nil, fmt.Errorf("MEDIA_S3_BUCKET and credentials are required when MEDIA_STORAGE_BACKEND=s3")
		}
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 20 * 1024 * 1024
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = 500 * 1024 * 1024
	}
	if cfg.RetentionGraceDays <= 0 {
		cfg.RetentionGraceDays = 7
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RetentionGrace returns the retention grace period as a duration.
func (c *Config) RetentionGrace() time.Duration {
	return time.Duration(c.RetentionGraceDays) * 24 * time.Hour
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if the S3/MinIO backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}
