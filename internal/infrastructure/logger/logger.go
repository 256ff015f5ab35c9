package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
)

// New constructs a zerolog logger from the service configuration.
func New(cfg *config.Config) zerolog.Logger {
	return NewWriter(cfg, os.Stdout)
}

// NewWriter constructs a logger writing to an explicit sink. Batch jobs use
// this to tee their output into a per-run log file.
func NewWriter(cfg *config.Config, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = out
	if strings.ToLower(cfg.LogFormat) != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(w).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger().Level(lvl)
}
