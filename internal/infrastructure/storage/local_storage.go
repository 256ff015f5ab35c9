package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
)

// LocalBackend stores blobs on the local filesystem and serves them through
// the service's own /uploads route.
type LocalBackend struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

// NewLocalBackend creates the local filesystem backend.
func NewLocalBackend(cfg *config.Config, log zerolog.Logger) (*LocalBackend, error) {
	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		return nil, fmt.Errorf("MEDIA_LOCAL_STORAGE_PATH is required for the local backend")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	b := &LocalBackend{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.LocalBaseURL), "/"),
		log:      log.With().Str("component", "local-storage").Logger(),
	}

	b.log.Info().Str("path", basePath).Str("base_url", b.baseURL).Msg("local storage initialized")
	return b, nil
}

// BasePath returns the root directory blobs are written under.
func (l *LocalBackend) BasePath() string {
	return l.basePath
}

func (l *LocalBackend) Save(ctx context.Context, data []byte, key string, contentType string) (SaveResult, error) {
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("create directory: %w", err)
	}

	// Write-then-rename so a retried save never leaves a half-written blob
	// visible under the final key.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return SaveResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return SaveResult{}, fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return SaveResult{}, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return SaveResult{}, fmt.Errorf("finalize file: %w", err)
	}

	l.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("blob saved to local storage")

	return SaveResult{StoragePath: key, AccessURL: l.URL(key)}, nil
}

func (l *LocalBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}
	return f, nil
}

func (l *LocalBackend) Delete(ctx context.Context, key string) bool {
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	err := os.Remove(fullPath)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	l.log.Warn().Err(err).Str("key", key).Msg("local delete failed")
	return false
}

func (l *LocalBackend) URL(key string) string {
	return fmt.Sprintf("%s/uploads/%s", l.baseURL, filepath.ToSlash(key))
}

func (l *LocalBackend) Stat(ctx context.Context, key string) Existence {
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	_, err := os.Stat(fullPath)
	switch {
	case err == nil:
		return Found
	case os.IsNotExist(err):
		return NotFound
	default:
		l.log.Warn().Err(err).Str("key", key).Msg("local stat failed")
		return Unknown
	}
}

func (l *LocalBackend) Kind() StorageType {
	return StorageLocal
}
