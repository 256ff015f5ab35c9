package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

func newLocalBackend(t *testing.T) *storage.LocalBackend {
	t.Helper()
	backend, err := storage.NewLocalBackend(&config.Config{
		LocalStoragePath: t.TempDir(),
		LocalBaseURL:     "http://localhost:8090/",
	}, zerolog.Nop())
	require.NoError(t, err)
	return backend
}

func TestLocalBackend_SaveOpenURL(t *testing.T) {
	backend := newLocalBackend(t)
	ctx := context.Background()

	result, err := backend.Save(ctx, []byte("blob-bytes"), "USR-1-abc/gallery/image-1-x.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "USR-1-abc/gallery/image-1-x.jpg", result.StoragePath)
	assert.Equal(t, "http://localhost:8090/uploads/USR-1-abc/gallery/image-1-x.jpg", result.AccessURL)
	assert.Equal(t, result.AccessURL, backend.URL(result.StoragePath))

	reader, err := backend.Open(ctx, result.StoragePath)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob-bytes"), data)

	assert.Equal(t, storage.Found, backend.Stat(ctx, result.StoragePath))
}

func TestLocalBackend_SaveOverwrite(t *testing.T) {
	backend := newLocalBackend(t)
	ctx := context.Background()

	_, err := backend.Save(ctx, []byte("first"), "k/v.bin", "application/octet-stream")
	require.NoError(t, err)
	_, err = backend.Save(ctx, []byte("second"), "k/v.bin", "application/octet-stream")
	require.NoError(t, err)

	reader, err := backend.Open(ctx, "k/v.bin")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	// The write-then-rename path must not leave temp files behind.
	entries, err := os.ReadDir(filepath.Join(backend.BasePath(), "k"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalBackend_Delete(t *testing.T) {
	backend := newLocalBackend(t)
	ctx := context.Background()

	_, err := backend.Save(ctx, []byte("x"), "a/b.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.True(t, backend.Delete(ctx, "a/b.jpg"))
	assert.Equal(t, storage.NotFound, backend.Stat(ctx, "a/b.jpg"))

	// Deleting an absent blob reports false so callers can tell the
	// difference between removed-now and already-gone.
	assert.False(t, backend.Delete(ctx, "a/b.jpg"))
	assert.False(t, backend.Delete(ctx, "never/existed.jpg"))
}

func TestLocalBackend_StatMissing(t *testing.T) {
	backend := newLocalBackend(t)
	ex := backend.Stat(context.Background(), "nope/missing.jpg")
	assert.Equal(t, storage.NotFound, ex)
	assert.True(t, ex.Missing())
}

func TestExistence_Missing(t *testing.T) {
	assert.True(t, storage.NotFound.Missing())
	assert.False(t, storage.Found.Missing())
	assert.False(t, storage.Unknown.Missing())
}
