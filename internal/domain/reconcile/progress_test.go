package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_FreshFile(t *testing.T) {
	progress, err := LoadProgress(filepath.Join(t.TempDir(), "resume.json"))
	require.NoError(t, err)

	assert.False(t, progress.Contains("MED-1"))
	stats := progress.Stats()
	assert.Zero(t, stats.Migrated)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Failed)
}

func TestProgress_PersistsAcrossReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")

	progress, err := LoadProgress(path)
	require.NoError(t, err)
	require.NoError(t, progress.MarkMigrated("MED-1"))
	require.NoError(t, progress.MarkMigrated("MED-2"))
	progress.MarkSkipped()
	progress.MarkFailed()

	reloaded, err := LoadProgress(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("MED-1"))
	assert.True(t, reloaded.Contains("MED-2"))
	assert.False(t, reloaded.Contains("MED-3"))
	assert.Equal(t, 2, reloaded.Stats().Migrated)
}

func TestProgress_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadProgress(path)
	assert.Error(t, err)
}
