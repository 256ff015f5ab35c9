package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

func TestRetentionSweeper_Run(t *testing.T) {
	repo := newMemRepo()
	backend := newStubBackend(storage.StorageLocal, "http://localhost:8090")
	ctx := context.Background()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	backend.put("USR-1/gallery/fresh.jpg", []byte("f"))
	fresh := repo.add(&media.Media{
		PublicID:    "MED-1-fresh",
		StoragePath: "USR-1/gallery/fresh.jpg",
		CreatedAt:   now.Add(-6 * 24 * time.Hour),
	})

	backend.put("USR-1/gallery/stale.jpg", []byte("s"))
	backend.put("USR-1/gallery/stale_thumb.jpg", []byte("st"))
	stale := repo.add(&media.Media{
		PublicID:     "MED-2-stale",
		StoragePath:  "USR-1/gallery/stale.jpg",
		ThumbnailURL: "http://localhost:8090/uploads/USR-1/gallery/stale_thumb.jpg",
		CreatedAt:    now.Add(-8 * 24 * time.Hour),
	})

	backend.put("USR-1/gallery/kept.jpg", []byte("k"))
	approved := repo.add(&media.Media{
		PublicID:    "MED-3-approved",
		StoragePath: "USR-1/gallery/kept.jpg",
		IsApproved:  true,
		CreatedAt:   now.Add(-30 * 24 * time.Hour),
	})

	staleEmbed := repo.add(&media.Media{
		PublicID:    "MED-4-embed",
		ContentType: media.EmbedContentType,
		StoragePath: "https://www.youtube.com/embed/abc",
		CreatedAt:   now.Add(-9 * 24 * time.Hour),
	})

	sweeper := NewRetentionSweeper(repo, backend, 7*24*time.Hour, zerolog.Nop())
	sweeper.BatchSize = 1
	sweeper.now = func() time.Time { return now }

	t.Run("dry run lists expired rows only", func(t *testing.T) {
		report, err := sweeper.Run(ctx, true)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"MED-2-stale", "MED-4-embed"}, report.Expired)
		assert.Zero(t, report.Deleted)
		assert.Equal(t, 4, repo.count())
	})

	t.Run("live run reclaims blobs and rows", func(t *testing.T) {
		report, err := sweeper.Run(ctx, false)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Deleted)
		assert.Nil(t, repo.get(stale.ID))
		assert.Nil(t, repo.get(staleEmbed.ID))
		assert.NotNil(t, repo.get(fresh.ID), "inside the grace period")
		assert.NotNil(t, repo.get(approved.ID), "approval exempts from the sweep")

		// Original and variant blobs both reclaimed, nothing else touched.
		assert.ElementsMatch(t,
			[]string{"USR-1/gallery/stale.jpg", "USR-1/gallery/stale_thumb.jpg"},
			backend.deleted)
		assert.Equal(t, storage.Found, backend.Stat(ctx, "USR-1/gallery/fresh.jpg"))
		assert.Equal(t, storage.Found, backend.Stat(ctx, "USR-1/gallery/kept.jpg"))
	})
}

func TestRetentionSweeper_GraceBoundary(t *testing.T) {
	repo := newMemRepo()
	backend := newStubBackend(storage.StorageLocal, "http://localhost:8090")
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	backend.put("k/exact.jpg", []byte("e"))
	exact := repo.add(&media.Media{
		PublicID:    "MED-exact",
		StoragePath: "k/exact.jpg",
		CreatedAt:   now.Add(-7 * 24 * time.Hour),
	})

	sweeper := NewRetentionSweeper(repo, backend, 7*24*time.Hour, zerolog.Nop())
	sweeper.now = func() time.Time { return now }

	// created_at exactly at the cutoff is not strictly before it.
	report, err := sweeper.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, report.Deleted)
	assert.NotNil(t, repo.get(exact.ID))
}

func TestRetentionSweeper_Approve(t *testing.T) {
	repo := newMemRepo()
	backend := newStubBackend(storage.StorageLocal, "http://localhost:8090")
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	backend.put("k/old.jpg", []byte("o"))
	row := repo.add(&media.Media{
		PublicID:    "MED-curated",
		StoragePath: "k/old.jpg",
		CreatedAt:   now.Add(-20 * 24 * time.Hour),
	})

	sweeper := NewRetentionSweeper(repo, backend, 7*24*time.Hour, zerolog.Nop())
	sweeper.now = func() time.Time { return now }

	n, err := sweeper.Approve(context.Background(), []string{"MED-curated"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	report, err := sweeper.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, report.Deleted)
	assert.NotNil(t, repo.get(row.ID))
}
