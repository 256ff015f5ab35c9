package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propside/media-service/internal/domain/media"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

func TestOrphanScanner_Run(t *testing.T) {
	repo := newMemRepo()
	backend := newStubBackend(storage.StorageLocal, "http://localhost:8090")
	ctx := context.Background()

	backend.put("USR-1/gallery/image-1-aaa.jpg", []byte("a"))
	present := repo.add(&media.Media{
		PublicID:    "MED-1-present",
		StoragePath: "USR-1/gallery/image-1-aaa.jpg",
	})

	orphan := repo.add(&media.Media{
		PublicID:    "MED-2-orphan",
		StoragePath: "USR-1/gallery/image-2-bbb.jpg",
	})

	embed := repo.add(&media.Media{
		PublicID:    "MED-3-embed",
		ContentType: media.EmbedContentType,
		StoragePath: "https://www.youtube.com/embed/abc",
	})

	backend.markUnknown("USR-1/gallery/image-4-ddd.jpg")
	unknown := repo.add(&media.Media{
		PublicID:    "MED-4-unknown",
		StoragePath: "USR-1/gallery/image-4-ddd.jpg",
	})

	scanner := NewOrphanScanner(repo, backend, zerolog.Nop())
	scanner.BatchSize = 2 // force cursor pagination

	t.Run("dry run reports without deleting", func(t *testing.T) {
		report, err := scanner.Run(ctx, true)
		require.NoError(t, err)

		assert.Equal(t, 4, report.Scanned)
		assert.Equal(t, []string{"MED-2-orphan"}, report.Orphans)
		assert.Zero(t, report.Deleted)
		assert.Equal(t, 4, repo.count())
	})

	t.Run("live run deletes only definite orphans", func(t *testing.T) {
		report, err := scanner.Run(ctx, false)
		require.NoError(t, err)

		assert.Equal(t, []string{"MED-2-orphan"}, report.Orphans)
		assert.Equal(t, 1, report.Deleted)

		assert.Nil(t, repo.get(orphan.ID))
		assert.NotNil(t, repo.get(present.ID))
		assert.NotNil(t, repo.get(embed.ID), "embeds are never orphan candidates")
		assert.NotNil(t, repo.get(unknown.ID), "ambiguous backend state keeps the row")
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		report, err := scanner.Run(ctx, false)
		require.NoError(t, err)
		assert.Empty(t, report.Orphans)
		assert.Zero(t, report.Deleted)
		assert.Equal(t, 3, repo.count())
	})
}

func TestOrphanScanner_RepairsFullURLStoragePath(t *testing.T) {
	repo := newMemRepo()
	backend := newStubBackend(storage.StorageLocal, "http://localhost:8090")
	ctx := context.Background()

	backend.put("USR-1/gallery/image-9-zzz.jpg", []byte("z"))
	row := repo.add(&media.Media{
		PublicID:    "MED-9-swapped",
		StoragePath: "http://localhost:8090/uploads/USR-1/gallery/image-9-zzz.jpg",
	})

	scanner := NewOrphanScanner(repo, backend, zerolog.Nop())
	report, err := scanner.Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Repaired)
	assert.Empty(t, report.Orphans, "repaired row resolves to an existing blob")

	got := repo.get(row.ID)
	require.NotNil(t, got)
	assert.Equal(t, "USR-1/gallery/image-9-zzz.jpg", got.StoragePath)
}

func TestRelativeKeyFromURL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{
			name:  "local uploads url",
			value: "http://localhost:8090/uploads/USR-1/gallery/a.jpg",
			want:  "USR-1/gallery/a.jpg",
			ok:    true,
		},
		{
			name:  "path style s3 url",
			value: "https://minio.internal:9000/media-bucket/uploads/USR-1/a.jpg",
			want:  "USR-1/a.jpg",
			ok:    true,
		},
		{
			name:  "plain key is not a url",
			value: "USR-1/gallery/a.jpg",
			ok:    false,
		},
		{
			name:  "url without path",
			value: "http://localhost:8090",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RelativeKeyFromURL(tt.value)
			if ok != tt.ok {
				t.Fatalf("RelativeKeyFromURL(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("RelativeKeyFromURL(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
