package media_test

import (
	"testing"

	"github.com/propside/media-service/internal/domain/media"
)

func TestParseEmbedURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "youtube watch",
			raw:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			ok:   true,
		},
		{
			name: "youtube watch without www",
			raw:  "https://youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			ok:   true,
		},
		{
			name: "youtube embed passthrough",
			raw:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			ok:   true,
		},
		{
			name: "youtu.be short link",
			raw:  "https://youtu.be/dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			ok:   true,
		},
		{
			name: "mobile youtube",
			raw:  "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			ok:   true,
		},
		{
			name: "vimeo",
			raw:  "https://vimeo.com/76979871",
			want: "https://player.vimeo.com/video/76979871",
			ok:   true,
		},
		{
			name: "vimeo player passthrough",
			raw:  "https://player.vimeo.com/video/76979871",
			want: "https://player.vimeo.com/video/76979871",
			ok:   true,
		},
		{
			name: "youtube watch without id",
			raw:  "https://www.youtube.com/watch",
			ok:   false,
		},
		{
			name: "unsupported host",
			raw:  "https://example.com/watch?v=abc",
			ok:   false,
		},
		{
			name: "direct file url",
			raw:  "https://cdn.example.com/tour.mp4",
			ok:   false,
		},
		{
			name: "not a url",
			raw:  "not a url at all",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := media.ParseEmbedURL(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseEmbedURL(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseEmbedURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPresetByName(t *testing.T) {
	preset, ok := media.PresetByName("720p")
	if !ok {
		t.Fatal("PresetByName(720p) not found")
	}
	if preset.Height != 720 {
		t.Errorf("PresetByName(720p).Height = %d, want 720", preset.Height)
	}

	if _, ok := media.PresetByName("4k"); ok {
		t.Error("PresetByName(4k): want not found")
	}

	// Lookup is case insensitive.
	if _, ok := media.PresetByName("1080P"); !ok {
		t.Error("PresetByName(1080P): want found")
	}
}
