package media_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/propside/media-service/internal/domain/media"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// halfImage is white on the left half and black on the right.
func halfImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestAverageHash_SolidImageIsZero(t *testing.T) {
	// Every cell equals the grid mean, so no bit is set.
	hash := media.AverageHash(solidImage(64, 64, color.Gray{Y: 128}))
	if hash != "0000000000000000" {
		t.Errorf("AverageHash(solid) = %q, want all zero", hash)
	}
}

func TestAverageHash_Format(t *testing.T) {
	hash := media.AverageHash(halfImage(64, 64))
	if len(hash) != 16 {
		t.Fatalf("AverageHash() = %q, want 16 hex chars", hash)
	}
	if _, err := media.HashDistance(hash, hash); err != nil {
		t.Errorf("HashDistance(self, self) error = %v", err)
	}
}

func TestAverageHash_SelfDistanceZero(t *testing.T) {
	hash := media.AverageHash(halfImage(200, 100))
	dist, err := media.HashDistance(hash, hash)
	if err != nil {
		t.Fatalf("HashDistance() error = %v", err)
	}
	if dist != 0 {
		t.Errorf("HashDistance(h, h) = %d, want 0", dist)
	}
}

func TestAverageHash_ScaleInvariant(t *testing.T) {
	// The same scene at different resolutions should hash identically; the
	// hash works off an 8x8 reduction.
	small := media.AverageHash(halfImage(64, 64))
	large := media.AverageHash(halfImage(512, 512))
	dist, err := media.HashDistance(small, large)
	if err != nil {
		t.Fatalf("HashDistance() error = %v", err)
	}
	if dist > 2 {
		t.Errorf("HashDistance(small, large) = %d, want <= 2 for the same scene", dist)
	}
}

func TestAverageHash_DistinctScenes(t *testing.T) {
	left := media.AverageHash(halfImage(64, 64))

	// Flipped scene: white right, black left.
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x >= 32 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	right := media.AverageHash(img)

	dist, err := media.HashDistance(left, right)
	if err != nil {
		t.Fatalf("HashDistance() error = %v", err)
	}
	if dist < 32 {
		t.Errorf("HashDistance(left, flipped) = %d, want >= 32 for inverted scenes", dist)
	}
}

func TestHashDistance_Malformed(t *testing.T) {
	if _, err := media.HashDistance("not-hex", "00000000000000ff"); err == nil {
		t.Error("HashDistance() with malformed input: want error")
	}
}

func TestHashDistance_KnownValues(t *testing.T) {
	dist, err := media.HashDistance("0000000000000000", "00000000000000ff")
	if err != nil {
		t.Fatalf("HashDistance() error = %v", err)
	}
	if dist != 8 {
		t.Errorf("HashDistance() = %d, want 8", dist)
	}
}

func TestDuplicateDetector(t *testing.T) {
	detector := media.DuplicateDetector{Threshold: 5}

	if !detector.IsDuplicate("0000000000000000", "0000000000000000") {
		t.Error("identical hashes should be duplicates")
	}
	if !detector.IsDuplicate("0000000000000000", "000000000000001f") {
		t.Error("distance 5 is within the threshold")
	}
	if detector.IsDuplicate("0000000000000000", "000000000000003f") {
		t.Error("distance 6 is past the threshold")
	}
	if detector.IsDuplicate("garbage", "0000000000000000") {
		t.Error("malformed hashes are never duplicates")
	}
}
