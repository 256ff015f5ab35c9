package media

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/disintegration/imaging"
)

const hashSide = 8

// AverageHash computes the 64-bit average perceptual hash of an image and
// returns it as a 16-character hex string. The image is reduced to an 8x8
// grayscale grid; each bit records whether that cell is brighter than the
// grid mean.
func AverageHash(img image.Image) string {
	small := imaging.Resize(imaging.Grayscale(img), hashSide, hashSide, imaging.Lanczos)

	var pixels [hashSide * hashSide]uint32
	var sum uint64
	for y := 0; y < hashSide; y++ {
		for x := 0; x < hashSide; x++ {
			r, _, _, _ := small.At(x, y).RGBA()
			pixels[y*hashSide+x] = r
			sum += uint64(r)
		}
	}
	mean := uint32(sum / uint64(len(pixels)))

	var hash uint64
	for i, p := range pixels {
		if p > mean {
			hash |= 1 << uint(63-i)
		}
	}
	return fmt.Sprintf("%016x", hash)
}

// HashDistance returns the Hamming distance between two average-hash hex
// strings.
func HashDistance(h1, h2 string) (int, error) {
	a, err := strconv.ParseUint(h1, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed image hash %q: %w", h1, err)
	}
	b, err := strconv.ParseUint(h2, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed image hash %q: %w", h2, err)
	}
	return bits.OnesCount64(a ^ b), nil
}

// DuplicateDetector compares perceptual hashes for visual similarity. It is
// advisory tooling for curation flows; ingest never auto-rejects on it.
type DuplicateDetector struct {
	Threshold int
}

// IsDuplicate reports whether two hashes are within the similarity
// threshold. Malformed hashes are never duplicates.
func (d DuplicateDetector) IsDuplicate(h1, h2 string) bool {
	dist, err := HashDistance(h1, h2)
	if err != nil {
		return false
	}
	return dist <= d.Threshold
}
