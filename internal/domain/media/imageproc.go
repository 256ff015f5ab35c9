package media

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	// Decoders for the allowed image formats beyond what imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/infrastructure/storage"
)

// Artifact is one encoded blob staged in memory, ready for upload. Variants
// carry the suffix their storage key derives from.
type Artifact struct {
	Suffix      string
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// ImageResult is everything Process stages for one image: oriented
// dimensions, metadata, perceptual hash and all encoded variants. Nothing is
// uploaded here; the service owns the save-then-ledger sequencing.
type ImageResult struct {
	Width     int
	Height    int
	Hash      string
	Meta      Meta
	Thumbnail Artifact
	Medium    *Artifact
	Large     *Artifact
}

// ImageProcessor turns one decoded image into its staged variant set.
type ImageProcessor struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewImageProcessor(cfg *config.Config, log zerolog.Logger) *ImageProcessor {
	return &ImageProcessor{
		cfg: cfg,
		log: log.With().Str("component", "image-processor").Logger(),
	}
}

// Process decodes, orients, hashes and resizes one image.
func (p *ImageProcessor) Process(data []byte) (*ImageResult, error) {
	// Orientation correction must precede every resize and crop, otherwise
	// the variants inherit the rotated geometry.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ProcessingError{Stage: "decode", Err: err}
	}

	bounds := img.Bounds()
	result := &ImageResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Meta:   extractEXIF(data, p.cfg.StripGPSMetadata),
		Hash:   AverageHash(img),
	}

	flat := flattenOnWhite(img)

	thumb := imaging.Fill(flat, p.cfg.ThumbnailSize, p.cfg.ThumbnailSize, imaging.Center, imaging.Lanczos)
	thumbData, err := encodeJPEG(thumb, p.cfg.ThumbnailQuality)
	if err != nil {
		return nil, &ProcessingError{Stage: "thumbnail", Err: err}
	}
	result.Thumbnail = Artifact{
		Suffix:      storage.SuffixThumb,
		Data:        thumbData,
		ContentType: "image/jpeg",
		Width:       p.cfg.ThumbnailSize,
		Height:      p.cfg.ThumbnailSize,
	}

	// Medium and large exist only when the source exceeds their bounding
	// box; variants never upscale.
	if result.Width > p.cfg.MediumSize || result.Height > p.cfg.MediumSize {
		medium, err := p.boxedVariant(flat, storage.SuffixMedium, p.cfg.MediumSize, p.cfg.MediumQuality)
		if err != nil {
			return nil, err
		}
		result.Medium = medium
	}
	if result.Width > p.cfg.LargeSize || result.Height > p.cfg.LargeSize {
		large, err := p.boxedVariant(flat, storage.SuffixLarge, p.cfg.LargeSize, p.cfg.LargeQuality)
		if err != nil {
			return nil, err
		}
		result.Large = large
	}

	return result, nil
}

func (p *ImageProcessor) boxedVariant(img image.Image, suffix string, box, quality int) (*Artifact, error) {
	resized := imaging.Fit(img, box, box, imaging.Lanczos)
	data, err := encodeJPEG(resized, quality)
	if err != nil {
		return nil, &ProcessingError{Stage: "resize" + suffix, Err: err}
	}
	b := resized.Bounds()
	return &Artifact{
		Suffix:      suffix,
		Data:        data,
		ContentType: "image/jpeg",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// flattenOnWhite composites transparent or paletted images onto a white
// background so JPEG encoding does not turn transparency black.
func flattenOnWhite(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
