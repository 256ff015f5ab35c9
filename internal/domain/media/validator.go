package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/propside/media-service/internal/config"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".webm": true, ".m4v": true,
}

var imageContentTypes = map[string]bool{
	"image/jpeg": true, "image/png": true, "image/gif": true,
	"image/webp": true, "image/bmp": true, "image/tiff": true,
}

var videoContentTypes = map[string]bool{
	"video/mp4": true, "video/quicktime": true, "video/x-msvideo": true,
	"video/x-matroska": true, "video/webm": true, "video/x-m4v": true,
}

// Validator gatekeeps uploads before any processing or I/O. All methods are
// pure; failures carry user-facing reason strings.
type Validator struct {
	cfg *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate classifies the upload and checks extension, declared content type
// and size ceiling. entityField selects field-specific ceilings (an avatar
// has a tighter one than a gallery video).
func (v *Validator) Validate(filename string, size int64, contentType, entityField string) (MediaType, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	var mediaType MediaType
	switch {
	case imageExtensions[ext]:
		mediaType = TypeImage
		if !imageContentTypes[contentType] {
			return "", validationErrorf("content type %q is not an allowed image type", contentType)
		}
	case videoExtensions[ext]:
		mediaType = TypeVideo
		if !videoContentTypes[contentType] {
			return "", validationErrorf("content type %q is not an allowed video type", contentType)
		}
	default:
		return "", validationErrorf("file extension %q is not supported", ext)
	}

	if size <= 0 {
		return "", validationErrorf("file is empty")
	}

	limit := v.sizeLimit(mediaType, entityField)
	if size > limit {
		return "", validationErrorf("file size %s exceeds the %s limit of %s",
			humanBytes(size), limitName(mediaType, entityField), humanBytes(limit))
	}

	return mediaType, nil
}

// ValidateDimensions bounds decoded pixel dimensions. It runs after decode
// because declared byte size cannot catch pixel-bomb files.
func (v *Validator) ValidateDimensions(width, height int) error {
	if width < v.cfg.MinDimension || height < v.cfg.MinDimension {
		return validationErrorf("image %dx%d is below the minimum of %dx%d",
			width, height, v.cfg.MinDimension, v.cfg.MinDimension)
	}
	if width > v.cfg.MaxDimension || height > v.cfg.MaxDimension {
		return validationErrorf("image %dx%d exceeds the maximum of %dx%d",
			width, height, v.cfg.MaxDimension, v.cfg.MaxDimension)
	}
	return nil
}

func (v *Validator) sizeLimit(mediaType MediaType, entityField string) int64 {
	if entityField == "avatar" {
		return v.cfg.MaxAvatarBytes
	}
	if mediaType == TypeVideo {
		return v.cfg.MaxVideoBytes
	}
	return v.cfg.MaxImageBytes
}

func limitName(mediaType MediaType, entityField string) string {
	if entityField == "avatar" {
		return "avatar"
	}
	if mediaType == TypeVideo {
		return "video"
	}
	return "image"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
