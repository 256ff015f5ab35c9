package storage

import (
	"crypto/rand"
	"fmt"
	"path"
	"strings"
	"time"
)

// Variant filename suffixes, inserted before the extension.
const (
	SuffixThumb     = "_thumb"
	SuffixMedium    = "_medium"
	SuffixLarge     = "_large"
	SuffixProcessed = "_processed"
)

// fieldFolders maps semantic entity fields to storage folders. Unknown
// fields pass through unchanged.
var fieldFolders = map[string]string{
	"avatar":      "profile",
	"gallery":     "gallery",
	"cover":       "cover",
	"video_intro": "video",
	"thumbnail":   "thumbnails",
	"amenities":   "amenities",
}

const filenameSuffixLen = 6

// NewFilename generates a collision-resistant blob filename of the form
// {media_type}-{timestamp}-{random6}{ext}.
func NewFilename(mediaType, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s-%d-%s%s", strings.ToLower(mediaType), time.Now().Unix(), randomFileSuffix(), strings.ToLower(ext))
}

// ObjectKey builds the deterministic backend-relative key
// {profile_id}/{field_folder}/{filename}. The profile ID is the owning
// entity's public business ID, so the layout survives surrogate-key
// resequencing.
func ObjectKey(profileID, entityField, filename string) string {
	return path.Join(profileID, FieldFolder(entityField), filename)
}

// FieldFolder resolves the storage folder for a semantic entity field.
func FieldFolder(entityField string) string {
	if folder, ok := fieldFolders[entityField]; ok {
		return folder
	}
	if entityField == "" {
		return "gallery"
	}
	return entityField
}

// VariantKey derives the key of a resized variant by appending the suffix
// before the extension: a/b/img-1-abc.jpg + _thumb -> a/b/img-1-abc_thumb.jpg.
func VariantKey(key, suffix string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + suffix + ext
}

// PosterKey derives the key of a video's poster frame. Posters are JPEG
// regardless of the source container, so the extension is replaced:
// a/b/video-1-abc.mp4 -> a/b/video-1-abc_thumb.jpg.
func PosterKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + SuffixThumb + ".jpg"
}

func randomFileSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, filenameSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		nano := time.Now().UnixNano()
		for i := range buf {
			buf[i] = alphabet[nano%int64(len(alphabet))]
			nano /= 7
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
