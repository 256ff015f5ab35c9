package media

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"
)

// asciiTags are copied verbatim into Meta.Extra when present.
var asciiTags = []exif.FieldName{
	exif.DateTime,
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.Copyright,
	exif.Artist,
}

// ratioTags are recorded via their EXIF string form.
var ratioTags = []exif.FieldName{
	exif.ExposureTime,
	exif.FNumber,
	exif.ISOSpeedRatings,
	exif.FocalLength,
}

// extractEXIF pulls the constrained tag set out of an encoded image. GPS
// coordinates are always summarized into the GPSPresent flag; the raw values
// are copied into Extra only when privacy stripping is disabled. Images
// without EXIF data return an empty Meta rather than an error.
func extractEXIF(data []byte, stripGPS bool) Meta {
	meta := Meta{Extra: map[string]string{}}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Meta{}
	}

	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil {
			meta.CameraMake = v
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			meta.CameraModel = v
		}
	}
	if taken, err := x.DateTime(); err == nil {
		meta.TakenAt = taken.UTC().Format("2006-01-02T15:04:05Z")
	}

	for _, name := range asciiTags {
		if tag, err := x.Get(name); err == nil {
			if v, err := tag.StringVal(); err == nil && v != "" {
				meta.Extra[string(name)] = v
			}
		}
	}
	for _, name := range ratioTags {
		if tag, err := x.Get(name); err == nil {
			meta.Extra[string(name)] = tag.String()
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Extra[string(exif.Orientation)] = fmt.Sprintf("%d", v)
		}
	}

	if lat, long, err := x.LatLong(); err == nil {
		meta.GPSPresent = true
		if !stripGPS {
			meta.Extra["GPSLatitude"] = fmt.Sprintf("%.6f", lat)
			meta.Extra["GPSLongitude"] = fmt.Sprintf("%.6f", long)
		}
	}

	if len(meta.Extra) == 0 {
		meta.Extra = nil
	}
	return meta
}
