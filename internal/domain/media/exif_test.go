package media_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propside/media-service/internal/domain/media"
)

// exifJPEG splices a minimal APP1 segment into an encoded JPEG. The TIFF
// payload carries an orientation tag and, when gps is set, a GPS IFD placing
// the shot at 37.775 N, 122.416667 E.
func exifJPEG(t *testing.T, w, h, orientation int, gps bool) []byte {
	t.Helper()

	payload := append([]byte("Exif\x00\x00"), buildTIFF(orientation, gps)...)

	var app1 bytes.Buffer
	app1.Write([]byte{0xFF, 0xE1})
	require.NoError(t, binary.Write(&app1, binary.BigEndian, uint16(len(payload)+2)))
	app1.Write(payload)

	plain := jpegBytes(t, w, h)
	out := make([]byte, 0, len(plain)+app1.Len())
	out = append(out, plain[:2]...) // SOI marker
	out = append(out, app1.Bytes()...)
	out = append(out, plain[2:]...)
	return out
}

func buildTIFF(orientation int, gps bool) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer

	u16 := func(v uint16) { binary.Write(&buf, le, v) }
	u32 := func(v uint32) { binary.Write(&buf, le, v) }
	entry := func(tag, typ uint16, count uint32, value []byte) {
		u16(tag)
		u16(typ)
		u32(count)
		buf.Write(value)
	}
	short := func(v uint16) []byte { b := make([]byte, 4); le.PutUint16(b, v); return b }
	long := func(v uint32) []byte { b := make([]byte, 4); le.PutUint32(b, v); return b }
	rational := func(num, den uint32) {
		u32(num)
		u32(den)
	}

	buf.WriteString("II")
	u16(0x2A)
	u32(8) // IFD0 offset

	if !gps {
		u16(1)
		entry(0x0112, 3, 1, short(uint16(orientation))) // Orientation
		u32(0)
		return buf.Bytes()
	}

	const gpsIFD = 38
	u16(2)
	entry(0x0112, 3, 1, short(uint16(orientation)))
	entry(0x8825, 4, 1, long(gpsIFD)) // GPSInfoIFDPointer
	u32(0)

	// GPS IFD: the refs fit inline, the coordinate rationals follow the IFD.
	const latOffset, longOffset = gpsIFD + 54, gpsIFD + 54 + 24
	u16(4)
	entry(0x0001, 2, 2, []byte{'N', 0, 0, 0}) // GPSLatitudeRef
	entry(0x0002, 5, 3, long(latOffset))      // GPSLatitude
	entry(0x0003, 2, 2, []byte{'E', 0, 0, 0}) // GPSLongitudeRef
	entry(0x0004, 5, 3, long(longOffset))     // GPSLongitude
	u32(0)

	rational(37, 1) // 37 deg 46' 30.00" = 37.775
	rational(46, 1)
	rational(3000, 100)
	rational(122, 1) // 122 deg 25' 0" = 122.416667
	rational(25, 1)
	rational(0, 1)

	return buf.Bytes()
}

func TestImageProcessor_OrientationSwapsDimensions(t *testing.T) {
	p := media.NewImageProcessor(testConfig(), zerolog.Nop())

	// Orientation 6 means rotate 90 degrees clockwise, so a landscape
	// capture is really a portrait shot.
	result, err := p.Process(exifJPEG(t, 400, 300, 6, false))
	require.NoError(t, err)

	assert.Equal(t, 300, result.Width)
	assert.Equal(t, 400, result.Height)
	assert.Equal(t, "6", result.Meta.Extra["Orientation"])
	assert.False(t, result.Meta.GPSPresent)
}

func TestImageProcessor_GPSStripped(t *testing.T) {
	cfg := testConfig()
	cfg.StripGPSMetadata = true
	p := media.NewImageProcessor(cfg, zerolog.Nop())

	result, err := p.Process(exifJPEG(t, 400, 300, 1, true))
	require.NoError(t, err)

	// The flag survives so curation knows location data existed; the
	// coordinates themselves never reach the ledger.
	assert.True(t, result.Meta.GPSPresent)
	assert.NotContains(t, result.Meta.Extra, "GPSLatitude")
	assert.NotContains(t, result.Meta.Extra, "GPSLongitude")
}

func TestImageProcessor_GPSKeptWhenStrippingOff(t *testing.T) {
	cfg := testConfig()
	cfg.StripGPSMetadata = false
	p := media.NewImageProcessor(cfg, zerolog.Nop())

	result, err := p.Process(exifJPEG(t, 400, 300, 1, true))
	require.NoError(t, err)

	assert.True(t, result.Meta.GPSPresent)
	assert.Equal(t, "37.775000", result.Meta.Extra["GPSLatitude"])
	assert.Equal(t, "122.416667", result.Meta.Extra["GPSLongitude"])
}
