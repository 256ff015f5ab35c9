package publicid

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix identifies media public IDs.
	Prefix = "MED"

	suffixLen      = 6
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var idPattern = regexp.MustCompile(`^[A-Z]{2,6}-\d+-[a-z0-9]{6}$`)

// New returns a media public ID of the form MED-<unixts>-<rand6>.
func New() string {
	return NewWithPrefix(Prefix)
}

// NewWithPrefix builds a public ID with a caller-supplied typed prefix,
// e.g. USR-1712345678-k3x9qa for a user profile.
func NewWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(prefix), time.Now().Unix(), randomSuffix())
}

// IsValid reports whether value looks like a typed-prefix public ID.
func IsValid(value string) bool {
	return idPattern.MatchString(value)
}

// Timestamp extracts the embedded creation time from a public ID.
func Timestamp(value string) (time.Time, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed public id %q", value)
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed public id %q: %w", value, err)
	}
	return time.Unix(ts, 0), nil
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a time-derived suffix rather than panicking.
		nano := time.Now().UnixNano()
		for i := range buf {
			buf[i] = suffixAlphabet[nano%int64(len(suffixAlphabet))]
			nano /= 7
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = suffixAlphabet[int(buf[i])%len(suffixAlphabet)]
	}
	return string(buf)
}
