package storage

import (
	"context"
	"io"
)

// StorageType names a blob backend in the media ledger.
type StorageType string

const (
	StorageLocal StorageType = "LOCAL"
	StorageS3    StorageType = "S3"
)

// Existence is the tri-state outcome of a blob presence check. Absence is an
// ordinary result, not an error; backend I/O failures map to Unknown so that
// callers never mistake an outage for a deleted blob.
type Existence int

const (
	Unknown Existence = iota
	Found
	NotFound
)

func (e Existence) String() string {
	switch e {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Missing reports a definite absence. Unknown is deliberately not missing:
// during an outage the reconciler must keep metadata rather than orphan them.
func (e Existence) Missing() bool {
	return e == NotFound
}

// SaveResult describes a stored blob: its backend-relative key and the fully
// resolved URL a client can fetch it from.
type SaveResult struct {
	StoragePath string
	AccessURL   string
}

// Backend is the uniform contract over blob storage. Implementations are
// injected instances selected once at process start; nothing reaches for a
// package-level default.
type Backend interface {
	// Save persists data under key. Retrying with identical inputs must not
	// corrupt prior state.
	Save(ctx context.Context, data []byte, key string, contentType string) (SaveResult, error)

	// Open returns the blob contents for reading. A missing blob yields an
	// error wrapping fs.ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob best-effort. Absence of the target is not an
	// error and returns false; I/O failures are logged and also return false.
	Delete(ctx context.Context, key string) bool

	// URL resolves a storage key to a public URL for this backend.
	URL(key string) string

	// Stat reports whether the blob exists.
	Stat(ctx context.Context, key string) Existence

	// Kind identifies the backend in ledger rows.
	Kind() StorageType
}
