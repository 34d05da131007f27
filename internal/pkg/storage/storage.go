// Package storage keeps uploaded image bytes and prepares images for upload
// and display.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Open when nothing is stored at the path.
	ErrNotFound = errors.New("stored file not found")
	// ErrInvalidPath is returned for empty paths and paths that leave the root.
	ErrInvalidPath = errors.New("invalid storage path")
)

// Storage is a blob store addressed by slash-separated relative paths,
// e.g. "images/3f/3f2a....jpg". Implementations must be safe for
// concurrent use.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is a no-op for paths that hold nothing.
	Delete(ctx context.Context, path string) error
}
