// Package storage uploads and deletes media assets on the object store.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrUnavailable indicates the media store is not configured or is
	// refusing requests while its circuit is open.
	ErrUnavailable = errors.New("media store unavailable")
	// ErrEmptyKey indicates an upload or delete without an object key.
	ErrEmptyKey = errors.New("empty object key")
)

// MediaStore holds uploaded videos, thumbnails and profile images.
type MediaStore interface {
	// Upload stores r under key and returns the public reference.
	Upload(ctx context.Context, key, contentType string, r io.Reader) (models.Media, error)
	// Delete removes the object whose StorageID is storageID.
	Delete(ctx context.Context, storageID string) error
}
