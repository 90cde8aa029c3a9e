package storage

import (
	"context"
	"errors"
	"io"
)

var ErrFileNotFound = errors.New("file not found")

// ImageStore keeps uploaded item images and turns storage keys into URLs.
type ImageStore interface {
	// Save writes the content under key and returns the number of bytes stored.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns ErrFileNotFound when nothing is stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is stored and its size.
	Exists(ctx context.Context, key string) (bool, int64, error)

	Delete(ctx context.Context, key string) error

	// URL is the public address clients use to fetch the key.
	URL(key string) string
}
