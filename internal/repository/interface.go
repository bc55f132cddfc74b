package repository

import (
	"context"
	"io"
)

type ObjectReader struct {
	Container   string
	Path        string
	ContentType string
	Content     io.Reader
}

// Storage is a container scoped object store. Upload overwrites
// unconditionally, DeleteIfExists reports false when nothing was removed.
type Storage interface {
	CreateContainerIfNotExists(ctx context.Context, container string) error
	Download(ctx context.Context, container, path string) (io.ReadCloser, error)
	Upload(ctx context.Context, object ObjectReader) error
	DeleteIfExists(ctx context.Context, container, path string) (bool, error)
	URL(container, path string) string
}
