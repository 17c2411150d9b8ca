package core

import (
	"context"
	"io"
)

// FileStore is any service that can persist uploaded files and serve them back by URL.
type FileStore interface {
	// Save stores the content under a new unique name derived from filename
	// and returns the public URL.
	Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}
