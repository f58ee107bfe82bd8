package storage

import (
	"context"
	"io"
)

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Size        int64
	ContentType string
}

// BlobStore is named binary storage with streamed writes and ranged streamed
// reads. When several blobs share a name, reads resolve to the most recently
// uploaded one. Missing blobs surface as utils.ErrNotFound.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, metadata map[string]string, r io.Reader) (int64, error)
	Stat(ctx context.Context, name string) (BlobInfo, error)
	OpenRange(ctx context.Context, name string, start, length int64) (io.ReadCloser, error)
}
