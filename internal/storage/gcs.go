package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/redevc/audio-service/internal/utils"
)

// GCSStore serves deployments that keep artifacts in a Cloud Storage bucket
// instead of GridFS. Object names are unique per bucket, so the
// latest-revision rule is trivially satisfied.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Upload(ctx context.Context, name, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("write object %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finish object %q: %w", name, err)
	}
	return n, nil
}

func (s *GCSStore) Stat(ctx context.Context, name string) (BlobInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return BlobInfo{}, utils.ErrNotFound
	}
	if err != nil {
		return BlobInfo{}, err
	}
	return BlobInfo{Size: attrs.Size, ContentType: attrs.ContentType}, nil
}

func (s *GCSStore) OpenRange(ctx context.Context, name string, start, length int64) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewRangeReader(ctx, start, length)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
