package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/redevc/audio-service/internal/utils"
)

// GridFSStore keeps blobs in a GridFS bucket of the application database, so
// artifacts live next to the session/asset records without extra
// infrastructure.
type GridFSStore struct {
	bucket *gridfs.Bucket
	files  *mongo.Collection
}

func NewGridFSStore(db *mongo.Database, bucketName string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %q: %w", bucketName, err)
	}
	return &GridFSStore{
		bucket: bucket,
		files:  db.Collection(bucketName + ".files"),
	}, nil
}

func (s *GridFSStore) Upload(ctx context.Context, name, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	meta := bson.M{"contentType": contentType}
	for k, v := range metadata {
		meta[k] = v
	}

	// bucket streams take no context; the driver propagates deadlines
	// through the bucket itself
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(deadline)
	}

	stream, err := s.bucket.OpenUploadStream(name, options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return 0, fmt.Errorf("open upload stream: %w", err)
	}

	n, err := io.Copy(stream, r)
	if err != nil {
		_ = stream.Abort()
		return 0, fmt.Errorf("write blob %q: %w", name, err)
	}
	if err := stream.Close(); err != nil {
		return 0, fmt.Errorf("finish blob %q: %w", name, err)
	}
	return n, nil
}

func (s *GridFSStore) Stat(ctx context.Context, name string) (BlobInfo, error) {
	var file struct {
		Length   int64 `bson:"length"`
		Metadata struct {
			ContentType string `bson:"contentType"`
		} `bson:"metadata"`
	}

	err := s.files.FindOne(ctx,
		bson.M{"filename": name},
		options.FindOne().SetSort(bson.D{{Key: "uploadDate", Value: -1}}),
	).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return BlobInfo{}, utils.ErrNotFound
	}
	if err != nil {
		return BlobInfo{}, err
	}
	return BlobInfo{Size: file.Length, ContentType: file.Metadata.ContentType}, nil
}

func (s *GridFSStore) OpenRange(ctx context.Context, name string, start, length int64) (io.ReadCloser, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(deadline)
	}

	// revision -1 picks the latest upload when names collide
	stream, err := s.bucket.OpenDownloadStreamByName(name, options.GridFSName().SetRevision(-1))
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	if start > 0 {
		if _, err := stream.Skip(start); err != nil {
			_ = stream.Close()
			return nil, fmt.Errorf("seek blob %q to %d: %w", name, start, err)
		}
	}

	return &limitedStream{Reader: io.LimitReader(stream, length), close: stream.Close}, nil
}

type limitedStream struct {
	io.Reader
	close func() error
}

func (l *limitedStream) Close() error { return l.close() }
