package server

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// BlobStore persists raw file bytes under collision-resistant stored
// names. Like ShareStore it is an interface so tests can run against an
// in-memory fake instead of MinIO.
type BlobStore interface {
	// Put streams r into the store under name.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error

	// Get opens the blob for reading. The caller must Close it.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Stat reports whether the blob exists and its size. A missing blob
	// is (0, false, nil), not an error: records may outlive their blobs.
	Stat(ctx context.Context, name string) (size int64, exists bool, err error)
}

// minioBlobStore backs BlobStore with a MinIO/S3 bucket.
type minioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore wraps a MinIO client and bucket in a BlobStore.
func NewMinioBlobStore(client *minio.Client, bucket string) BlobStore {
	return &minioBlobStore{client: client, bucket: bucket}
}

func (m *minioBlobStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, name, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *minioBlobStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat forces an early error for missing objects
	// instead of failing on the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (m *minioBlobStore) Stat(ctx context.Context, name string) (int64, bool, error) {
	info, err := m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return 0, false, nil
		}
		return 0, false, err
	}
	return info.Size, true, nil
}
