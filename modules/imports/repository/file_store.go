package repository

import (
	"bytes"
	"context"

	"github.com/andreypavlenko/crmcore/internal/platform/storage"
	"github.com/andreypavlenko/crmcore/modules/imports/ports"
)

// S3FileStore adapts internal/platform/storage.S3Client to
// ports.FileStore, narrowing the surface to what the import worker
// needs: put the uploaded CSV, open it for streaming reads, delete it
// once the job completes (spec §4.3 step 9).
type S3FileStore struct {
	client *storage.S3Client
}

func NewS3FileStore(client *storage.S3Client) *S3FileStore {
	return &S3FileStore{client: client}
}

func (s *S3FileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return s.client.PutObject(ctx, key, bytes.NewReader(body), contentType)
}

func (s *S3FileStore) Open(ctx context.Context, key string) (ports.ReadCloser, error) {
	return s.client.GetObject(ctx, key)
}

func (s *S3FileStore) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObject(ctx, key)
}
