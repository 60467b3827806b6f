package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Fetcher reads model artifacts by object key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// MinioStore fetches artifacts from an S3-compatible bucket (R2, MinIO, S3).
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStore constructs the bucket adapter.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init artifact store client: %w", err)
	}
	return &MinioStore{client: client, bucket: bucket, logger: logger.With("component", "artifacts.minio")}, nil
}

// Fetch opens an object for reading.
func (s *MinioStore) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces missing keys before the caller reads.
	if _, statErr := obj.Stat(); statErr != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat %s/%s: %w", s.bucket, key, statErr)
	}
	s.logger.Info("artifact fetched", "bucket", s.bucket, "key", key)
	return obj, nil
}

var _ Fetcher = (*MinioStore)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
