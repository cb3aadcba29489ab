// Package archive stores raw scraped article payloads in S3-compatible
// object storage so the pipeline can be replayed without re-scraping.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service wraps a MinIO client bound to a single bucket.
type Service struct {
	client *minio.Client
	bucket string
}

// Config holds object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New connects to object storage; it does not touch the bucket yet.
func New(config *Config) (*Service, error) {
	if config.Endpoint == "" || config.Bucket == "" {
		return nil, fmt.Errorf("archive endpoint and bucket are required")
	}
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object storage: %w", err)
	}
	return &Service{client: client, bucket: config.Bucket}, nil
}

// EnsureBucket creates the bucket when absent.
func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %v: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %v: %w", s.bucket, err)
	}
	log.Printf("created archive bucket %v", s.bucket)
	return nil
}

// Store writes an object under the supplied key.
func (s *Service) Store(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to store %v: %w", key, err)
	}
	return nil
}
