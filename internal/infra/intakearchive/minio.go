package intakearchive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carebridge/care-backend/internal/domain/intake"
)

// ObjectStorage archives submitted audio in an S3-compatible bucket so an
// operator can review what the pipeline was given.
type ObjectStorage struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewObjectStorage constructs the archive adapter.
func NewObjectStorage(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*ObjectStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return &ObjectStorage{client: client, bucket: bucket, logger: logger.With("component", "intake.archive")}, nil
}

func (s *ObjectStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Store implements intake.AudioArchiver.
func (s *ObjectStorage) Store(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	key := "intake/" + uuid.NewString() + "-" + path.Base(filename)
	reader := bytes.NewReader(data)
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		DisableMultipart: len(data) < 5*1024*1024,
	}); err != nil {
		return "", err
	}
	return key, nil
}

func sanitizeEndpoint(endpoint string) string {
	clean := strings.TrimSpace(endpoint)
	clean = strings.TrimPrefix(clean, "https://")
	clean = strings.TrimPrefix(clean, "http://")
	return strings.TrimSuffix(clean, "/")
}

var _ intake.AudioArchiver = (*ObjectStorage)(nil)
