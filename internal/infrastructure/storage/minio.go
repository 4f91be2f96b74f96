package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
)

// archivePrefix groups purged call requests by day
const archivePrefix = "call-requests"

// MinIOClient wraps MinIO operations
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the archive bucket when missing; archives stay private
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// UploadFile uploads an object to MinIO
func (m *MinIOClient) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// Archive writes the given requests as one JSON document and returns its object name
func (m *MinIOClient) Archive(ctx context.Context, reqs []*entities.CallRequest, at time.Time) (string, error) {
	payload, err := json.Marshal(reqs)
	if err != nil {
		return "", fmt.Errorf("failed to encode archive: %w", err)
	}

	objectName := ArchiveObjectName(at)
	if err := m.UploadFile(ctx, objectName, bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return "", err
	}
	return objectName, nil
}

// ArchiveObjectName returns call-requests/YYYY/MM/DD/purge-<epoch ms>.json
func ArchiveObjectName(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s/%s/purge-%d.json", archivePrefix, at.Format("2006/01/02"), at.UnixMilli())
}
