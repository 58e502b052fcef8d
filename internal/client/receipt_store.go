package client

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// MinIOConfig holds object storage settings
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ReceiptStore keeps payment receipt images in a MinIO bucket.
type ReceiptStore struct {
	client *minio.Client
	bucket string
}

// NewReceiptStore connects to MinIO and makes sure the bucket exists
func NewReceiptStore(ctx context.Context, cfg MinIOConfig) (*ReceiptStore, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &ReceiptStore{client: mc, bucket: cfg.Bucket}, nil
}

// Put uploads a receipt for a salary and returns its descriptor
func (s *ReceiptStore) Put(ctx context.Context, salaryID string, upload *ReceiptUpload) (*salary.ReceiptFile, error) {
	objectName := ReceiptObjectName(salaryID, upload.OriginalName, time.Now())

	_, err := s.client.PutObject(ctx, s.bucket, objectName, upload.Body, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload receipt: %w", err)
	}

	return &salary.ReceiptFile{
		FileName:     filepath.Base(objectName),
		OriginalName: upload.OriginalName,
		FilePath:     objectName,
		FileSize:     upload.Size,
		MimeType:     upload.ContentType,
	}, nil
}

// Remove deletes a stored receipt
func (s *ReceiptStore) Remove(ctx context.Context, filePath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, filePath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove receipt %s: %w", filePath, err)
	}
	return nil
}

// ReceiptUpload is an incoming receipt file
type ReceiptUpload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// ReceiptObjectName builds "receipts/<salary>/<date>/<random><ext>"
func ReceiptObjectName(salaryID, originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("receipts/%s/%s/%s%s", salaryID, now.Format("2006/01/02"), uuid.New().String()[:8], ext)
}

// AllowedReceiptTypes are the accepted receipt MIME types
var AllowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}
