package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"leadflow_backend/platform/config"
)

// PresignedURLTTL is the expiration time for report download URLs.
const PresignedURLTTL = 15 * time.Minute

// Archive stores enrichment reports in S3-compatible object storage so a
// lead's research trail survives re-runs.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive creates a report archive. Returns an error when MinIO is not
// configured.
func NewArchive(cfg config.StorageConfig) (*Archive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Archive{
		client: client,
		bucket: cfg.GetMinioBucketResearchReports(),
	}, nil
}

// EnsureBucket creates the report bucket if it doesn't exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	if a == nil {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Store archives a report under the lead and returns its object key.
func (a *Archive) Store(ctx context.Context, leadID uuid.UUID, report Report) (string, error) {
	if a == nil {
		return "", fmt.Errorf("report archive not configured")
	}

	encoded, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := fmt.Sprintf("%s/%s.json", leadID, time.Now().UTC().Format("20060102T150405"))
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(encoded), int64(len(encoded)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("store report %s: %w", key, err)
	}
	return key, nil
}

// DownloadURL returns a presigned URL for a stored report.
func (a *Archive) DownloadURL(ctx context.Context, key string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("report archive not configured")
	}

	presigned, err := a.client.PresignedGetObject(ctx, a.bucket, key, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presigned.String(), nil
}
