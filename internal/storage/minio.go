// Package storage provides object storage for call recordings.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"businesson_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config is the slice of application config the archive needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCallRecordings() string
}

// RecordingArchive stores call recordings in an S3-compatible bucket.
type RecordingArchive struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// New creates a recording archive. Returns (nil, nil) when no endpoint is
// configured; callers treat a nil archive as "archival disabled".
func New(ctx context.Context, cfg Config, log *logger.Logger) (*RecordingArchive, error) {
	if cfg.GetMinIOEndpoint() == "" {
		log.Info("object storage not configured, recording archival disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	archive := &RecordingArchive{
		client: client,
		bucket: cfg.GetMinioBucketCallRecordings(),
		log:    log,
	}
	if err := archive.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return archive, nil
}

// StoreRecording uploads the audio stream and returns the object key.
func (a *RecordingArchive) StoreRecording(ctx context.Context, callID uuid.UUID, audio io.Reader) (string, error) {
	key := fmt.Sprintf("recordings/%s/%s.mp3", time.Now().UTC().Format("2006/01"), callID)

	// Size -1 streams with multipart upload; recording length is unknown.
	_, err := a.client.PutObject(ctx, a.bucket, key, audio, -1, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store recording: %w", err)
	}

	a.log.Info("recording archived", "call_id", callID, "key", key)
	return key, nil
}

// RecordingURL generates a presigned download link for an archived recording.
func (a *RecordingArchive) RecordingURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign recording url: %w", err)
	}
	return u.String(), nil
}

func (a *RecordingArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	a.log.Info("created recordings bucket", "bucket", a.bucket)
	return nil
}
