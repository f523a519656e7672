package minio

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Options configures the object storage connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Mirror implements repository.ArchiveMirror by copying archives to a bucket.
type Mirror struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewClient connects to the object storage endpoint.
func NewClient(opts Options) (*minio.Client, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return client, nil
}

// NewMirror creates a mirror writing to bucket.
func NewMirror(client *minio.Client, bucket string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{client: client, bucket: bucket, logger: logger}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	m.logger.Info("bucket created", zap.String("bucket", m.bucket))
	return nil
}

// ObjectName returns the object key used for an archive.
func ObjectName(project, archiveID string) string {
	return path.Join(project, archiveID+".zip")
}

// Mirror uploads the archive file at zipPath.
func (m *Mirror) Mirror(ctx context.Context, project, archiveID, zipPath string) error {
	object := ObjectName(project, archiveID)
	info, err := m.client.FPutObject(ctx, m.bucket, object, zipPath, minio.PutObjectOptions{
		ContentType: "application/zip",
		UserMetadata: map[string]string{
			"project":    project,
			"archive-id": archiveID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", object, err)
	}
	m.logger.Info("archive mirrored",
		zap.String("bucket", m.bucket),
		zap.String("object", object),
		zap.Int64("size", info.Size),
	)
	return nil
}
