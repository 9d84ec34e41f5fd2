package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"gallery-watermark/internal/config"
	repoImage "gallery-watermark/internal/repository/image"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

// FileRepository publishes processed outputs to an S3 compatible bucket.
type FileRepository struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zlog.Zerolog
}

func NewMinIORepository(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIO.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check bucket %s: %v", repoImage.ErrStorageError, cfg.MinIO.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIO.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: failed to create bucket %s: %v", repoImage.ErrStorageError, cfg.MinIO.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.MinIO.Bucket).Msg("Bucket created")
	}

	return &FileRepository{
		client: client,
		bucket: cfg.MinIO.Bucket,
		prefix: cfg.MinIO.Prefix,
		logger: logger,
	}, nil
}

func (r *FileRepository) SaveProcessed(ctx context.Context, localPath string, data io.Reader, size int64, contentType string) error {
	key := ObjectKey(r.prefix, localPath)

	info, err := r.client.PutObject(ctx, r.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload %s: %v", repoImage.ErrStorageError, key, err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("key", key).
		Int64("size", info.Size).
		Msg("Object uploaded")

	return nil
}

// ObjectKey maps a local output path to "<prefix>/<dir>/<file>", keeping the
// output directory name so images and thumbnails stay apart.
func ObjectKey(prefix, localPath string) string {
	dir := filepath.Base(filepath.Dir(localPath))
	name := filepath.Base(localPath)
	return strings.TrimPrefix(path.Join(prefix, dir, name), "/")
}
