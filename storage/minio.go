package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"libexport/config"
	"libexport/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// exportPrefix 是导出文件在存储桶中的目录
const exportPrefix = "exports"

type objectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioPublisher 把导出完成的 JSON 文件上传到 MinIO
type MinioPublisher struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewMinioPublisher 连接 MinIO，存储桶不存在时创建
func NewMinioPublisher(ctx context.Context, cfg *config.Config) (*MinioPublisher, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created export bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return newPublisher(client, cfg.MinioBucket), nil
}

func newPublisher(client objectPutter, bucket string) *MinioPublisher {
	return &MinioPublisher{client: client, bucket: bucket, now: time.Now}
}

// ObjectName 返回本地文件上传后的对象名，按导出时间分目录
func (p *MinioPublisher) ObjectName(localPath string) string {
	return path.Join(exportPrefix, p.now().UTC().Format("20060102T150405Z"), filepath.Base(localPath))
}

// Publish 上传文件，返回 bucket/object 形式的位置
func (p *MinioPublisher) Publish(ctx context.Context, localPath string) (string, error) {
	object := p.ObjectName(localPath)
	info, err := p.client.FPutObject(ctx, p.bucket, object, localPath, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	logger.Info("export published",
		logger.String("bucket", p.bucket),
		logger.String("object", object),
		logger.Int64("size", info.Size))
	return p.bucket + "/" + object, nil
}
