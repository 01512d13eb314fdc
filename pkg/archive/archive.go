package archive

import (
	"context"
	"fmt"
	"io"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/util"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver 将导出的活动日志批次写入冷存储，返回对象位置
type Archiver interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
}

// LocalArchiver 本地目录实现
type LocalArchiver struct {
	Root string
}

func (a *LocalArchiver) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(a.Root, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return dst, nil
}

// MinioArchiver MinIO 实现
type MinioArchiver struct {
	Bucket string
	Client *minio.Client
}

func NewMinioArchiver(cfg *config.StorageConfig) (*MinioArchiver, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArchiver{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (a *MinioArchiver) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := a.Client.PutObject(ctx, a.Bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return "/" + a.Bucket + "/" + name, nil
}

func New(cfg *config.StorageConfig) (Archiver, error) {
	switch cfg.Type {
	case util.StorageMinio:
		return NewMinioArchiver(cfg)
	case util.StorageLocal, "":
		return &LocalArchiver{Root: cfg.LocalPath}, nil
	default:
		return nil, fmt.Errorf("unsupported archive storage type %q", cfg.Type)
	}
}
