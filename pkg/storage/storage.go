// Package storage keeps uploaded cover images, either on local disk or in
// an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
)

type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

type Config struct {
	Type string // local|minio

	LocalDir    string
	MediaPrefix string

	Minio MinioConfig
}

// New 按类型创建存储
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.MediaPrefix)
	case "minio":
		return NewMinioStore(cfg.Minio)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
