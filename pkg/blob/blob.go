package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store persists opaque objects under slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config selects and configures the backend.
type Config struct {
	Driver string `env:"BLOB_DRIVER" envDefault:"local"` // s3, local or none

	LocalDir string `env:"BLOB_LOCAL_DIR" envDefault:"tmp/blobs"`

	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	S3Prefix         string `env:"S3_PREFIX"`
}

// New returns the backend named by cfg.Driver. The "none" driver returns a nil
// Store, which callers treat as archiving disabled.
func New(ctx context.Context, cfg Config, opts ...S3Option) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		s, err := NewS3(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local", "":
		l, err := NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
}

// cleanKey rejects keys that could escape the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Clean(key), nil
}
