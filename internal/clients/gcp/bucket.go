package gcp

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type BucketConfig struct {
	Name        string
	CDNDomain   string
	Credentials string
}

// Bucket writes objects to one GCS bucket.
type Bucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    BucketConfig
}

func NewBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*Bucket, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing bucket name")
	}
	opts := ClientOptions(cfg.Credentials)
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Bucket{log: log.With("service", "Bucket", "bucket", cfg.Name), client: client, cfg: cfg}, nil
}

func (b *Bucket) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.cfg.Name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	b.log.Debug("Uploaded object", "key", key)
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	if b.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cfg.CDNDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.cfg.Name, key)
}

func (b *Bucket) Close() error { return b.client.Close() }
