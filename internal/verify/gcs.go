package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// ObjectStore is the part of a bucket the GCS verifier needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	PublicURL(key string) string
}

// GCSVerifier publishes a provenance bundle per module and returns its URL.
type GCSVerifier struct {
	log    *logger.Logger
	bucket ObjectStore
	prefix string
	now    func() time.Time
}

func NewGCSVerifier(log *logger.Logger, bucket ObjectStore, prefix string) *GCSVerifier {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "court-deployments"
	}
	return &GCSVerifier{log: log.With("service", "GCSVerifier"), bucket: bucket, prefix: prefix, now: time.Now}
}

func (v *GCSVerifier) Verify(ctx context.Context, req deploy.VerifyRequest) (string, error) {
	if strings.TrimSpace(req.Record.Address) == "" {
		return "", fmt.Errorf("verify %s: record has no address", req.Handle.Kind)
	}
	raw, err := json.MarshalIndent(newBundle(req, v.now()), "", "  ")
	if err != nil {
		return "", err
	}
	key := path.Join(v.prefix, req.Network, string(req.Handle.Kind)+".json")
	if err := v.bucket.Upload(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("upload verification bundle: %w", err)
	}
	url := v.bucket.PublicURL(key)
	v.log.Info("Published verification bundle", "module", req.Handle.Kind, "url", url)
	return url, nil
}
