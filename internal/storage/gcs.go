package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcstorage "cloud.google.com/go/storage"
	"github.com/hugh/go-crm/pkg/config"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *gcstorage.Client
	bucket string
}

// NewGCS uses the credentials file when one is configured and application
// default credentials otherwise.
func NewGCS(ctx context.Context, cfg *config.StorageConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.GCSBucket}, nil
}

func (g *GCS) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, url.PathEscape(key)), nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
