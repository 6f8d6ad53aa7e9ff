// Package storage puts client logos and report attachments into object
// storage: S3 (or anything speaking its API), GCS, or memory.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hugh/go-crm/pkg/config"
)

// Storage stores objects by key and returns where they can be fetched.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (location string, err error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend named by cfg.Provider. An empty provider selects the
// in-memory store, which loses everything on restart.
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3(ctx, cfg)
	case "gcs":
		return NewGCS(ctx, cfg)
	case "":
		logger.Warn("no STORAGE_PROVIDER configured, uploads are kept in memory")
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

const maxNameLength = 100

// ObjectKey names an upload: <unix-ms>-File-<sanitized original name>.
func ObjectKey(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-File-%s", now.UnixMilli(), sanitizeName(originalName))
}

func sanitizeName(name string) string {
	// Browsers on Windows may send the full client path.
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)),
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	if len(out) > maxNameLength {
		ext := filepath.Ext(out)
		if len(ext) > 10 {
			ext = ""
		}
		out = out[:maxNameLength-len(ext)] + ext
	}
	return out
}

// DeleteAll removes keys best-effort. It is used to drop uploads whose
// database write failed; errors are logged, not returned.
func DeleteAll(ctx context.Context, s Storage, logger *slog.Logger, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			logger.Warn("failed to delete orphaned upload", "key", key, "error", err)
		}
	}
}
