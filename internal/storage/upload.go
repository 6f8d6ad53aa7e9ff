package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/hugh/go-crm/internal/apperr"
)

// extensionTypes resolves files sent as application/octet-stream.
var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
}

// allowedTypes is every type in extensionTypes plus the non-standard
// image/jpg some clients send.
var allowedTypes = func() map[string]bool {
	m := map[string]bool{"image/jpg": true}
	for _, ct := range extensionTypes {
		m[ct] = true
	}
	return m
}()

// ValidateUpload checks a multipart file against the type allowlist and the
// size limit, and returns the content type to store it under.
func ValidateUpload(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if fh == nil {
		return "", apperr.New(apperr.Validation, "file is required")
	}
	if fh.Size <= 0 {
		return "", apperr.New(apperr.Validation, fmt.Sprintf("%s is empty", fh.Filename))
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", apperr.New(apperr.Validation,
			fmt.Sprintf("%s exceeds the %d MB upload limit", fh.Filename, maxBytes>>20))
	}

	contentType := detectType(fh)
	if !allowedTypes[contentType] {
		return "", apperr.New(apperr.Validation,
			fmt.Sprintf("%s has an unsupported file type", fh.Filename))
	}
	return contentType, nil
}

func detectType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil && mediaType != "application/octet-stream" {
			return strings.ToLower(mediaType)
		}
	}
	return extensionTypes[strings.ToLower(filepath.Ext(fh.Filename))]
}

// Upload is a validated file ready to be stored.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// OpenUpload validates fh and opens it. The caller closes the returned file.
func OpenUpload(fh *multipart.FileHeader, maxBytes int64) (Upload, multipart.File, error) {
	contentType, err := ValidateUpload(fh, maxBytes)
	if err != nil {
		return Upload{}, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return Upload{}, nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	return Upload{Name: fh.Filename, ContentType: contentType, Size: fh.Size, Body: f}, f, nil
}
