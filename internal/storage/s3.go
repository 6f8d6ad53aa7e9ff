package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hugh/go-crm/pkg/config"
)

// S3 stores objects in an S3 bucket. With a custom endpoint it talks to
// MinIO and other S3-compatible services using path-style addressing.
type S3 struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  string
	publicURL string
}

func NewS3(ctx context.Context, cfg *config.StorageConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client:    client,
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		endpoint:  strings.TrimRight(cfg.S3Endpoint, "/"),
		publicURL: cfg.S3PublicURL,
	}, nil
}

func (s *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return s.location(key), nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *S3) location(key string) string {
	escaped := url.PathEscape(key)
	switch {
	case s.publicURL != "":
		return s.publicURL + "/" + escaped
	case s.endpoint != "":
		return s.endpoint + "/" + s.bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}
