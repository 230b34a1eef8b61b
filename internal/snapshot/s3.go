// Package snapshot exports the host board as a JSON document to
// S3-compatible storage (AWS S3, MinIO).
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/models"
)

// DocumentVersion is bumped when Document changes shape
const DocumentVersion = 1

var (
	// ErrNoBucket is returned when no bucket is configured
	ErrNoBucket = errors.New("snapshot bucket is not configured")
	// ErrBucketNotFound is returned when the bucket does not exist
	ErrBucketNotFound = errors.New("snapshot bucket not found")
)

// PutObjectAPI is the slice of the S3 client the exporter needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is what gets written to the bucket
type Document struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	Board      models.Board `json:"board"`
}

// NewS3Client initializes an S3 client from cfg. An empty endpoint uses AWS;
// anything else (MinIO, localstack) is used as the base endpoint.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	if cfg.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid S3 endpoint: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Exporter writes board snapshots to one bucket key
type Exporter struct {
	api    PutObjectAPI
	bucket string
	key    string
	now    func() time.Time
}

// NewExporter returns an exporter writing to bucket/key
func NewExporter(api PutObjectAPI, bucket, key string) *Exporter {
	if key == "" {
		key = "board.json"
	}
	return &Exporter{api: api, bucket: bucket, key: key, now: time.Now}
}

// Location returns s3://bucket/key
func (e *Exporter) Location() string {
	return fmt.Sprintf("s3://%s/%s", e.bucket, e.key)
}

// Export uploads b and returns the number of bytes written
func (e *Exporter) Export(ctx context.Context, b models.Board) (int, error) {
	if e.bucket == "" {
		return 0, ErrNoBucket
	}

	data, err := json.MarshalIndent(Document{
		Version:    DocumentVersion,
		ExportedAt: e.now().UTC(),
		Board:      b,
	}, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("error encoding board json: %w", err)
	}

	_, err = e.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(e.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchBucket" || apiErr.ErrorCode() == "NotFound") {
			return 0, fmt.Errorf("%w: %s", ErrBucketNotFound, e.bucket)
		}
		return 0, fmt.Errorf("error saving board to S3: %w", err)
	}
	return len(data), nil
}
