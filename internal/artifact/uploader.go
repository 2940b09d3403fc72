// Package artifact uploads rendered files to S3-compatible object storage.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/vk/patterngridgo/internal/ctxlog"
)

// Config describes the bucket an uploader writes to. Endpoint is optional
// and points the client at a local S3 stand-in instead of AWS.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// objectPutter is the slice of the S3 client the uploader needs.
type objectPutter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Uploader writes artifacts to a single bucket.
type Uploader struct {
	cfg    Config
	client objectPutter
}

// NewUploader builds an uploader from config. The session is created once
// and reused for every upload.
func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("artifact upload requires a bucket name")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		// Local S3 stand-ins do not resolve bucket subdomains.
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return &Uploader{cfg: cfg, client: s3.New(sess)}, nil
}

// Upload writes body under key and returns the object's s3:// location.
func (u *Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fullKey := key
	if u.cfg.Prefix != "" {
		fullKey = strings.TrimSuffix(u.cfg.Prefix, "/") + "/" + key
	}

	logger.Info("Uploading artifact to S3.",
		"bucket", u.cfg.Bucket,
		"key", fullKey,
		"size", len(body),
		"content_type", contentType)

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(fullKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact to bucket '%s': %w", u.cfg.Bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", u.cfg.Bucket, fullKey)
	logger.Info("Artifact upload complete.", "location", location)
	return location, nil
}
