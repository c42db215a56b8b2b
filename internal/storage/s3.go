// Package storage uploads record attachments to S3 and hands back durable
// URLs; only the URL string is stored on the record.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "health-vault-server/internal/config"
)

// Uploader stores attachment blobs in an S3 bucket.
type Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewUploader creates an Uploader from config using the default AWS
// credential chain. Returns nil without error when no bucket is configured,
// which disables attachment uploads.
func NewUploader(ctx context.Context, cfg appconfig.StorageConfig) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &Uploader{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload writes the object and returns its durable URL.
func (u *Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("uploading attachment: %w", err)
	}
	return u.publicURL + "/" + key, nil
}
