// Package uploader implements the media-store contract on top of any
// S3-compatible backend (AWS S3, MinIO).
package uploader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Sundram11/backend01/config"
	"github.com/Sundram11/backend01/internal/logging"
)

// ObjectPutter is the slice of the S3 client the uploader uses; tests swap in
// a fake.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	log     logging.Logger
}

func NewS3Uploader(ctx context.Context, cfg *config.Config, log logging.Logger) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		// MinIO and most self-hosted backends require path-style addressing.
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:  client,
		bucket:  cfg.S3Bucket,
		baseURL: strings.TrimRight(cfg.S3Endpoint, "/"),
		log:     log.With("module", "s3_uploader"),
	}, nil
}

// NewS3UploaderWithClient wires a prebuilt client; tests use it.
func NewS3UploaderWithClient(client ObjectPutter, bucket, baseURL string, log logging.Logger) *S3Uploader {
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("module", "s3_uploader"),
	}
}

// Upload pushes the spooled file to the bucket under a fresh key and returns
// its public URL. The local file is removed afterwards, whether or not the
// upload succeeded, so failed requests do not accumulate temp files.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("no file to upload")
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() {
		file.Close()
		if err := os.Remove(localPath); err != nil {
			u.log.Warn(ctx, "failed to remove spooled file", "path", localPath, "error", err)
		}
	}()

	ext := filepath.Ext(localPath)
	key := uuid.New().String() + ext

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, key), nil
}
