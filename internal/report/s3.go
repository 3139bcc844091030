package report

import (
	"bytes"
	"context"
	"path"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"parley/internal/config"
	"parley/internal/services"
)

// putObjectAPI is the S3 slice the uploader uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader publishes final documents to an S3 bucket under an optional key
// prefix.
type S3Uploader struct {
	bucket string
	prefix string
	client putObjectAPI
}

// NewS3Uploader builds an uploader from publish configuration. Returns nil
// when S3 publishing is disabled.
func NewS3Uploader(cfg config.S3Publish) (*S3Uploader, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "s3", "bucket required", nil)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "s3", "load aws config", err)
	}

	return &S3Uploader{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		client: s3.NewFromConfig(awsCfg),
	}, nil
}

// WithClient replaces the S3 client (for testing).
func (u *S3Uploader) WithClient(client putObjectAPI) {
	u.client = client
}

// Upload puts the document into the bucket at prefix/name.
func (u *S3Uploader) Upload(ctx context.Context, name string, body []byte) error {
	key := name
	if u.prefix != "" {
		key = path.Join(u.prefix, name)
	}
	contentType := "application/json"
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	return err
}
