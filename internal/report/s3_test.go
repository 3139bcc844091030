package report

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"parley/internal/config"
)

type capturingS3 struct {
	bucket string
	key    string
	body   []byte
}

func (c *capturingS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.bucket = *params.Bucket
	c.key = *params.Key
	c.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploaderPrefixesKey(t *testing.T) {
	client := &capturingS3{}
	u := &S3Uploader{bucket: "results", prefix: "runs/2026"}
	u.WithClient(client)

	if err := u.Upload(context.Background(), "meeting_final_output.json", []byte(`{}`)); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if client.bucket != "results" {
		t.Fatalf("unexpected bucket: %q", client.bucket)
	}
	if client.key != "runs/2026/meeting_final_output.json" {
		t.Fatalf("unexpected key: %q", client.key)
	}
	if string(client.body) != "{}" {
		t.Fatalf("unexpected body: %q", client.body)
	}
}

func TestNewS3UploaderDisabled(t *testing.T) {
	u, err := NewS3Uploader(config.S3Publish{Enabled: false})
	if err != nil {
		t.Fatalf("disabled uploader returned error: %v", err)
	}
	if u != nil {
		t.Fatal("expected nil uploader when disabled")
	}
}

func TestNewS3UploaderRequiresBucket(t *testing.T) {
	if _, err := NewS3Uploader(config.S3Publish{Enabled: true}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
