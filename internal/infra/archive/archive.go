// Package archive keeps raw webhook payloads in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/finzie/booking-coordinator/internal/config"
)

type PayloadArchiver interface {
	Archive(ctx context.Context, key string, payload []byte) error
}

// objectPutter is the subset of *s3.Client the archiver calls.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3Archiver(cfg *config.Config) *S3Archiver {
	opts := s3.Options{
		Region: cfg.ArchiveRegion,
	}
	if cfg.ArchiveAccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.ArchiveAccessKey, cfg.ArchiveSecretKey, "")
	}
	if cfg.ArchiveEndpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.ArchiveEndpoint)
		opts.UsePathStyle = true
	}

	return &S3Archiver{
		client: s3.New(opts),
		bucket: cfg.ArchiveBucket,
		prefix: "calendly-webhooks",
	}
}

// Key builds the object key for an event received at t, partitioned by day.
func Key(eventUUID string, t time.Time) string {
	t = t.UTC()
	if eventUUID == "" {
		eventUUID = "unknown"
	}
	return fmt.Sprintf("%04d/%02d/%02d/%s-%d.json", t.Year(), t.Month(), t.Day(), eventUUID, t.UnixMilli())
}

func (a *S3Archiver) Archive(ctx context.Context, key string, payload []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.prefix + "/" + key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Nop is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) error { return nil }
