// internal/app/system/archive/s3.go
package archive

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 driver. Credentials come from the default AWS
// chain (environment, shared config, instance role).
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string // optional; MinIO or other S3-compatible endpoint
	PathStyle bool
}

// putter is the slice of the S3 client the archive needs.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores objects in a single bucket under an optional prefix.
type S3 struct {
	client putter
	bucket string
	prefix string
}

// NewS3 loads AWS configuration and returns an S3 store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle || cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3WithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3WithClient(client putter, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads r and returns an s3:// URI.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	full := key
	if s.prefix != "" {
		full = path.Join(s.prefix, key)
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("archive: put %s: %w", full, err)
	}
	return "s3://" + s.bucket + "/" + full, nil
}
