package boundary

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source retrieves boundary files from an S3-compatible bucket (AWS S3
// or MinIO). Keys map to boundary paths directly.
type S3Source struct {
	client *s3.Client
	bucket string
}

// S3Config holds explicit construction parameters, mostly for tests; the
// service normally constructs from environment variables.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO
	PathStyle bool
}

// NewS3Source creates an S3-backed boundary source from S3Config.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Source{client: client, bucket: cfg.Bucket}, nil
}

// S3SourceFromEnv constructs an S3 boundary source from the process
// environment:
//
//	BOUNDARY_S3_BUCKET=<bucket> (required)
//	BOUNDARY_S3_REGION=<region> (default us-east-1)
//	BOUNDARY_S3_ENDPOINT=<url> (optional, for MinIO)
//	BOUNDARY_S3_PATH_STYLE=true|false (default false)
func S3SourceFromEnv(ctx context.Context) (*S3Source, error) {
	bucket := os.Getenv("BOUNDARY_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("BOUNDARY_S3_BUCKET required for s3 boundary source")
	}
	return NewS3Source(ctx, S3Config{
		Bucket:    bucket,
		Region:    os.Getenv("BOUNDARY_S3_REGION"),
		Endpoint:  os.Getenv("BOUNDARY_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("BOUNDARY_S3_PATH_STYLE"), "true"),
	})
}

func (s *S3Source) Fetch(ctx context.Context, path string) ([]byte, error) {
	key := strings.TrimPrefix(path, "/")
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
