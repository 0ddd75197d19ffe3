package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds the settings for an [S3Store].
type S3Config struct {
	// Bucket is the target bucket. Required.
	Bucket string
	// Prefix is prepended to every object key (e.g. "uploads").
	Prefix string
	// Region overrides the region resolved from the standard AWS
	// environment/config chain.
	Region string
	// Endpoint points the client at an S3-compatible service such as
	// MinIO. When set, path-style addressing is enabled as well since
	// most self-hosted services do not support virtual-hosted buckets.
	Endpoint string
}

// S3Store persists blobs as objects in an S3 bucket. Object keys are
// Prefix/<uuid><ext> so uploads never collide regardless of the client
// supplied filename.
type S3Store struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Store builds an S3 client from the standard AWS credential chain
// (environment variables, shared config, instance roles) plus the overrides
// in cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, cfg: cfg}, nil
}

// Store uploads data under a fresh object key and returns the key.
func (s *S3Store) Store(ctx context.Context, data []byte, filename string) (string, error) {
	key := uuid.NewString() + path.Ext(filename)
	if s.cfg.Prefix != "" {
		key = path.Join(s.cfg.Prefix, key)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	return key, nil
}

// Destroy deletes the object at ref. S3 DeleteObject is idempotent, so
// destroying an already-deleted reference succeeds.
func (s *S3Store) Destroy(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("storage: delete s3://%s/%s: %w", s.cfg.Bucket, ref, err)
	}
	return nil
}

// Ping verifies the bucket exists and is reachable with the current
// credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("storage: head bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}
