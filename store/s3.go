package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for the S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// s3api is the subset of the S3 client the store uses.
type s3api interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes artifacts and traces to an S3-compatible object store.
type S3Store struct {
	client s3api
	cfg    S3Config
}

// NewS3Store creates an S3 store using the AWS SDK default credential chain
// (env vars, shared config, IAM role).
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsConfig, s3Opts...),
		cfg:    cfg,
	}, nil
}

// Backend returns "s3".
func (s *S3Store) Backend() string {
	return "s3"
}

// SaveArtifact writes the generated page to <prefix>/<request_id>/page.html.
func (s *S3Store) SaveArtifact(ctx context.Context, requestID string, html []byte) (string, error) {
	return s.put(ctx, requestID, ArtifactName, "text/html; charset=utf-8", html)
}

// SaveTrace writes the encoded trace to <prefix>/<request_id>/session.trace.
func (s *S3Store) SaveTrace(ctx context.Context, requestID string, trace *Trace) (string, error) {
	var buf bytes.Buffer
	if err := EncodeTrace(&buf, trace); err != nil {
		return "", err
	}
	return s.put(ctx, requestID, TraceName, "application/octet-stream", buf.Bytes())
}

// Close is a no-op for the S3 backend.
func (s *S3Store) Close() error {
	return nil
}

func (s *S3Store) put(ctx context.Context, requestID, name, contentType string, data []byte) (string, error) {
	if err := validateRequestID(requestID); err != nil {
		return "", err
	}

	key := path.Join(s.cfg.Prefix, requestID, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key), nil
}
