package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
	"github.com/propside/media-service/internal/infrastructure/metrics"
)

// S3Backend stores blobs in S3 or any S3-compatible endpoint such as MinIO.
type S3Backend struct {
	bucket        string
	endpoint      string
	publicBaseURL string
	region        string
	client        *s3.Client
	log           zerolog.Logger
}

// NewS3Backend creates the S3/MinIO backend from configuration.
func NewS3Backend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Backend, error) {
	logger := log.With().Str("component", "s3-storage").Logger()

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return &S3Backend{
		bucket:        cfg.S3Bucket,
		endpoint:      strings.TrimSuffix(cfg.S3Endpoint, "/"),
		publicBaseURL: strings.TrimSuffix(cfg.S3PublicBaseURL, "/"),
		region:        cfg.S3Region,
		client:        client,
		log:           logger,
	}, nil
}

func (s *S3Backend) Save(ctx context.Context, data []byte, key string, contentType string) (SaveResult, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		metrics.RecordStorageOperation("put", "error")
		return SaveResult{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	metrics.RecordStorageOperation("put", "success")
	return SaveResult{StoragePath: key, AccessURL: s.URL(key)}, nil
}

func (s *S3Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordStorageOperation("get", "error")
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("blob %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	metrics.RecordStorageOperation("get", "success")
	return out.Body, nil
}

func (s *S3Backend) Delete(ctx context.Context, key string) bool {
	// S3 DeleteObject succeeds for absent keys, so check first: the contract
	// distinguishes "removed" from "was not there".
	if s.Stat(ctx, key) == NotFound {
		return false
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordStorageOperation("delete", "error")
		s.log.Warn().Err(err).Str("key", key).Msg("s3 delete failed")
		return false
	}
	metrics.RecordStorageOperation("delete", "success")
	return true
}

// URL resolves a key to a public URL, preferring the configured public base
// URL, then the explicit endpoint (MinIO style), then the AWS virtual-hosted
// form.
func (s *S3Backend) URL(key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	}
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Backend) Stat(ctx context.Context, key string) Existence {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return Found
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return NotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return NotFound
	}

	s.log.Warn().Err(err).Str("key", key).Msg("s3 head failed")
	return Unknown
}

func (s *S3Backend) Kind() StorageType {
	return StorageS3
}
