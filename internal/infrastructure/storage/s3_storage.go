// Package storage provides object storage backends for account attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	crmapp "github.com/anycrm/backend/internal/application/crm"
	infraconfig "github.com/anycrm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ crmapp.ObjectStorageService = (*S3ObjectStore)(nil)

const defaultPresignExpiry = 15 * time.Minute

// S3ObjectStore issues presigned upload and download URLs against any
// S3-compatible backend (AWS S3, MinIO and friends).
type S3ObjectStore struct {
	api           *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	defaultExpiry time.Duration
	log           *zap.Logger
}

// NewS3ObjectStore builds the S3 client from static credentials. A custom
// endpoint with path-style addressing selects an S3-compatible service
// instead of AWS proper.
func NewS3ObjectStore(cfg *infraconfig.StorageConfig, log *zap.Logger) (*S3ObjectStore, error) {
	if cfg == nil {
		return nil, errors.New("storage config is nil")
	}
	for field, value := range map[string]string{
		"bucket":     cfg.Bucket,
		"access key": cfg.AccessKeyID,
		"secret key": cfg.SecretAccessKey,
	} {
		if value == "" {
			return nil, fmt.Errorf("storage %s is not set", field)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	expiry := cfg.UploadURLExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &S3ObjectStore{
		api:           api,
		presigner:     s3.NewPresignClient(api),
		bucket:        cfg.Bucket,
		defaultExpiry: expiry,
		log:           log,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. Meant for
// startup against self-hosted backends; on AWS the bucket is provisioned
// out of band.
func (s *S3ObjectStore) EnsureBucket(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.log.Info("creating storage bucket", zap.String("bucket", s.bucket))
	if _, err := s.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		// Another instance may have won the race.
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	return nil
}

func (s *S3ObjectStore) expiry(requested time.Duration) time.Duration {
	if requested <= 0 {
		return s.defaultExpiry
	}
	return requested
}

// GenerateUploadURL presigns a PUT for the given key and content type.
func (s *S3ObjectStore) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyStorageKey
	}
	expiresIn = s.expiry(expiresIn)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign upload %s: %w", storageKey, err)
	}

	return req.URL, time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL presigns a GET for the given key.
func (s *S3ObjectStore) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyStorageKey
	}
	expiresIn = s.expiry(expiresIn)

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign download %s: %w", storageKey, err)
	}

	return req.URL, time.Now().Add(expiresIn), nil
}

// DeleteObject removes the object behind the key.
func (s *S3ObjectStore) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyStorageKey
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", storageKey, err)
	}

	return nil
}

// ObjectExists reports whether the key has an object behind it.
func (s *S3ObjectStore) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyStorageKey
	}

	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// Some S3-compatible services only surface this through the message.
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
		return false, nil
	}
	return false, fmt.Errorf("head object %s: %w", storageKey, err)
}

// Bucket returns the configured bucket name.
func (s *S3ObjectStore) Bucket() string {
	return s.bucket
}
