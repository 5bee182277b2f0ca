package s3

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
	"github.com/aws/smithy-go"
)

var (
	// ErrObjectNotFound indicates no object exists under the key
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates the upload bucket does not exist
	ErrBucketNotFound = errors.New("bucket not found")
)

// Config options for the S3 inspector
type Config struct {
	Region          string                  // AWS region
	Bucket          string                  // S3 bucket name
	AccessKeyID     string                  // AWS access key ID
	SecretAccessKey string                  // AWS secret access key
	SessionToken    string                  // Optional session token for temporary credentials
	Credentials     aws.CredentialsProvider // Optional provider, takes precedence over the keys above
	Endpoint        string                  // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool                    // Use path-style addressing (default: false)
	PresignDuration int                     // Duration in seconds for download URLs (default: 3600)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// ObjectInfo describes an object a browser uploaded through a form
type ObjectInfo struct {
	Key                  string    `json:"key"`
	Size                 int64     `json:"size"`
	ContentType          string    `json:"contentType"`
	ETag                 string    `json:"etag"`
	LastModified         time.Time `json:"lastModified"`
	ServerSideEncryption string    `json:"serverSideEncryption,omitempty"`
	DownloadURL          string    `json:"downloadUrl,omitempty"`
}

// Backend reads back what form uploads wrote to the bucket. It never writes
// objects itself: browsers post directly to the storage service
type Backend struct {
	client          *s3.Client
	bucket          string
	presignClient   *s3.PresignClient
	presignDuration time.Duration
	config          Config
}

// New creates a new S3-compatible inspector
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	if config.PresignDuration == 0 {
		config.PresignDuration = 3600 // 1 hour default
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	switch {
	case config.Credentials != nil:
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(config.Credentials))
	case config.AccessKeyID != "" && config.SecretAccessKey != "":
		// Use provided credentials, otherwise fall back to the default chain
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			config.SessionToken,
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoint for S3-compatible services (MinIO, etc.)
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	backend := &Backend{
		client:          client,
		bucket:          config.Bucket,
		presignClient:   s3.NewPresignClient(client),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		config:          config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// Bucket returns the inspected bucket name
func (b *Backend) Bucket() string {
	return b.bucket
}

// EnsureBucket creates the bucket if it doesn't exist
func (b *Backend) EnsureBucket(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	// MinIO answers a missing bucket with BadRequest on some versions
	if !isNotFound(err) && !hasErrorCode(err, "BadRequest") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}

	// Add location constraint for regions other than us-east-1
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = b.client.CreateBucket(ctx, createInput)
	if err != nil {
		if hasErrorCode(err, "BucketAlreadyExists", "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Stat reports an uploaded object's size, type and encryption
func (b *Backend) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if hasErrorCode(err, "NoSuchBucket") {
			return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, b.bucket)
		}
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectKey)
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	info := &ObjectInfo{
		Key:                  objectKey,
		Size:                 aws.ToInt64(result.ContentLength),
		ContentType:          "application/octet-stream",
		ETag:                 strings.Trim(aws.ToString(result.ETag), "\""),
		LastModified:         aws.ToTime(result.LastModified),
		ServerSideEncryption: string(result.ServerSideEncryption),
	}
	if result.ContentType != nil {
		info.ContentType = *result.ContentType
	}

	return info, nil
}

// DownloadURL returns a presigned URL for reading back an uploaded object
func (b *Backend) DownloadURL(ctx context.Context, objectKey string) (string, error) {
	result, err := b.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = b.presignDuration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return result.URL, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	return hasErrorCode(err, "NotFound", "NoSuchKey", "NoSuchBucket")
}

func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
