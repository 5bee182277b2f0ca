package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	s3storage "github.com/tendant/simple-form-upload/pkg/formupload/storage/s3"
)

// Option applies configuration to a ServerConfig instance
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		StaticDir:   "./public",
		Upload: UploadConfig{
			ACL:                    "public-read",
			ExpiresIntervalSeconds: 120,
			ContentTypePrefix:      "image/",
			ContentLengthMin:       0,
			ContentLengthMax:       5 * MiB,
			FileDestination:        "uploads/" + formupload.UUIDPlaceholder + "/" + formupload.FilenamePlaceholder,
			Service:                formupload.DefaultService,
		},
		AWS: AWSConfig{
			Region: "eu-west-1",
		},
	}
}

// ServerConfig represents configuration for the form upload service
type ServerConfig struct {
	Port        string `env:"PORT" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-description:"development, production or testing"`
	StaticDir   string `env:"STATIC_DIR" env-description:"directory served at / (empty disables)"`

	Upload UploadConfig
	AWS    AWSConfig

	// set by WithCredentialsProvider; the keys in AWS are its first result
	credentials aws.CredentialsProvider
}

// UploadConfig holds the policy every issued form is signed with
type UploadConfig struct {
	BucketName             string   `env:"UPLOAD_BUCKET_NAME" env-description:"bucket the browser posts to"`
	ACL                    string   `env:"UPLOAD_ACL" env-description:"canned ACL applied to uploaded objects"`
	ExpiresIntervalSeconds int64    `env:"UPLOAD_EXPIRES_INTERVAL_SECONDS" env-description:"seconds a form stays valid"`
	ContentTypePrefix      string   `env:"UPLOAD_CONTENT_TYPE_PREFIX" env-description:"required Content-Type prefix"`
	ContentLengthMin       ByteSize `env:"UPLOAD_CONTENT_LENGTH_MIN" env-description:"smallest accepted upload, e.g. 1KiB"`
	ContentLengthMax       ByteSize `env:"UPLOAD_CONTENT_LENGTH_MAX" env-description:"largest accepted upload, e.g. 5MiB"`
	FileDestination        string   `env:"UPLOAD_FILE_DESTINATION" env-description:"object key template, {uuid} and ${filename} allowed"`
	KeyPrefix              string   `env:"UPLOAD_KEY_PREFIX" env-description:"prefix every key must start with"`
	Service                string   `env:"UPLOAD_SERVICE" env-description:"service identifier in the credential scope"`
	Endpoint               string   `env:"UPLOAD_ENDPOINT" env-description:"S3-compatible endpoint, e.g. http://localhost:9000"`
	UsePathStyle           bool     `env:"UPLOAD_USE_PATH_STYLE" env-description:"post to {endpoint}/{bucket}/"`
	TrackObjects           bool     `env:"UPLOAD_TRACK_OBJECTS" env-description:"enable the upload status endpoint"`
	CreateBucket           bool     `env:"UPLOAD_CREATE_BUCKET" env-description:"create the bucket on startup"`
}

// AWSConfig holds the signing credentials. Leave the keys empty to use the default chain
type AWSConfig struct {
	Region          string `env:"AWS_REGION" env-description:"region in the credential scope"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"access key id"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-description:"secret access key"`
	SessionToken    string `env:"AWS_SESSION_TOKEN" env-description:"session token for temporary credentials"`
}

// String redacts the secret and token
func (c AWSConfig) String() string {
	return fmt.Sprintf("AWSConfig{Region: %q, AccessKeyID: %q}", c.Region, c.AccessKeyID)
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Environment {
	case "development", "production", "testing":
	default:
		return fmt.Errorf("environment must be 'development', 'production' or 'testing', got: %s", c.Environment)
	}

	u := c.Upload
	if strings.TrimSpace(u.BucketName) == "" {
		return errors.New("upload bucket name is required")
	}
	if u.ACL == "" {
		return errors.New("upload acl is required")
	}
	if u.ExpiresIntervalSeconds < 0 {
		return fmt.Errorf("upload expiry interval must not be negative, got: %d", u.ExpiresIntervalSeconds)
	}
	if u.ExpiresIntervalSeconds > math.MaxInt64/int64(time.Second) {
		return fmt.Errorf("upload expiry interval is too large, got: %d", u.ExpiresIntervalSeconds)
	}
	if u.ContentLengthMin > u.ContentLengthMax {
		return fmt.Errorf("upload content length min %s exceeds max %s", u.ContentLengthMin, u.ContentLengthMax)
	}
	if u.FileDestination == "" {
		return errors.New("upload file destination is required")
	}
	if u.KeyPrefix != "" && !strings.HasPrefix(u.FileDestination, u.KeyPrefix) {
		return fmt.Errorf("upload file destination %q does not start with key prefix %q", u.FileDestination, u.KeyPrefix)
	}
	if u.Endpoint != "" {
		if _, err := formupload.CustomEndpoint(u.Endpoint, u.BucketName, u.UsePathStyle); err != nil {
			return err
		}
	}

	if c.AWS.Region == "" {
		return errors.New("aws region is required")
	}
	if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
		return errors.New("aws credentials are required (set AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY or use the default credential chain)")
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// FormConfig builds the record forms are issued from
func (c *ServerConfig) FormConfig() formupload.Config {
	return formupload.Config{
		BucketName:              c.Upload.BucketName,
		ACL:                     c.Upload.ACL,
		ExpiresIntervalSeconds:  c.Upload.ExpiresIntervalSeconds,
		ContentTypePrefix:       c.Upload.ContentTypePrefix,
		ContentLengthMinBytes:   c.Upload.ContentLengthMin.Int64(),
		ContentLengthMaxBytes:   c.Upload.ContentLengthMax.Int64(),
		FileDestinationTemplate: c.Upload.FileDestination,
		KeyPrefix:               c.Upload.KeyPrefix,
		Region:                  c.AWS.Region,
		Service:                 c.Upload.Service,
		AccessKeyID:             c.AWS.AccessKeyID,
		SecretKey:               c.AWS.SecretAccessKey,
		SessionToken:            c.AWS.SessionToken,
	}
}

// IssuerOptions returns the Issuer options implied by the configuration
func (c *ServerConfig) IssuerOptions() []formupload.Option {
	var opts []formupload.Option
	if c.Upload.Endpoint != "" {
		opts = append(opts, formupload.WithEndpoint(c.Upload.Endpoint, c.Upload.UsePathStyle))
	}
	if c.credentials != nil {
		opts = append(opts, formupload.WithCredentialsProvider(c.credentials))
	}
	return opts
}

// BuildInspector creates the S3 inspector behind the upload status endpoint.
// It returns nil when object tracking is disabled
func (c *ServerConfig) BuildInspector(ctx context.Context) (*s3storage.Backend, error) {
	if !c.Upload.TrackObjects {
		return nil, nil
	}

	return s3storage.New(ctx, s3storage.Config{
		Region:                 c.AWS.Region,
		Bucket:                 c.Upload.BucketName,
		AccessKeyID:            c.AWS.AccessKeyID,
		SecretAccessKey:        c.AWS.SecretAccessKey,
		SessionToken:           c.AWS.SessionToken,
		Credentials:            c.credentials,
		Endpoint:               c.Upload.Endpoint,
		UsePathStyle:           c.Upload.UsePathStyle,
		PresignDuration:        int(c.Upload.ExpiresIntervalSeconds),
		CreateBucketIfNotExist: c.Upload.CreateBucket,
	})
}
