package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithBucket sets the bucket forms post to
func WithBucket(bucket string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("bucket cannot be empty")
		}
		c.Upload.BucketName = bucket
		return nil
	}
}

// WithCredentials sets static signing credentials
func WithCredentials(region, accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if region != "" {
			c.AWS.Region = region
		}
		c.AWS.AccessKeyID = accessKeyID
		c.AWS.SecretAccessKey = secretAccessKey
		c.credentials = nil
		return nil
	}
}

// WithContentLengthRange bounds accepted upload sizes
func WithContentLengthRange(lo, hi ByteSize) Option {
	return func(c *ServerConfig) error {
		if lo < 0 || hi < 0 {
			return fmt.Errorf("content length bounds must not be negative, got: %s..%s", lo, hi)
		}
		c.Upload.ContentLengthMin = lo
		c.Upload.ContentLengthMax = hi
		return nil
	}
}

// WithFileDestination sets the object key template
func WithFileDestination(template string) Option {
	return func(c *ServerConfig) error {
		if template == "" {
			return fmt.Errorf("file destination cannot be empty")
		}
		c.Upload.FileDestination = template
		return nil
	}
}

// WithS3Endpoint points forms at an S3-compatible endpoint (MinIO, LocalStack, etc.)
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		c.Upload.Endpoint = endpoint
		c.Upload.UsePathStyle = usePathStyle
		return nil
	}
}

// WithObjectTracking enables the upload status endpoint
func WithObjectTracking(createBucket bool) Option {
	return func(c *ServerConfig) error {
		c.Upload.TrackObjects = true
		c.Upload.CreateBucket = createBucket
		return nil
	}
}
