package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-form-upload/pkg/formupload"
)

// WithEnv applies environment variable overrides. Variables that are not set
// leave the current value alone, so defaults and earlier options survive
//
// Server:
//
//	PORT, ENVIRONMENT, STATIC_DIR
//
// Upload policy:
//
//	UPLOAD_BUCKET_NAME, UPLOAD_ACL, UPLOAD_EXPIRES_INTERVAL_SECONDS,
//	UPLOAD_CONTENT_TYPE_PREFIX, UPLOAD_CONTENT_LENGTH_MIN, UPLOAD_CONTENT_LENGTH_MAX,
//	UPLOAD_FILE_DESTINATION, UPLOAD_KEY_PREFIX, UPLOAD_SERVICE
//
// S3-compatible endpoints and status tracking:
//
//	UPLOAD_ENDPOINT, UPLOAD_USE_PATH_STYLE, UPLOAD_TRACK_OBJECTS, UPLOAD_CREATE_BUCKET
//
// Credentials:
//
//	AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithDotEnv loads variables from .env files into the process environment.
// Missing files are skipped; variables already set win. Apply before WithEnv
func WithDotEnv(paths ...string) Option {
	return func(c *ServerConfig) error {
		if len(paths) == 0 {
			paths = []string{".env"}
		}
		for _, path := range paths {
			if err := godotenv.Load(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
		return nil
	}
}

// WithDefaultCredentialChain resolves credentials through the AWS default chain
// (environment, shared config, SSO, container and instance roles) when no
// access key is configured yet. The chain stays attached to the configuration,
// so every issued form gets current keys
func WithDefaultCredentialChain(ctx context.Context) Option {
	return func(c *ServerConfig) error {
		if c.AWS.AccessKeyID != "" && c.AWS.SecretAccessKey != "" {
			return nil
		}

		var loadOpts []func(*awsconfig.LoadOptions) error
		if c.AWS.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(c.AWS.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		if c.AWS.Region == "" {
			c.AWS.Region = awsCfg.Region
		}
		return WithCredentialsProvider(ctx, awsCfg.Credentials)(c)
	}
}

// WithCredentialsProvider signs forms with credentials from provider, fetched
// again for each form. Providers that are not already cached are wrapped in
// aws.NewCredentialsCache. The first retrieval happens here so a broken
// provider fails at startup
func WithCredentialsProvider(ctx context.Context, provider aws.CredentialsProvider) Option {
	return func(c *ServerConfig) error {
		if provider == nil {
			return errors.New("credentials provider is nil")
		}
		if _, cached := provider.(*aws.CredentialsCache); !cached {
			provider = aws.NewCredentialsCache(provider)
		}

		creds, err := formupload.RetrieveCredentials(ctx, provider)
		if err != nil {
			return err
		}
		c.AWS.AccessKeyID = creds.AccessKeyID
		c.AWS.SecretAccessKey = creds.SecretKey
		c.AWS.SessionToken = creds.SessionToken
		c.credentials = provider
		return nil
	}
}

// Description lists the environment variables WithEnv reads
func Description() string {
	cfg := defaults()
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&cfg, &header)
	if err != nil {
		return header
	}
	return text
}
