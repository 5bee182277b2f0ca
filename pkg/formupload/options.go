package formupload

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Option is a functional option for configuring an Issuer
type Option func(*Issuer)

// WithClock overrides time.Now. The clock is read once per issued form
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithProviderDomain replaces amazonaws.com in the virtual-hosted endpoint
func WithProviderDomain(domain string) Option {
	return func(i *Issuer) {
		i.providerDomain = domain
	}
}

// WithEndpoint points forms at an S3-compatible endpoint instead of AWS
// Examples: "http://localhost:9000" with pathStyle=true for MinIO
func WithEndpoint(endpoint string, pathStyle bool) Option {
	return func(i *Issuer) {
		i.endpoint = endpoint
		i.pathStyle = pathStyle
	}
}

// WithIDGenerator sets the function that fills {uuid} in key templates
func WithIDGenerator(fn func() string) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.newID = fn
		}
	}
}

// WithCredentialsProvider resolves credentials for every issued form instead of
// using the keys in Config. Wrap refreshing providers in aws.NewCredentialsCache
func WithCredentialsProvider(provider aws.CredentialsProvider) Option {
	return func(i *Issuer) {
		i.credentials = provider
	}
}
