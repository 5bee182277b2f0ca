package formupload

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
)

// maxExpiresSeconds keeps the expiry representable as a time.Duration
const maxExpiresSeconds = math.MaxInt64 / int64(time.Second)

// Config is the configuration record one form is issued from
type Config struct {
	BucketName              string
	ACL                     string
	ExpiresIntervalSeconds  int64
	ContentTypePrefix       string
	ContentLengthMinBytes   int64
	ContentLengthMaxBytes   int64
	FileDestinationTemplate string
	KeyPrefix               string

	Region       string
	Service      string
	AccessKeyID  string
	SecretKey    string
	SessionToken string
}

// Credentials extracts the signing credentials
func (c Config) Credentials() Credentials {
	return Credentials{
		AccessKeyID:  c.AccessKeyID,
		SecretKey:    c.SecretKey,
		SessionToken: c.SessionToken,
	}
}

// PolicyRequest extracts the policy constraints
func (c Config) PolicyRequest() PolicyRequest {
	return PolicyRequest{
		Bucket:            c.BucketName,
		ACL:               c.ACL,
		Expires:           time.Duration(c.ExpiresIntervalSeconds) * time.Second,
		ContentTypePrefix: c.ContentTypePrefix,
		KeyPrefix:         c.KeyPrefix,
		ContentLengthMin:  c.ContentLengthMinBytes,
		ContentLengthMax:  c.ContentLengthMaxBytes,
	}
}

// Issuer runs the signing pipeline: context, policy, key chain, signature, form.
// It holds no per-session state and may be shared
type Issuer struct {
	now            func() time.Time
	providerDomain string
	endpoint       string
	pathStyle      bool
	newID          func() string
	credentials    aws.CredentialsProvider
}

// New creates an Issuer with the given options
func New(opts ...Option) *Issuer {
	i := &Issuer{
		now:            time.Now,
		providerDomain: DefaultProviderDomain,
		newID:          uuid.NewString,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Issue signs a fresh policy for cfg and returns the form to submit
//
// Example:
//
//	form, err := formupload.New().Issue(formupload.Config{
//	    BucketName: "my-bucket", ACL: "public-read", ExpiresIntervalSeconds: 120,
//	    ContentTypePrefix: "image/", ContentLengthMaxBytes: 5 << 20,
//	    FileDestinationTemplate: "user/user1/${filename}",
//	    Region: "eu-west-1", Service: "s3", AccessKeyID: id, SecretKey: secret,
//	})
func (i *Issuer) Issue(cfg Config) (*Form, error) {
	return i.IssueContext(context.Background(), cfg)
}

// IssueContext is Issue with a context for credential retrieval. When the
// Issuer has a credentials provider, the keys in cfg are replaced by whatever
// the provider returns for this form
func (i *Issuer) IssueContext(ctx context.Context, cfg Config) (*Form, error) {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.ExpiresIntervalSeconds < 0 {
		return nil, invalidConfig("expiresInterval", "expiry interval must not be negative, got %d", cfg.ExpiresIntervalSeconds)
	}
	if cfg.ExpiresIntervalSeconds > maxExpiresSeconds {
		return nil, invalidConfig("expiresInterval", "expiry interval must not exceed %d seconds, got %d", maxExpiresSeconds, cfg.ExpiresIntervalSeconds)
	}

	if i.credentials != nil {
		creds, err := RetrieveCredentials(ctx, i.credentials)
		if err != nil {
			return nil, err
		}
		cfg.AccessKeyID = creds.AccessKeyID
		cfg.SecretKey = creds.SecretKey
		cfg.SessionToken = creds.SessionToken
	}

	sc, err := NewSigningContext(cfg.Credentials(), cfg.Region, cfg.Service, i.now())
	if err != nil {
		return nil, err
	}

	key, err := i.resolveKey(cfg)
	if err != nil {
		return nil, err
	}

	action, err := i.action(cfg.BucketName, sc)
	if err != nil {
		return nil, err
	}

	doc, err := BuildPolicy(cfg.PolicyRequest(), sc)
	if err != nil {
		return nil, err
	}
	policy, err := doc.Encode()
	if err != nil {
		return nil, err
	}

	chain, err := DeriveKeyChain(cfg.SecretKey, sc)
	if err != nil {
		return nil, err
	}
	signature, err := Sign(chain.Signing, policy)
	if err != nil {
		return nil, err
	}

	fields, err := AssembleForm(FormInput{
		ACL:       cfg.ACL,
		Key:       key,
		Signature: signature,
		Policy:    policy,
	}, sc)
	if err != nil {
		return nil, err
	}

	return &Form{
		Action:                action,
		Method:                FormMethod,
		Enctype:               FormEnctype,
		Fields:                fields,
		Expiration:            doc.Expiration,
		ContentTypePrefix:     cfg.ContentTypePrefix,
		ContentLengthMaxBytes: cfg.ContentLengthMaxBytes,
	}, nil
}

func (i *Issuer) resolveKey(cfg Config) (string, error) {
	key := cfg.FileDestinationTemplate
	if strings.Contains(key, UUIDPlaceholder) {
		key = strings.ReplaceAll(key, UUIDPlaceholder, i.newID())
	}
	if key == "" {
		return "", invalidConfig("fileDestination", "file destination is required")
	}
	if cfg.KeyPrefix != "" && !strings.HasPrefix(key, cfg.KeyPrefix) {
		return "", invalidConfig("fileDestination", "file destination %q does not start with key prefix %q", key, cfg.KeyPrefix)
	}
	return key, nil
}

func (i *Issuer) action(bucket string, sc SigningContext) (string, error) {
	if strings.TrimSpace(bucket) == "" {
		return "", invalidConfig("bucketName", "bucket name is required")
	}
	if i.endpoint != "" {
		return CustomEndpoint(i.endpoint, bucket, i.pathStyle)
	}
	return Endpoint(bucket, sc, i.providerDomain), nil
}
