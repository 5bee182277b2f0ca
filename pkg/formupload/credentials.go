package formupload

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Credentials are the long-term (or temporary) keys used for one signing session.
// They are never serialized into a form or a response
type Credentials struct {
	AccessKeyID  string
	SecretKey    string
	SessionToken string
}

// String redacts everything but the access key ID
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKeyID: %q, SecretKey: <redacted>}", c.AccessKeyID)
}

// GoString keeps %#v from leaking the secret
func (c Credentials) GoString() string {
	return c.String()
}

// FromAWS converts credentials retrieved through the AWS SDK
func FromAWS(creds aws.Credentials) Credentials {
	return Credentials{
		AccessKeyID:  creds.AccessKeyID,
		SecretKey:    creds.SecretAccessKey,
		SessionToken: creds.SessionToken,
	}
}

// RetrieveCredentials resolves credentials from an AWS SDK provider, e.g. the default chain
func RetrieveCredentials(ctx context.Context, provider aws.CredentialsProvider) (Credentials, error) {
	if provider == nil {
		return Credentials{}, invalidConfig("credentials", "no credentials provider configured")
	}
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to retrieve credentials: %w", err)
	}
	return FromAWS(creds), nil
}
