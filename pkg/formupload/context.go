package formupload

import (
	"strings"
	"time"
)

// SigningContext binds one signing session to an access key, a day, a region and a service
//
// It is built once per session with NewSigningContext and has no setters, so the
// policy, key chain, signature and form fields all see the same dates. Sharing a
// SigningContext between goroutines is safe
type SigningContext struct {
	accessKeyID     string
	sessionToken    string
	region          string
	service         string
	requestTime     time.Time
	signDate        string
	amzDate         string
	credentialScope string
}

// NewSigningContext captures now (converted to UTC) and derives the date-scoped fields
func NewSigningContext(creds Credentials, region, service string, now time.Time) (SigningContext, error) {
	switch {
	case strings.TrimSpace(creds.AccessKeyID) == "":
		return SigningContext{}, invalidConfig("accessKeyId", "access key id is required")
	case strings.TrimSpace(region) == "":
		return SigningContext{}, invalidConfig("region", "region is required")
	case strings.TrimSpace(service) == "":
		return SigningContext{}, invalidConfig("service", "service is required")
	}

	now = now.UTC()
	signDate := now.Format(ShortTimeFormat)

	return SigningContext{
		accessKeyID:  creds.AccessKeyID,
		sessionToken: creds.SessionToken,
		region:       region,
		service:      service,
		requestTime:  now,
		signDate:     signDate,
		amzDate:      signDate + amzDateSuffix,
		credentialScope: strings.Join([]string{
			creds.AccessKeyID, signDate, region, service, ScopeTerminator,
		}, "/"),
	}, nil
}

// AccessKeyID is the key the credential scope names
func (sc SigningContext) AccessKeyID() string { return sc.accessKeyID }

// Region is the region the signing key is scoped to
func (sc SigningContext) Region() string { return sc.region }

// Service is the service identifier, usually s3
func (sc SigningContext) Service() string { return sc.service }

// SessionToken is empty for long-term credentials
func (sc SigningContext) SessionToken() string { return sc.sessionToken }

// RequestTime is the instant captured when the context was built
func (sc SigningContext) RequestTime() time.Time { return sc.requestTime }

// SignDate is the UTC day, YYYYMMDD
func (sc SigningContext) SignDate() string { return sc.signDate }

// AmzDate is midnight of SignDate, e.g. 20240305T000000Z
func (sc SigningContext) AmzDate() string { return sc.amzDate }

// CredentialScope is accessKeyId/signDate/region/service/aws4_request
func (sc SigningContext) CredentialScope() string { return sc.credentialScope }

// Algorithm is always AWS4-HMAC-SHA256
func (sc SigningContext) Algorithm() string { return Algorithm }

// ServerSideEncryption is the encryption every form requests, AES256
func (sc SigningContext) ServerSideEncryption() string { return ServerSideEncryptionAES256 }

// IsZero reports whether the context was never built
func (sc SigningContext) IsZero() bool { return sc.signDate == "" }
