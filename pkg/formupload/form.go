package formupload

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FormParameters are the hidden fields an upload form must carry. Every field
// except key, policy and x-amz-signature is matched by a policy condition
type FormParameters struct {
	Key                  string `json:"key"`
	ACL                  string `json:"acl"`
	Algorithm            string `json:"x-amz-algorithm"`
	ServerSideEncryption string `json:"x-amz-server-side-encryption"`
	Credential           string `json:"x-amz-credential"`
	Date                 string `json:"x-amz-date"`
	SecurityToken        string `json:"x-amz-security-token,omitempty"`
	Signature            string `json:"x-amz-signature"`
	Policy               string `json:"policy"`
}

// Field is one form name/value pair
type Field struct {
	Name  string
	Value string
}

// Fields returns the parameters in submission order
func (p FormParameters) Fields() []Field {
	fields := []Field{
		{FieldKey, p.Key},
		{FieldACL, p.ACL},
		{FieldAlgorithm, p.Algorithm},
		{FieldServerSideEncryption, p.ServerSideEncryption},
		{FieldCredential, p.Credential},
		{FieldDate, p.Date},
	}
	if p.SecurityToken != "" {
		fields = append(fields, Field{FieldSecurityToken, p.SecurityToken})
	}
	return append(fields,
		Field{FieldSignature, p.Signature},
		Field{FieldPolicy, p.Policy},
	)
}

// Map flattens the parameters
func (p FormParameters) Map() map[string]string {
	fields := p.Fields()
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return m
}

// FormInput is what the assembler needs besides the signing context
type FormInput struct {
	ACL       string
	Key       string // may contain ${filename}
	Signature Signature
	Policy    EncodedPolicy
}

// AssembleForm copies the context-scoped values into the field names the
// policy conditions were written against
func AssembleForm(in FormInput, sc SigningContext) (FormParameters, error) {
	if in.Signature == "" {
		return FormParameters{}, fmt.Errorf("%w: signature is empty", ErrMissingInput)
	}
	if in.Policy == "" {
		return FormParameters{}, fmt.Errorf("%w: encoded policy is empty", ErrMissingInput)
	}
	if sc.IsZero() {
		return FormParameters{}, invalidConfig("signingContext", "signing context is not initialized")
	}

	return FormParameters{
		Key:                  in.Key,
		ACL:                  in.ACL,
		Algorithm:            sc.Algorithm(),
		ServerSideEncryption: sc.ServerSideEncryption(),
		Credential:           sc.CredentialScope(),
		Date:                 sc.AmzDate(),
		SecurityToken:        sc.SessionToken(),
		Signature:            string(in.Signature),
		Policy:               string(in.Policy),
	}, nil
}

// Endpoint is the virtual-hosted form action, https://{bucket}.{service}-{region}.{domain}/
func Endpoint(bucket string, sc SigningContext, providerDomain string) string {
	if providerDomain == "" {
		providerDomain = DefaultProviderDomain
	}
	return fmt.Sprintf("https://%s.%s-%s.%s/", bucket, sc.Service(), sc.Region(), providerDomain)
}

// CustomEndpoint builds the form action for an S3-compatible endpoint such as MinIO.
// Path style yields {base}/{bucket}/, otherwise {scheme}://{bucket}.{host}/
func CustomEndpoint(base, bucket string, pathStyle bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", invalidConfig("endpoint", "invalid endpoint %q: %v", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", invalidConfig("endpoint", "endpoint %q must include scheme and host", base)
	}
	if pathStyle {
		return strings.TrimSuffix(u.Scheme+"://"+u.Host+u.Path, "/") + "/" + bucket + "/", nil
	}
	return fmt.Sprintf("%s://%s.%s/", u.Scheme, bucket, u.Host), nil
}

// Form is everything a browser needs to build and submit the upload form
type Form struct {
	Action     string         `json:"formAction"`
	Method     string         `json:"method"`
	Enctype    string         `json:"enctype"`
	Fields     FormParameters `json:"fields"`
	Expiration time.Time      `json:"expiration"`

	// Hints for the upload widget; the policy enforces them regardless
	ContentTypePrefix     string `json:"contentTypePrefix,omitempty"`
	ContentLengthMaxBytes int64  `json:"contentLengthMaxBytes,omitempty"`
}
