package formupload

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PolicyRequest holds the constraints an upload must satisfy
type PolicyRequest struct {
	Bucket            string
	ACL               string
	Expires           time.Duration // counted from the signing context's request time
	ContentTypePrefix string
	KeyPrefix         string // empty allows any key
	ContentLengthMin  int64
	ContentLengthMax  int64
}

// Validate checks the request bounds
func (r PolicyRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Bucket) == "":
		return invalidConfig("bucketName", "bucket name is required")
	case strings.TrimSpace(r.ACL) == "":
		return invalidConfig("acl", "acl is required")
	case r.Expires < 0:
		return invalidConfig("expiresInterval", "expiry interval must not be negative, got %s", r.Expires)
	case r.ContentLengthMin < 0:
		return invalidConfig("contentLengthMin", "minimum content length must not be negative, got %d", r.ContentLengthMin)
	case r.ContentLengthMax < 0:
		return invalidConfig("contentLengthMax", "maximum content length must not be negative, got %d", r.ContentLengthMax)
	case r.ContentLengthMin > r.ContentLengthMax:
		return invalidConfig("contentLengthMin", "minimum content length %d exceeds maximum %d", r.ContentLengthMin, r.ContentLengthMax)
	}
	return nil
}

// PolicyDocument is the JSON document the receiving service checks a form against
type PolicyDocument struct {
	Expiration time.Time
	Conditions []Condition
}

type policyWire struct {
	Expiration string            `json:"expiration"`
	Conditions []json.RawMessage `json:"conditions"`
}

// EncodedPolicy is the base64 of the policy JSON. Treat it as opaque
type EncodedPolicy string

// BuildPolicy lays out the conditions in a fixed order so the same inputs always
// produce the same document
func BuildPolicy(req PolicyRequest, sc SigningContext) (PolicyDocument, error) {
	if err := req.Validate(); err != nil {
		return PolicyDocument{}, err
	}
	if sc.IsZero() {
		return PolicyDocument{}, invalidConfig("signingContext", "signing context is not initialized")
	}

	conditions := []Condition{
		ExactMatch{Name: FieldBucket, Value: req.Bucket},
		ExactMatch{Name: FieldACL, Value: req.ACL},
		Range{Name: ConditionContentLengthRange, Min: req.ContentLengthMin, Max: req.ContentLengthMax},
		Prefix{Name: "$" + FieldContentType, Value: req.ContentTypePrefix},
		Prefix{Name: "$" + FieldKey, Value: req.KeyPrefix},
		ExactMatch{Name: FieldAlgorithm, Value: sc.Algorithm()},
		ExactMatch{Name: FieldDate, Value: sc.AmzDate()},
		ExactMatch{Name: FieldCredential, Value: sc.CredentialScope()},
		ExactMatch{Name: FieldServerSideEncryption, Value: sc.ServerSideEncryption()},
	}
	if token := sc.SessionToken(); token != "" {
		conditions = append(conditions, ExactMatch{Name: FieldSecurityToken, Value: token})
	}

	return PolicyDocument{
		Expiration: sc.RequestTime().Add(req.Expires).UTC(),
		Conditions: conditions,
	}, nil
}

// EncodePolicy builds the policy and encodes it in one step
func EncodePolicy(req PolicyRequest, sc SigningContext) (EncodedPolicy, error) {
	doc, err := BuildPolicy(req, sc)
	if err != nil {
		return "", err
	}
	return doc.Encode()
}

func (d PolicyDocument) MarshalJSON() ([]byte, error) {
	wire := policyWire{
		Expiration: d.Expiration.UTC().Format(ExpirationFormat),
		Conditions: make([]json.RawMessage, 0, len(d.Conditions)),
	}
	for _, c := range d.Conditions {
		raw, err := c.MarshalJSON()
		if err != nil {
			return nil, err
		}
		wire.Conditions = append(wire.Conditions, raw)
	}
	return marshalJSON(wire)
}

func (d *PolicyDocument) UnmarshalJSON(data []byte) error {
	var wire policyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	expiration, err := time.Parse(time.RFC3339Nano, wire.Expiration)
	if err != nil {
		return fmt.Errorf("%w: expiration: %v", ErrMalformedPolicy, err)
	}
	conditions := make([]Condition, 0, len(wire.Conditions))
	for _, raw := range wire.Conditions {
		c, err := ParseCondition(raw)
		if err != nil {
			return err
		}
		conditions = append(conditions, c)
	}
	d.Expiration = expiration.UTC()
	d.Conditions = conditions
	return nil
}

// Encode serializes the document as UTF-8 JSON and base64-encodes it
func (d PolicyDocument) Encode() (EncodedPolicy, error) {
	data, err := marshalJSON(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return EncodedPolicy(base64.StdEncoding.EncodeToString(data)), nil
}

// DecodePolicy reverses Encode
func DecodePolicy(p EncodedPolicy) (PolicyDocument, error) {
	if p == "" {
		return PolicyDocument{}, fmt.Errorf("%w: policy is empty", ErrMissingInput)
	}
	data, err := base64.StdEncoding.DecodeString(string(p))
	if err != nil {
		return PolicyDocument{}, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	var doc PolicyDocument
	if err := doc.UnmarshalJSON(data); err != nil {
		return PolicyDocument{}, err
	}
	return doc, nil
}

// JSON returns the decoded policy bytes
func (p EncodedPolicy) JSON() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(string(p))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	return data, nil
}

func (p EncodedPolicy) String() string { return string(p) }
