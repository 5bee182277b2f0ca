package formupload

import (
	"fmt"
	"strings"
	"time"
)

// PostRequest is a submitted upload form as seen by the receiving endpoint
type PostRequest struct {
	Bucket        string            // from the request host or path
	Fields        map[string]string // form fields, names compared case-insensitively
	ContentLength int64             // size of the file part
}

// CredentialScope is the parsed form of x-amz-credential
type CredentialScope struct {
	AccessKeyID string
	Date        string
	Region      string
	Service     string
}

// ParseCredentialScope splits accessKeyId/date/region/service/aws4_request
func ParseCredentialScope(value string) (CredentialScope, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 5 || parts[4] != ScopeTerminator {
		return CredentialScope{}, fmt.Errorf("%w: %q", ErrMalformedCredential, value)
	}
	for _, p := range parts[:4] {
		if p == "" {
			return CredentialScope{}, fmt.Errorf("%w: %q has an empty element", ErrMalformedCredential, value)
		}
	}
	return CredentialScope{
		AccessKeyID: parts[0],
		Date:        parts[1],
		Region:      parts[2],
		Service:     parts[3],
	}, nil
}

// exempt fields are never listed in a policy
func exemptField(name string) bool {
	switch name {
	case FieldPolicy, FieldSignature, FieldFile:
		return true
	}
	return strings.HasPrefix(name, "x-ignore-")
}

// VerifyPost checks a submitted form the way the storage service does: the
// signature must match the policy under the credential's scope, the policy must
// not be expired, every condition must hold and every non-exempt field must be
// covered by a condition. It returns the decoded policy on success
func VerifyPost(secretKey string, req PostRequest, now time.Time) (PolicyDocument, error) {
	fields := make(map[string]string, len(req.Fields))
	for k, v := range req.Fields {
		fields[strings.ToLower(k)] = v
	}

	policy := EncodedPolicy(fields[FieldPolicy])
	if policy == "" {
		return PolicyDocument{}, fmt.Errorf("%w: policy field is missing", ErrMissingInput)
	}
	signature := fields[FieldSignature]
	if signature == "" {
		return PolicyDocument{}, fmt.Errorf("%w: signature field is missing", ErrMissingInput)
	}
	if alg := fields[FieldAlgorithm]; alg != Algorithm {
		return PolicyDocument{}, fmt.Errorf("%w: unsupported algorithm %q", ErrSignatureMismatch, alg)
	}

	scope, err := ParseCredentialScope(fields[FieldCredential])
	if err != nil {
		return PolicyDocument{}, err
	}
	day, err := time.Parse(ShortTimeFormat, scope.Date)
	if err != nil {
		return PolicyDocument{}, fmt.Errorf("%w: date %q: %v", ErrMalformedCredential, scope.Date, err)
	}
	sc, err := NewSigningContext(Credentials{AccessKeyID: scope.AccessKeyID}, scope.Region, scope.Service, day)
	if err != nil {
		return PolicyDocument{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	expected, err := SignPolicy(secretKey, sc, policy)
	if err != nil {
		return PolicyDocument{}, err
	}
	if !expected.Equal(signature) {
		return PolicyDocument{}, ErrSignatureMismatch
	}

	doc, err := DecodePolicy(policy)
	if err != nil {
		return PolicyDocument{}, err
	}
	if !now.Before(doc.Expiration) {
		return PolicyDocument{}, fmt.Errorf("%w: expired at %s", ErrPolicyExpired, doc.Expiration.Format(ExpirationFormat))
	}

	covered := make(map[string]bool, len(doc.Conditions))
	for _, c := range doc.Conditions {
		name := strings.ToLower(c.FieldName())
		covered[name] = true

		switch c := c.(type) {
		case ExactMatch:
			actual, ok := fields[name]
			if name == FieldBucket {
				actual, ok = req.Bucket, true
			}
			if !ok || actual != c.Value {
				return PolicyDocument{}, &ConditionError{Condition: c, Reason: fmt.Sprintf("want %q, got %q", c.Value, actual)}
			}
		case Prefix:
			actual := fields[name]
			if name == FieldBucket {
				actual = req.Bucket
			}
			if !strings.HasPrefix(actual, c.Value) {
				return PolicyDocument{}, &ConditionError{Condition: c, Reason: fmt.Sprintf("%q does not start with %q", actual, c.Value)}
			}
		case Range:
			if req.ContentLength < c.Min || req.ContentLength > c.Max {
				return PolicyDocument{}, &ConditionError{Condition: c, Reason: fmt.Sprintf("length %d outside [%d, %d]", req.ContentLength, c.Min, c.Max)}
			}
		}
	}

	for name := range fields {
		if exemptField(name) || covered[name] {
			continue
		}
		return PolicyDocument{}, fmt.Errorf("%w: field %q is not allowed by the policy", ErrConditionFailed, name)
	}

	return doc, nil
}
