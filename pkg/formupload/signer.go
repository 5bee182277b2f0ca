package formupload

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
)

// SignatureLength is the hex length of an HMAC-SHA256 digest
const SignatureLength = 64

// Signature is the lowercase hex HMAC-SHA256 of an encoded policy
type Signature string

// Sign computes HMAC-SHA256(signingKey, policy) as lowercase hex.
// An empty policy is an error, never a digest over nothing
func Sign(signingKey []byte, policy EncodedPolicy) (Signature, error) {
	if policy == "" {
		return "", fmt.Errorf("%w: encoded policy is empty", ErrMissingInput)
	}
	sum, err := hmacSHA256(signingKey, string(policy))
	if err != nil {
		return "", err
	}
	return Signature(hex.EncodeToString(sum)), nil
}

// SignPolicy derives the signing key and signs in one step
func SignPolicy(secretKey string, sc SigningContext, policy EncodedPolicy) (Signature, error) {
	key, err := DeriveSigningKey(secretKey, sc)
	if err != nil {
		return "", err
	}
	return Sign(key, policy)
}

// Valid reports whether s is 64 lowercase hex characters
func (s Signature) Valid() bool {
	if len(s) != SignatureLength {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// Equal compares in constant time
func (s Signature) Equal(other string) bool {
	return hmac.Equal([]byte(s), []byte(other))
}

func (s Signature) String() string { return string(s) }
