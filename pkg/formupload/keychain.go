package formupload

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// SigningKeyChain holds every step of the key derivation. Only Signing signs anything
type SigningKeyChain struct {
	Date    []byte
	Region  []byte
	Service []byte
	Signing []byte
}

// DeriveKeyChain narrows the secret to one day, region and service:
//
//	kDate    = HMAC-SHA256("AWS4" + secret, signDate)
//	kRegion  = HMAC-SHA256(kDate, region)
//	kService = HMAC-SHA256(kRegion, service)
//	kSigning = HMAC-SHA256(kService, "aws4_request")
//
// Each step keys on the raw bytes of the previous one
func DeriveKeyChain(secretKey string, sc SigningContext) (SigningKeyChain, error) {
	if secretKey == "" {
		return SigningKeyChain{}, fmt.Errorf("%w: secret key is empty", ErrMissingInput)
	}

	kDate, err := hmacSHA256([]byte("AWS4"+secretKey), sc.SignDate())
	if err != nil {
		return SigningKeyChain{}, fmt.Errorf("derive date key: %w", err)
	}
	kRegion, err := hmacSHA256(kDate, sc.Region())
	if err != nil {
		return SigningKeyChain{}, fmt.Errorf("derive region key: %w", err)
	}
	kService, err := hmacSHA256(kRegion, sc.Service())
	if err != nil {
		return SigningKeyChain{}, fmt.Errorf("derive service key: %w", err)
	}
	kSigning, err := hmacSHA256(kService, ScopeTerminator)
	if err != nil {
		return SigningKeyChain{}, fmt.Errorf("derive signing key: %w", err)
	}

	return SigningKeyChain{
		Date:    kDate,
		Region:  kRegion,
		Service: kService,
		Signing: kSigning,
	}, nil
}

// DeriveSigningKey returns only kSigning
func DeriveSigningKey(secretKey string, sc SigningContext) ([]byte, error) {
	chain, err := DeriveKeyChain(secretKey, sc)
	if err != nil {
		return nil, err
	}
	return chain.Signing, nil
}

// hmacSHA256 refuses to digest an empty key or message. Go strings are UTF-8,
// so the message bytes are its UTF-8 encoding
func hmacSHA256(key []byte, message string) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: hmac key is empty", ErrMissingInput)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: hmac message is empty", ErrMissingInput)
	}
	h := hmac.New(sha256.New, key)
	h.Write([]byte(message))
	return h.Sum(nil), nil
}
