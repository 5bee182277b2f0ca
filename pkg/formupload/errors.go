package formupload

import (
	"errors"
	"fmt"
)

// Signing and verification errors
var (
	// ErrMissingInput is returned when an HMAC step receives an empty key or message
	ErrMissingInput = errors.New("formupload: missing input")

	// ErrInvalidConfig is returned when scope fields or policy bounds are unusable
	ErrInvalidConfig = errors.New("formupload: invalid configuration")

	// ErrMalformedCredential is returned when x-amz-credential cannot be parsed
	ErrMalformedCredential = errors.New("formupload: malformed credential scope")

	// ErrSignatureMismatch is returned when a posted signature does not match the policy
	ErrSignatureMismatch = errors.New("formupload: signature does not match")

	// ErrPolicyExpired is returned when a posted policy is past its expiration
	ErrPolicyExpired = errors.New("formupload: policy has expired")

	// ErrConditionFailed is returned when a posted form violates a policy condition
	ErrConditionFailed = errors.New("formupload: policy condition failed")

	// ErrMalformedPolicy is returned when an encoded policy cannot be decoded
	ErrMalformedPolicy = errors.New("formupload: malformed policy")
)

// ConfigError names the configuration field that failed validation
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidConfig, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

func invalidConfig(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// ConditionError reports the policy condition a posted form did not satisfy
type ConditionError struct {
	Condition Condition
	Reason    string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrConditionFailed, e.Condition.FieldName(), e.Reason)
}

func (e *ConditionError) Unwrap() error {
	return ErrConditionFailed
}

// IsInvalidConfig returns true if the error stems from caller-supplied configuration
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsMissingInput returns true if the error stems from an empty signing input
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

// IsVerificationError returns true if the error is a posted-form verification failure
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrSignatureMismatch) ||
		errors.Is(err, ErrPolicyExpired) ||
		errors.Is(err, ErrConditionFailed) ||
		errors.Is(err, ErrMalformedPolicy)
}
