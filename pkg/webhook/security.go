package webhook

import (
	"errors"
)

var (
	// ErrMissingSignature is returned when a signature is required but the header was empty
	ErrMissingSignature = errors.New("missing signature")
	// ErrInvalidSignature is returned when the signature does not match the payload
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignaturePolicy controls when inbound webhooks are authenticated.
//
// Verification only happens when a secret is configured. Without a secret every
// event is accepted unauthenticated, signature header or not. With a secret, an
// absent header is accepted unless RequireSignature is set.
type SignaturePolicy struct {
	Secret           string
	RequireSignature bool
}

// SignatureValidator validates webhook signatures using HMAC-SHA256
type SignatureValidator struct {
	secret           string
	requireSignature bool
}

// NewSignatureValidator creates a validator for the given policy
func NewSignatureValidator(policy SignaturePolicy) *SignatureValidator {
	return &SignatureValidator{
		secret:           policy.Secret,
		requireSignature: policy.RequireSignature,
	}
}

// Enabled reports whether a secret is configured
func (v *SignatureValidator) Enabled() bool {
	return v != nil && v.secret != ""
}

// ShouldVerify reports whether a request carrying the given signature header must be checked
func (v *SignatureValidator) ShouldVerify(signature string) bool {
	if !v.Enabled() {
		return false
	}
	return signature != "" || v.requireSignature
}

// Validate applies the policy to a payload and its signature header.
// A nil error means the request may proceed.
func (v *SignatureValidator) Validate(payload []byte, signature string) error {
	if !v.ShouldVerify(signature) {
		return nil
	}
	if signature == "" {
		return ErrMissingSignature
	}
	if !VerifySignature(payload, signature, v.secret) {
		return ErrInvalidSignature
	}
	return nil
}

// GenerateSignature signs a payload with the configured secret, for test senders
func (v *SignatureValidator) GenerateSignature(payload []byte) string {
	return ComputeSignature(payload, v.secret)
}
