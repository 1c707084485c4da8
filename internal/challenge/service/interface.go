// Package service provides secret generation and bearer-envelope encryption
// for challenges.
package service

import (
	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
)

// SecretGenerator defines the interface for secret generation.
type SecretGenerator interface {
	Generate() (string, error)
	Validate(secret string) error
}

// Cipher seals bearer payloads into self-describing envelopes and opens them
// again. Implementations must treat every decoding failure as an invalid
// token without distinguishing the cause.
type Cipher interface {
	// EncryptToken seals the payload into a base64url envelope.
	EncryptToken(payload *challengeDomain.BearerPayload) (string, error)

	// DecryptToken opens an envelope and returns the payload carried inside.
	// The payload token is guaranteed to be non-empty on success.
	DecryptToken(token string) (*challengeDomain.BearerPayload, error)
}
