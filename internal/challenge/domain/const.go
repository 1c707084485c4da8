// Package domain defines the core challenge-token domain model: the challenge
// record, its storage locators, secret generation settings, and typed errors.
package domain

import (
	"errors"
)

// SecretType defines the bearer-secret generation strategy.
type SecretType string

const (
	SecretUUID     SecretType = "uuid"
	SecretAlphabet SecretType = "alphabet"
	SecretNumber   SecretType = "number"
)

// Algorithm defines the AEAD algorithm used for bearer envelopes.
type Algorithm string

const (
	AESGCM           Algorithm = "aes-gcm"
	ChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// Key material and secret constraints.
const (
	// MinSharedSecretLength is the minimum length of the current cipher key
	// material in bytes.
	MinSharedSecretLength = 32

	// MinLegacySecretLength is the minimum length of the legacy cipher key
	// material in bytes. Shorter than the current minimum so that old
	// deployments can still decrypt while being forced to upgrade new data.
	MinLegacySecretLength = 24

	// MaxSecretLength is the maximum generated secret length for the
	// alphabet and number strategies.
	MaxSecretLength = 255
)

// Validate checks if the secret type is valid.
func (s SecretType) Validate() error {
	switch s {
	case SecretUUID, SecretAlphabet, SecretNumber:
		return nil
	default:
		return errors.New("invalid secret type")
	}
}

// String returns the string representation of the secret type.
func (s SecretType) String() string {
	return string(s)
}

// Validate checks if the algorithm is valid.
func (a Algorithm) Validate() error {
	switch a {
	case AESGCM, ChaCha20Poly1305:
		return nil
	default:
		return errors.New("invalid algorithm")
	}
}

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}
