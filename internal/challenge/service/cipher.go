package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/errors"
)

// envelopeVersion prefixes every sealed bearer envelope. Envelopes without it
// are either legacy tokens or garbage.
var envelopeVersion = []byte("v1")

// envelopeNonceSize is the nonce length written on the wire for AES-GCM
// envelopes. GCM is constructed with this nonce size explicitly so sealed
// envelopes stay compatible across deployments.
const envelopeNonceSize = 16

// EnvelopeCipher seals and opens bearer envelopes with an AEAD derived from
// the shared secret. When a legacy secret is configured, envelopes that do
// not carry the current version prefix are retried with the legacy cipher
// construction. The legacy path never encrypts.
type EnvelopeCipher struct {
	aead   cipher.AEAD
	legacy *legacyCipher
}

// NewEnvelopeCipher creates a cipher for the given algorithm. The shared
// secret must have at least 32 bytes; its first 32 bytes are used as the
// AEAD key. The legacy secret is optional and must have at least 24 bytes
// when present.
func NewEnvelopeCipher(
	algorithm challengeDomain.Algorithm,
	sharedSecret []byte,
	legacySecret []byte,
) (*EnvelopeCipher, error) {
	if len(sharedSecret) < challengeDomain.MinSharedSecretLength {
		return nil, challengeDomain.ErrInvalidSharedSecret
	}

	var aead cipher.AEAD
	switch algorithm {
	case challengeDomain.AESGCM:
		block, err := aes.NewCipher(sharedSecret[:32])
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		aead, err = cipher.NewGCMWithNonceSize(block, envelopeNonceSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
	case challengeDomain.ChaCha20Poly1305:
		var err error
		aead, err = chacha20poly1305.New(sharedSecret[:32])
		if err != nil {
			return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported cipher algorithm %q", algorithm)
	}

	c := &EnvelopeCipher{aead: aead}

	if len(legacySecret) > 0 {
		if len(legacySecret) < challengeDomain.MinLegacySecretLength {
			return nil, challengeDomain.ErrInvalidLegacySecret
		}
		c.legacy = newLegacyCipher(legacySecret)
	}

	return c, nil
}

// EncryptToken seals the payload into a base64url envelope:
// version ‖ nonce ‖ ciphertext+tag. A fresh random nonce is generated per
// call.
func (c *EnvelopeCipher) EncryptToken(payload *challengeDomain.BearerPayload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	envelope := make([]byte, 0, len(envelopeVersion)+len(nonce)+len(plaintext)+c.aead.Overhead())
	envelope = append(envelope, envelopeVersion...)
	envelope = append(envelope, nonce...)
	envelope = c.aead.Seal(envelope, nonce, plaintext, nil)

	return base64.RawURLEncoding.EncodeToString(envelope), nil
}

// DecryptToken opens an envelope and returns the payload inside. The version
// prefix selects the cipher: current envelopes go through the AEAD, anything
// else falls back to the legacy cipher when one is configured. Every failure
// mode collapses into ErrInvalidToken so callers can not distinguish
// malformed, forged and truncated tokens.
func (c *EnvelopeCipher) DecryptToken(token string) (*challengeDomain.BearerPayload, error) {
	input, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, challengeDomain.ErrInvalidToken
	}

	plaintext, err := c.open(input)
	if err != nil {
		return nil, challengeDomain.ErrInvalidToken
	}

	payload := &challengeDomain.BearerPayload{}
	if err := json.Unmarshal(plaintext, payload); err != nil {
		return nil, challengeDomain.ErrInvalidToken
	}

	// A truncated envelope can decrypt to an empty token and would then
	// verify through action+id alone. Reject it before it reaches storage.
	if payload.Token == "" {
		return nil, challengeDomain.ErrInvalidToken
	}

	return payload, nil
}

func (c *EnvelopeCipher) open(input []byte) ([]byte, error) {
	headerLen := len(envelopeVersion) + c.aead.NonceSize()

	if bytes.HasPrefix(input, envelopeVersion) {
		if len(input) <= headerLen {
			return nil, errors.New("nonce not present")
		}
		nonce := input[len(envelopeVersion):headerLen]
		return c.aead.Open(nil, nonce, input[headerLen:], nil)
	}

	if c.legacy != nil {
		return c.legacy.decrypt(input)
	}

	return nil, challengeDomain.ErrLegacyNotConfigured
}
