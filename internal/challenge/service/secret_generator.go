package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/google/uuid"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
)

const numberChars = "0123456789"

type uuidGenerator struct{}

// NewUUIDGenerator creates a new UUID secret generator. Generates UUIDv4 secrets.
func NewUUIDGenerator() SecretGenerator {
	return &uuidGenerator{}
}

// Generate creates a new UUIDv4 secret.
func (g *uuidGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Validate checks if the secret is a valid UUID format.
func (g *uuidGenerator) Validate(secret string) error {
	_, err := uuid.Parse(secret)
	if err != nil {
		return errors.New("invalid UUID format")
	}
	return nil
}

type alphabetGenerator struct {
	pool   string
	length int
}

// NewAlphabetGenerator creates a generator that draws cryptographically secure
// random characters from the given pool.
func NewAlphabetGenerator(pool string, length int) SecretGenerator {
	return &alphabetGenerator{pool: pool, length: length}
}

// Generate creates a random secret of the configured length using only
// characters from the configured pool.
func (g *alphabetGenerator) Generate() (string, error) {
	if g.length < 1 {
		return "", errors.New("length must be at least 1")
	}
	if g.length > challengeDomain.MaxSecretLength {
		return "", errors.New("length must not exceed 255")
	}
	if g.pool == "" {
		return "", errors.New("alphabet must not be empty")
	}

	// the pool is drawn by rune, not by byte, so multibyte alphabets
	// produce valid UTF-8 and every character stays equally likely
	pool := []rune(g.pool)
	secret := make([]rune, g.length)
	poolLen := big.NewInt(int64(len(pool)))

	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, poolLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		secret[i] = pool[n.Int64()]
	}

	return string(secret), nil
}

// Validate checks if the secret has the configured length and contains only
// characters from the configured pool.
func (g *alphabetGenerator) Validate(secret string) error {
	if utf8.RuneCountInString(secret) != g.length {
		return fmt.Errorf("secret must have exactly %d characters", g.length)
	}

	for _, c := range secret {
		if !containsRune(g.pool, c) {
			return errors.New("secret contains characters outside the configured alphabet")
		}
	}

	return nil
}

// NewNumberGenerator creates a generator for numeric secrets of the specified
// length, such as SMS confirmation codes.
func NewNumberGenerator(length int) SecretGenerator {
	return &alphabetGenerator{pool: numberChars, length: length}
}

// NewSecretGenerator creates a secret generator based on the settings type.
func NewSecretGenerator(settings *challengeDomain.SecretSettings) (SecretGenerator, error) {
	switch settings.Type {
	case challengeDomain.SecretUUID:
		return NewUUIDGenerator(), nil
	case challengeDomain.SecretAlphabet:
		return NewAlphabetGenerator(settings.Alphabet, settings.Length), nil
	case challengeDomain.SecretNumber:
		return NewNumberGenerator(settings.Length), nil
	default:
		return nil, challengeDomain.ErrUnsupportedSecret
	}
}

// CreateSecret generates a secret per the settings and derives the bearer
// token from it: the raw secret when encryption is off, or an encrypted
// envelope embedding the payload and secret when it is on.
func CreateSecret(
	cipher Cipher,
	settings *challengeDomain.SecretSettings,
	payload *challengeDomain.BearerPayload,
) (token, secret string, err error) {
	generator, err := NewSecretGenerator(settings)
	if err != nil {
		return "", "", err
	}

	secret, err = generator.Generate()
	if err != nil {
		return "", "", err
	}

	if !settings.Encrypt {
		return secret, secret, nil
	}

	sealed := *payload
	sealed.Token = secret
	token, err = cipher.EncryptToken(&sealed)
	if err != nil {
		return "", "", err
	}

	return token, secret, nil
}

func containsRune(pool string, r rune) bool {
	for _, c := range pool {
		if c == r {
			return true
		}
	}
	return false
}
