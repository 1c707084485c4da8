package domain

import (
	"github.com/jellydator/validation"

	"github.com/allisson/challenge/internal/errors"
)

// SecretSettings controls how a challenge secret is generated and whether the
// resulting bearer token is encrypted into a self-describing envelope.
type SecretSettings struct {
	Type     SecretType `json:"type"`
	Alphabet string     `json:"alphabet,omitempty"`
	Length   int        `json:"length,omitempty"`
	Encrypt  bool       `json:"encrypt"`
}

// DefaultSecretSettings returns the settings applied when a create request
// does not specify any: a uuid secret wrapped in an encrypted envelope.
func DefaultSecretSettings() *SecretSettings {
	return &SecretSettings{Type: SecretUUID, Encrypt: true}
}

// Validate checks the settings for consistency.
func (s *SecretSettings) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Type, validation.Required, validation.By(func(value interface{}) error {
			return value.(SecretType).Validate()
		})),
	)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	switch s.Type {
	case SecretAlphabet:
		if s.Alphabet == "" {
			return errors.Wrap(errors.ErrInvalidInput, "alphabet secret requires a non-empty alphabet")
		}
		if s.Length < 1 || s.Length > MaxSecretLength {
			return errors.Wrap(errors.ErrInvalidInput, "alphabet secret requires a length between 1 and 255")
		}
	case SecretNumber:
		if s.Length < 1 || s.Length > MaxSecretLength {
			return errors.Wrap(errors.ErrInvalidInput, "number secret requires a length between 1 and 255")
		}
	}
	return nil
}
