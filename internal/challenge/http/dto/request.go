// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	validation "github.com/jellydator/validation"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/challenge/usecase"
	apperrors "github.com/allisson/challenge/internal/errors"
	customValidation "github.com/allisson/challenge/internal/validation"
)

// SecretConfig configures secret generation for a create request. Encrypt is
// a pointer so its default can depend on the secret type: uuid secrets are
// wrapped in an encrypted envelope unless the caller opts out, every other
// type is delivered raw unless the caller opts in.
type SecretConfig struct {
	Type     string `json:"type"`
	Alphabet string `json:"alphabet"`
	Length   int    `json:"length"`
	Encrypt  *bool  `json:"encrypt"`
}

func (s *SecretConfig) toSettings() *challengeDomain.SecretSettings {
	settings := &challengeDomain.SecretSettings{
		Type:     challengeDomain.SecretType(s.Type),
		Alphabet: s.Alphabet,
		Length:   s.Length,
	}
	if s.Type == "" {
		settings.Type = challengeDomain.SecretUUID
	}
	if s.Encrypt != nil {
		settings.Encrypt = *s.Encrypt
	} else {
		settings.Encrypt = settings.Type == challengeDomain.SecretUUID
	}
	return settings
}

// CreateChallengeRequest contains the parameters for issuing a new challenge.
// Secret accepts an object, true for the defaults, or false to issue a
// secretless challenge. Throttle accepts a number of seconds or true for a
// window equal to the ttl.
type CreateChallengeRequest struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	TTL        int64           `json:"ttl"`
	Throttle   json.RawMessage `json:"throttle"`
	Metadata   any             `json:"metadata"`
	Secret     json.RawMessage `json:"secret"`
	Regenerate bool            `json:"regenerate"`
}

// Validate checks if the create challenge request is valid.
func (r *CreateChallengeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID,
			validation.Required,
			validation.Length(1, 255),
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Action,
			validation.Required,
			validation.Length(1, 255),
			customValidation.NotBlank,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.TTL, validation.Min(0)),
	)
}

// ToInput converts the request into a use case input, resolving the
// polymorphic secret and throttle fields.
func (r *CreateChallengeRequest) ToInput() (*usecase.CreateInput, error) {
	input := &usecase.CreateInput{
		ID:         r.ID,
		Action:     r.Action,
		TTL:        r.TTL,
		Metadata:   r.Metadata,
		Regenerate: r.Regenerate,
	}

	rawThrottle := bytes.TrimSpace(r.Throttle)
	switch {
	case len(rawThrottle) == 0, bytes.Equal(rawThrottle, []byte("null")), bytes.Equal(rawThrottle, []byte("false")):
		// no throttle window
	case bytes.Equal(rawThrottle, []byte("true")):
		input.ThrottleAuto = true
	default:
		if err := json.Unmarshal(rawThrottle, &input.Throttle); err != nil || input.Throttle < 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "throttle must be a non-negative number or true")
		}
	}

	raw := bytes.TrimSpace(r.Secret)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("true")):
		// defaults apply
	case bytes.Equal(raw, []byte("false")):
		input.SecretDisabled = true
	default:
		var config SecretConfig
		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "secret must be an object or a boolean")
		}
		input.Secret = config.toSettings()
	}

	return input, nil
}

// ChallengeReferenceRequest identifies an existing challenge: an opaque
// bearer token, or a structured locator.
type ChallengeReferenceRequest struct {
	Token  string `json:"token"`
	ID     string `json:"id"`
	Action string `json:"action"`
	UID    string `json:"uid"`
	Secret string `json:"secret"`
}

// Validate checks that the request carries at least one way to find a challenge.
func (r *ChallengeReferenceRequest) Validate() error {
	if r.Token == "" && r.ID == "" && r.UID == "" && r.Secret == "" {
		return validation.Errors{
			"token": apperrors.New("a token or a locator is required"),
		}
	}
	if r.Token != "" {
		// padding is tolerated on the wire, the cipher strips it
		if err := validation.Validate(strings.TrimRight(r.Token, "="), customValidation.Base64URL); err != nil {
			return validation.Errors{"token": err}
		}
	}
	return nil
}

// ToReference converts the request into a use case reference.
func (r *ChallengeReferenceRequest) ToReference() usecase.Reference {
	return usecase.Reference{
		Token: r.Token,
		Locator: challengeDomain.Locator{
			ID:     r.ID,
			Action: r.Action,
			UID:    r.UID,
			Secret: r.Secret,
		},
	}
}

// VerifyChallengeRequest contains the parameters for verifying a challenge
// secret. Control values, when present, are compared against the resolved
// challenge before any storage call.
type VerifyChallengeRequest struct {
	ChallengeReferenceRequest
	Erase   *bool           `json:"erase"`
	Log     bool            `json:"log"`
	Control *ControlRequest `json:"control"`
}

// ControlRequest holds caller-asserted challenge coordinates.
type ControlRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	UID    string `json:"uid"`
}

// ToSettings converts the request into use case verify settings.
func (r *VerifyChallengeRequest) ToSettings() usecase.VerifySettings {
	settings := usecase.VerifySettings{
		Erase: r.Erase,
		Log:   r.Log,
	}
	if r.Control != nil {
		settings.Control = challengeDomain.Locator{
			ID:     r.Control.ID,
			Action: r.Control.Action,
			UID:    r.Control.UID,
		}
	}
	return settings
}
