// Package usecase implements the challenge token lifecycle: issuing,
// inspecting, verifying, rotating and revoking short-lived challenge tokens.
// It orchestrates the secret generator, the bearer cipher and the atomic
// storage operations of the repository.
package usecase

import (
	"context"

	validation "github.com/jellydator/validation"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	apperrors "github.com/allisson/challenge/internal/errors"
	customValidation "github.com/allisson/challenge/internal/validation"
)

// ChallengeRepository defines the interface for challenge persistence
// operations. Every mutation is atomic across the record's full key set.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *challengeDomain.Challenge) error
	Get(ctx context.Context, locator challengeDomain.Locator) (*challengeDomain.Challenge, error)
	Verify(
		ctx context.Context,
		locator challengeDomain.Locator,
		erase bool,
		now int64,
	) (*challengeDomain.Challenge, error)
	UpdateSecret(ctx context.Context, challenge *challengeDomain.Challenge, newSecret string) error
	Remove(ctx context.Context, challenge *challengeDomain.Challenge) error
}

// Reference identifies a challenge for lookup-style operations: either an
// opaque bearer token, which is decrypted before it reaches storage, or a
// structured locator.
type Reference struct {
	Token   string
	Locator challengeDomain.Locator
}

// CreateInput carries the caller's intent for issuing a new challenge.
type CreateInput struct {
	ID       string
	Action   string
	TTL      int64
	Throttle int64
	// ThrottleAuto requests a throttle window equal to the ttl.
	ThrottleAuto bool
	Metadata     any
	// Secret configures secret generation; nil selects the defaults
	// (uuid, encrypted) unless SecretDisabled is set.
	Secret         *challengeDomain.SecretSettings
	SecretDisabled bool
	// Regenerate assigns a uid handle so the secret can be rotated later.
	Regenerate bool
}

// validate checks the cross-field constraints of the input and reports every
// violation at once, matching how the transport layer reports field rules.
func (i *CreateInput) validate() error {
	violations := validation.Errors{}

	if i.ID == "" {
		violations["id"] = apperrors.New("cannot be blank")
	}
	if i.Action == "" {
		violations["action"] = apperrors.New("cannot be blank")
	}
	if i.TTL < 0 {
		violations["ttl"] = apperrors.New("must not be negative")
	}
	switch {
	case i.Throttle < 0:
		violations["throttle"] = apperrors.New("must not be negative")
	case (i.Throttle > 0 || i.ThrottleAuto) && i.TTL == 0:
		violations["throttle"] = apperrors.New("requires a ttl")
	case i.Throttle > i.TTL && i.TTL >= 0:
		violations["throttle"] = apperrors.New("must not exceed the ttl")
	}
	if i.Regenerate && i.SecretDisabled {
		violations["regenerate"] = apperrors.New("requires a secret")
	}

	if len(violations) > 0 {
		return customValidation.WrapValidationError(violations)
	}
	return nil
}

// CreateOutput is the caller-visible result of issuing a challenge. Token is
// the value to deliver to the challenged party: the raw secret, or an
// encrypted envelope embedding it.
type CreateOutput struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	UID    string `json:"uid,omitempty"`
	Token  string `json:"secret,omitempty"`
}

// VerifySettings tunes a verification call.
type VerifySettings struct {
	// Erase removes the record on success. Defaults to true.
	Erase *bool
	// Log retains the record and only stamps the verification timestamp.
	Log bool
	// Control holds caller-asserted values compared against the resolved
	// locator before any storage call.
	Control challengeDomain.Locator
}

// ShouldErase resolves the erase default.
func (s VerifySettings) ShouldErase() bool {
	if s.Erase == nil {
		return true
	}
	return *s.Erase
}

// ChallengeUseCase defines the challenge lifecycle business logic.
type ChallengeUseCase interface {
	Create(ctx context.Context, input *CreateInput) (*CreateOutput, error)
	Info(ctx context.Context, ref Reference) (*challengeDomain.Challenge, error)
	Verify(ctx context.Context, ref Reference, settings VerifySettings) (*challengeDomain.Challenge, error)
	Regenerate(ctx context.Context, ref Reference) (*CreateOutput, error)
	Remove(ctx context.Context, ref Reference) error
}
