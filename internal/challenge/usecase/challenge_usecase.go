package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	challengeService "github.com/allisson/challenge/internal/challenge/service"
	apperrors "github.com/allisson/challenge/internal/errors"
)

// challengeUseCase implements the ChallengeUseCase interface.
type challengeUseCase struct {
	repo   ChallengeRepository
	cipher challengeService.Cipher
}

// NewChallengeUseCase creates a new challenge use case instance with the
// provided dependencies.
func NewChallengeUseCase(repo ChallengeRepository, cipher challengeService.Cipher) ChallengeUseCase {
	return &challengeUseCase{repo: repo, cipher: cipher}
}

// Create issues a new challenge: derives defaults, generates the secret,
// seals the bearer token when encryption is requested and stores the record
// atomically.
func (c *challengeUseCase) Create(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	throttle := input.Throttle
	if input.ThrottleAuto {
		throttle = input.TTL
	}

	challenge := &challengeDomain.Challenge{
		ID:       input.ID,
		Action:   input.Action,
		TTL:      input.TTL,
		Throttle: throttle,
		Metadata: input.Metadata,
		Created:  time.Now().UnixMilli(),
	}
	output := &CreateOutput{ID: input.ID, Action: input.Action}

	// a uid handle is only assigned when rotation was requested
	if input.Regenerate {
		challenge.UID = uuid.NewString()
		output.UID = challenge.UID
	}

	if !input.SecretDisabled {
		settings := input.Secret
		if settings == nil {
			settings = challengeDomain.DefaultSecretSettings()
		}
		if err := settings.Validate(); err != nil {
			return nil, err
		}
		challenge.Settings = settings

		token, secret, err := challengeService.CreateSecret(c.cipher, settings, &challengeDomain.BearerPayload{
			ID:     challenge.ID,
			Action: challenge.Action,
			UID:    challenge.UID,
		})
		if err != nil {
			return nil, err
		}
		challenge.Secret = secret
		output.Token = token
	}

	if err := c.repo.Create(ctx, challenge); err != nil {
		return nil, err
	}

	return output, nil
}

// Info reads a challenge through any locator shape without verifying
// anything.
func (c *challengeUseCase) Info(ctx context.Context, ref Reference) (*challengeDomain.Challenge, error) {
	locator, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	return c.repo.Get(ctx, locator)
}

// Verify proves possession of a challenge secret. The locator must address
// the record through its secret key: resolving it constitutes the proof. On
// failure the resolved locator travels with the error.
func (c *challengeUseCase) Verify(
	ctx context.Context,
	ref Reference,
	settings VerifySettings,
) (*challengeDomain.Challenge, error) {
	locator, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	// verification gives authenticity guarantees only through the secret
	locator.UID = ""
	if locator.Secret == "" || locator.ID == "" || locator.Action == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "id, action and token are required")
	}

	if err := assertControl(settings.Control, locator); err != nil {
		return nil, err
	}

	challenge, err := c.repo.Verify(ctx, locator, settings.ShouldErase() && !settings.Log, time.Now().UnixMilli())
	if err != nil {
		return nil, &challengeDomain.VerifyError{Locator: locator, Err: err}
	}

	return challenge, nil
}

// Regenerate rotates the challenge secret using the settings persisted at
// creation time. Records without a secret cannot be rotated and report
// NotFound, matching a record that never existed.
func (c *challengeUseCase) Regenerate(ctx context.Context, ref Reference) (*CreateOutput, error) {
	locator, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	if locator.UID == "" && (locator.ID == "" || locator.Action == "") {
		return nil, challengeDomain.ErrInvalidLocator
	}

	challenge, err := c.repo.Get(ctx, locator)
	if err != nil {
		return nil, err
	}
	if challenge.Secret == "" || challenge.Settings == nil {
		return nil, challengeDomain.ErrSecretNotRotatable
	}

	token, secret, err := challengeService.CreateSecret(c.cipher, challenge.Settings, &challengeDomain.BearerPayload{
		ID:     challenge.ID,
		Action: challenge.Action,
		UID:    challenge.UID,
	})
	if err != nil {
		return nil, err
	}

	if err := c.repo.UpdateSecret(ctx, challenge, secret); err != nil {
		return nil, err
	}

	return &CreateOutput{
		ID:     challenge.ID,
		Action: challenge.Action,
		UID:    challenge.UID,
		Token:  token,
	}, nil
}

// Remove revokes a challenge and deletes its full key set, including the
// throttle key.
func (c *challengeUseCase) Remove(ctx context.Context, ref Reference) error {
	locator, err := c.resolve(ref)
	if err != nil {
		return err
	}

	challenge, err := c.repo.Get(ctx, locator)
	if err != nil {
		return err
	}

	return c.repo.Remove(ctx, challenge)
}

// resolve turns a reference into a structured locator, decrypting bearer
// tokens first. Decrypt and parse failures surface as invalid token without
// any storage call.
func (c *challengeUseCase) resolve(ref Reference) (challengeDomain.Locator, error) {
	if ref.Token != "" {
		payload, err := c.cipher.DecryptToken(ref.Token)
		if err != nil {
			return challengeDomain.Locator{}, err
		}
		return challengeDomain.Locator{
			ID:     payload.ID,
			Action: payload.Action,
			Secret: payload.Token,
		}, nil
	}

	if err := ref.Locator.Validate(); err != nil {
		return challengeDomain.Locator{}, err
	}
	return ref.Locator, nil
}

// assertControl compares caller-asserted control values against the resolved
// locator.
func assertControl(control, locator challengeDomain.Locator) error {
	if control.ID != "" && control.ID != locator.ID {
		return &challengeDomain.SanityCheckError{Field: "id", Expected: control.ID, Actual: locator.ID}
	}
	if control.Action != "" && control.Action != locator.Action {
		return &challengeDomain.SanityCheckError{Field: "action", Expected: control.Action, Actual: locator.Action}
	}
	return nil
}
