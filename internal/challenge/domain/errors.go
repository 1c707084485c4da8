package domain

import (
	"fmt"

	"github.com/allisson/challenge/internal/errors"
)

// Challenge domain errors.
var (
	ErrChallengeNotFound    = errors.Wrap(errors.ErrNotFound, "challenge not found")
	ErrChallengeConflict    = errors.Wrap(errors.ErrConflict, "challenge was changed concurrently")
	ErrInvalidToken         = errors.Wrap(errors.ErrInvalidInput, "invalid token")
	ErrInvalidLocator       = errors.Wrap(errors.ErrInvalidInput, "unable to locate challenge: id+action, uid or token is required")
	ErrUnsupportedSecret    = errors.Wrap(errors.ErrInvalidInput, "unsupported secret type")
	ErrSecretNotRotatable   = errors.Wrap(errors.ErrNotFound, "challenge secret can not be regenerated")
	ErrLegacyNotConfigured  = errors.Wrap(errors.ErrInvalidInput, "legacy secret is not configured")
	ErrInvalidSharedSecret  = errors.New("shared secret must have at least 32 bytes")
	ErrInvalidLegacySecret  = errors.New("legacy secret must have at least 24 bytes")
	ErrMetadataNotSupported = errors.Wrap(errors.ErrInvalidInput, "metadata must be JSON serializable")
)

// ThrottledError reports that a challenge for the same action and id was
// created too recently. It wraps errors.ErrThrottled and carries the original
// creation context so callers can tell the client when to retry.
type ThrottledError struct {
	Context ThrottleContext
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("challenge throttled: action=%q id=%q throttle=%ds", e.Context.Action, e.Context.ID, e.Context.Throttle)
}

func (e *ThrottledError) Unwrap() error {
	return errors.ErrThrottled
}

// SanityCheckError reports a mismatch between a control value supplied by the
// caller and the value stored on the challenge record.
type SanityCheckError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *SanityCheckError) Error() string {
	return fmt.Sprintf("sanity check failed for %q failed: %q vs %q", e.Field, e.Expected, e.Actual)
}

func (e *SanityCheckError) Unwrap() error {
	return errors.ErrInvalidInput
}

// VerifyError wraps a verification failure together with the locator that was
// used, so the caller can still identify which challenge the attempt targeted.
type VerifyError struct {
	Locator Locator
	Err     error
}

func (e *VerifyError) Error() string {
	return e.Err.Error()
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}
