package usecase

import (
	"context"
	"time"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/metrics"
)

// challengeUseCaseWithMetrics decorates ChallengeUseCase with metrics instrumentation.
type challengeUseCaseWithMetrics struct {
	next    ChallengeUseCase
	metrics metrics.BusinessMetrics
}

// NewChallengeUseCaseWithMetrics wraps a ChallengeUseCase with metrics recording.
func NewChallengeUseCaseWithMetrics(useCase ChallengeUseCase, m metrics.BusinessMetrics) ChallengeUseCase {
	return &challengeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *challengeUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "challenge", operation, status)
	c.metrics.RecordDuration(ctx, "challenge", operation, time.Since(start), status)
}

// Create records metrics for challenge creation operations.
func (c *challengeUseCaseWithMetrics) Create(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
	start := time.Now()
	output, err := c.next.Create(ctx, input)
	c.record(ctx, "challenge_create", start, err)
	return output, err
}

// Info records metrics for challenge lookup operations.
func (c *challengeUseCaseWithMetrics) Info(
	ctx context.Context,
	ref Reference,
) (*challengeDomain.Challenge, error) {
	start := time.Now()
	challenge, err := c.next.Info(ctx, ref)
	c.record(ctx, "challenge_info", start, err)
	return challenge, err
}

// Verify records metrics for challenge verification operations.
func (c *challengeUseCaseWithMetrics) Verify(
	ctx context.Context,
	ref Reference,
	settings VerifySettings,
) (*challengeDomain.Challenge, error) {
	start := time.Now()
	challenge, err := c.next.Verify(ctx, ref, settings)
	c.record(ctx, "challenge_verify", start, err)
	return challenge, err
}

// Regenerate records metrics for secret rotation operations.
func (c *challengeUseCaseWithMetrics) Regenerate(ctx context.Context, ref Reference) (*CreateOutput, error) {
	start := time.Now()
	output, err := c.next.Regenerate(ctx, ref)
	c.record(ctx, "challenge_regenerate", start, err)
	return output, err
}

// Remove records metrics for challenge revocation operations.
func (c *challengeUseCaseWithMetrics) Remove(ctx context.Context, ref Reference) error {
	start := time.Now()
	err := c.next.Remove(ctx, ref)
	c.record(ctx, "challenge_remove", start, err)
	return err
}
