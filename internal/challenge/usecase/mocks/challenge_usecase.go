// Package mocks provides mock implementations for testing callers of the
// challenge use case.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/challenge/usecase"
)

// MockChallengeUseCase is a mock implementation of ChallengeUseCase for testing.
type MockChallengeUseCase struct {
	mock.Mock
}

// Create mocks the Create method of ChallengeUseCase.
func (m *MockChallengeUseCase) Create(
	ctx context.Context,
	input *usecase.CreateInput,
) (*usecase.CreateOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateOutput), args.Error(1)
}

// Info mocks the Info method of ChallengeUseCase.
func (m *MockChallengeUseCase) Info(
	ctx context.Context,
	ref usecase.Reference,
) (*challengeDomain.Challenge, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*challengeDomain.Challenge), args.Error(1)
}

// Verify mocks the Verify method of ChallengeUseCase.
func (m *MockChallengeUseCase) Verify(
	ctx context.Context,
	ref usecase.Reference,
	settings usecase.VerifySettings,
) (*challengeDomain.Challenge, error) {
	args := m.Called(ctx, ref, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*challengeDomain.Challenge), args.Error(1)
}

// Regenerate mocks the Regenerate method of ChallengeUseCase.
func (m *MockChallengeUseCase) Regenerate(
	ctx context.Context,
	ref usecase.Reference,
) (*usecase.CreateOutput, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateOutput), args.Error(1)
}

// Remove mocks the Remove method of ChallengeUseCase.
func (m *MockChallengeUseCase) Remove(ctx context.Context, ref usecase.Reference) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
