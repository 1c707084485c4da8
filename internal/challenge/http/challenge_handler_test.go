package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/challenge/http/dto"
	challengeUseCase "github.com/allisson/challenge/internal/challenge/usecase"
	"github.com/allisson/challenge/internal/challenge/usecase/mocks"
	"github.com/allisson/challenge/internal/httputil"
)

// setupTestHandler creates a test handler with a mocked use case.
func setupTestHandler(t *testing.T) (*ChallengeHandler, *mocks.MockChallengeUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockChallengeUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewChallengeHandler(mockUseCase, logger), mockUseCase
}

// createTestContext builds a gin context with a JSON request body.
func createTestContext(t *testing.T, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewBufferString(raw)
	} else {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	c.Request = httptest.NewRequest(http.MethodPost, "/", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestChallengeHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		expected := &challengeUseCase.CreateOutput{
			ID:     "user@example.com",
			Action: "activate",
			Token:  "envelope-token",
		}

		mockUseCase.On("Create", mock.Anything, mock.MatchedBy(func(input *challengeUseCase.CreateInput) bool {
			return input.ID == "user@example.com" && input.Action == "activate" && input.TTL == 300
		})).Return(expected, nil).Once()

		c, w := createTestContext(t, dto.CreateChallengeRequest{
			ID: "user@example.com", Action: "activate", TTL: 300,
		})
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.CreateChallengeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "user@example.com", response.ID)
		assert.Equal(t, "envelope-token", response.Secret)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_ThrottleTrue", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		expected := &challengeUseCase.CreateOutput{ID: "user@example.com", Action: "activate"}
		mockUseCase.On("Create", mock.Anything, mock.MatchedBy(func(input *challengeUseCase.CreateInput) bool {
			return input.ThrottleAuto && input.Throttle == 0
		})).Return(expected, nil).Once()

		c, w := createTestContext(t, `{"id": "user@example.com", "action": "activate", "ttl": 300, "throttle": true}`)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(t, `{"id": `)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})

	t.Run("ValidationError", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(t, dto.CreateChallengeRequest{Action: "activate"})
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
		mockUseCase.AssertNotCalled(t, "Create")
	})

	t.Run("Throttled", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		throttled := &challengeDomain.ThrottledError{
			Context: challengeDomain.ThrottleContext{
				ID: "user@example.com", Action: "activate", Throttle: 60, Created: 1700000000000,
			},
		}
		mockUseCase.On("Create", mock.Anything, mock.Anything).Return(nil, throttled).Once()

		c, w := createTestContext(t, dto.CreateChallengeRequest{
			ID: "user@example.com", Action: "activate", TTL: 300, Throttle: json.RawMessage("60"),
		})
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		var response httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "throttled", response.Error)
		assert.NotNil(t, response.Context)
		mockUseCase.AssertExpectations(t)
	})
}

func TestChallengeHandler_InfoHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		challenge := &challengeDomain.Challenge{
			ID: "user@example.com", Action: "activate", TTL: 300, Created: 1700000000000,
		}
		mockUseCase.On("Info", mock.Anything, challengeUseCase.Reference{
			Locator: challengeDomain.Locator{ID: "user@example.com", Action: "activate"},
		}).Return(challenge, nil).Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{
			ID: "user@example.com", Action: "activate",
		})
		handler.InfoHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ChallengeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "user@example.com", response.ID)
		assert.Equal(t, int64(300), response.TTL)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("EmptyReference", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{})
		handler.InfoHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Info")
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Info", mock.Anything, mock.Anything).
			Return(nil, challengeDomain.ErrChallengeNotFound).
			Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{UID: "uid-1"})
		handler.InfoHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestChallengeHandler_VerifyHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		challenge := &challengeDomain.Challenge{
			ID: "user@example.com", Action: "activate",
			Verified: 1700000000000, IsFirstVerification: true,
		}
		mockUseCase.On("Verify", mock.Anything,
			challengeUseCase.Reference{Token: "envelope-token"},
			mock.MatchedBy(func(settings challengeUseCase.VerifySettings) bool {
				return settings.ShouldErase() && !settings.Log
			}),
		).Return(challenge, nil).Once()

		c, w := createTestContext(t, dto.VerifyChallengeRequest{
			ChallengeReferenceRequest: dto.ChallengeReferenceRequest{Token: "envelope-token"},
		})
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ChallengeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.IsFirstVerification)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Verify", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, challengeDomain.ErrInvalidToken).
			Once()

		c, w := createTestContext(t, dto.VerifyChallengeRequest{
			ChallengeReferenceRequest: dto.ChallengeReferenceRequest{Token: "garbage"},
		})
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("ControlMismatch", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		sanity := &challengeDomain.SanityCheckError{
			Field: "id", Expected: "other@example.com", Actual: "user@example.com",
		}
		mockUseCase.On("Verify", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, sanity).
			Once()

		c, w := createTestContext(t, dto.VerifyChallengeRequest{
			ChallengeReferenceRequest: dto.ChallengeReferenceRequest{Token: "envelope-token"},
			Control:                   &dto.ControlRequest{ID: "other@example.com"},
		})
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "sanity check")
		mockUseCase.AssertExpectations(t)
	})
}

func TestChallengeHandler_RegenerateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		expected := &challengeUseCase.CreateOutput{
			ID: "user@example.com", Action: "activate", UID: "uid-1", Token: "rotated",
		}
		mockUseCase.On("Regenerate", mock.Anything, challengeUseCase.Reference{
			Locator: challengeDomain.Locator{UID: "uid-1"},
		}).Return(expected, nil).Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{UID: "uid-1"})
		handler.RegenerateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.CreateChallengeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "rotated", response.Secret)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("SecretlessChallenge", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Regenerate", mock.Anything, mock.Anything).
			Return(nil, challengeDomain.ErrSecretNotRotatable).
			Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{UID: "uid-1"})
		handler.RegenerateHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestChallengeHandler_RemoveHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Remove", mock.Anything, challengeUseCase.Reference{
			Locator: challengeDomain.Locator{ID: "user@example.com", Action: "activate"},
		}).Return(nil).Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{
			ID: "user@example.com", Action: "activate",
		})
		handler.RemoveHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Conflict", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Remove", mock.Anything, mock.Anything).
			Return(challengeDomain.ErrChallengeConflict).
			Once()

		c, w := createTestContext(t, dto.ChallengeReferenceRequest{UID: "uid-1"})
		handler.RemoveHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
