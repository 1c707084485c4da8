package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	apperrors "github.com/allisson/challenge/internal/errors"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "not found",
			err:          apperrors.Wrap(apperrors.ErrNotFound, "challenge lookup"),
			expectedCode: http.StatusNotFound,
			expectedBody: "not_found",
		},
		{
			name:         "conflict",
			err:          challengeDomain.ErrChallengeConflict,
			expectedCode: http.StatusConflict,
			expectedBody: "conflict",
		},
		{
			name:         "invalid input",
			err:          apperrors.ErrInvalidInput,
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: "invalid_input",
		},
		{
			name:         "unauthorized",
			err:          apperrors.ErrUnauthorized,
			expectedCode: http.StatusUnauthorized,
			expectedBody: "unauthorized",
		},
		{
			name:         "internal error hides details",
			err:          errors.New("redis connection reset"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)

			HandleErrorGin(c, tt.err, slog.Default())

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandleErrorGinThrottled(t *testing.T) {
	c, w := newTestContext(t)

	err := &challengeDomain.ThrottledError{
		Context: challengeDomain.ThrottleContext{
			ID:       "user@example.com",
			Action:   "activate",
			Throttle: 60,
			Created:  1700000000000,
		},
	}

	HandleErrorGin(c, err, slog.Default())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "throttled", response.Error)

	context, ok := response.Context.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user@example.com", context["id"])
	assert.Equal(t, "activate", context["action"])
	assert.Equal(t, float64(60), context["throttle"])
}

func TestHandleBadRequestGin(t *testing.T) {
	c, w := newTestContext(t)

	HandleBadRequestGin(c, errors.New("unexpected EOF"), slog.Default())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, w := newTestContext(t)

	HandleValidationErrorGin(c, errors.New("action: cannot be blank"), slog.Default())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Contains(t, w.Body.String(), "action: cannot be blank")
}
