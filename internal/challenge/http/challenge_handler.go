// Package http provides HTTP handlers for the challenge token lifecycle.
// Every operation is a POST: challenges are addressed by opaque bearer
// tokens or structured locators carried in the request body, never in URLs.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/challenge/internal/challenge/http/dto"
	challengeUseCase "github.com/allisson/challenge/internal/challenge/usecase"
	"github.com/allisson/challenge/internal/httputil"
	customValidation "github.com/allisson/challenge/internal/validation"
)

// ChallengeHandler handles HTTP requests for challenge lifecycle operations.
type ChallengeHandler struct {
	useCase challengeUseCase.ChallengeUseCase
	logger  *slog.Logger
}

// NewChallengeHandler creates a new challenge handler with required dependencies.
func NewChallengeHandler(useCase challengeUseCase.ChallengeUseCase, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// CreateHandler issues a new challenge.
// POST /v1/challenges
// Returns 201 Created with the deliverable secret, or 429 with a throttle
// context when the previous challenge's throttle window has not elapsed.
func (h *ChallengeHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateChallengeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.useCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCreateOutputToResponse(output))
}

// InfoHandler returns a stored challenge without touching it.
// POST /v1/challenges/info
func (h *ChallengeHandler) InfoHandler(c *gin.Context) {
	var req dto.ChallengeReferenceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	challenge, err := h.useCase.Info(c.Request.Context(), req.ToReference())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapChallengeToResponse(challenge))
}

// VerifyHandler checks a presented secret and, by default, erases the
// challenge on success.
// POST /v1/challenges/verify
func (h *ChallengeHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyChallengeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	challenge, err := h.useCase.Verify(c.Request.Context(), req.ToReference(), req.ToSettings())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapChallengeToResponse(challenge))
}

// RegenerateHandler rotates the challenge secret and returns the replacement.
// POST /v1/challenges/regenerate
func (h *ChallengeHandler) RegenerateHandler(c *gin.Context) {
	var req dto.ChallengeReferenceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.useCase.Regenerate(c.Request.Context(), req.ToReference())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCreateOutputToResponse(output))
}

// RemoveHandler revokes a challenge and clears its throttle window.
// POST /v1/challenges/remove
func (h *ChallengeHandler) RemoveHandler(c *gin.Context) {
	var req dto.ChallengeReferenceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.useCase.Remove(c.Request.Context(), req.ToReference()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
