package commands

import (
	"encoding/json"
	"fmt"

	"github.com/allisson/challenge/internal/app"
	"github.com/allisson/challenge/internal/config"
	apperrors "github.com/allisson/challenge/internal/errors"
)

// RunDecryptToken decrypts a bearer token envelope using the configured
// cipher and prints the embedded payload as JSON. Useful for debugging
// tokens issued by a running deployment.
func RunDecryptToken(io IOTuple, token string) error {
	if token == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "a token argument is required")
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)

	cipher, err := container.Cipher()
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}

	payload, err := cipher.DecryptToken(token)
	if err != nil {
		return fmt.Errorf("failed to decrypt token: %w", err)
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	if _, err := fmt.Fprintln(io.Writer, string(encoded)); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	return nil
}
