package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
)

// RunCreateSharedSecret generates a random shared secret and prints it.
// The output is base64url without padding, long enough to satisfy the
// minimum shared secret length when used verbatim as CHALLENGE_SHARED_SECRET.
func RunCreateSharedSecret(io IOTuple) error {
	raw := make([]byte, challengeDomain.MinSharedSecretLength)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate shared secret: %w", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(raw)
	if _, err := fmt.Fprintln(io.Writer, secret); err != nil {
		return fmt.Errorf("failed to write shared secret: %w", err)
	}

	return nil
}
