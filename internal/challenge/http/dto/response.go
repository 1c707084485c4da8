package dto

import (
	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	"github.com/allisson/challenge/internal/challenge/usecase"
)

// CreateChallengeResponse represents a freshly issued challenge.
// SECURITY: Secret is the only copy of the deliverable token; it is never
// returned by any other operation.
type CreateChallengeResponse struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	UID    string `json:"uid,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// MapCreateOutputToResponse converts a use case create output to an API response.
func MapCreateOutputToResponse(output *usecase.CreateOutput) CreateChallengeResponse {
	return CreateChallengeResponse{
		ID:     output.ID,
		Action: output.Action,
		UID:    output.UID,
		Secret: output.Token,
	}
}

// ChallengeResponse represents a stored challenge in API responses. The raw
// secret is never included.
type ChallengeResponse struct {
	ID                  string                          `json:"id"`
	Action              string                          `json:"action"`
	UID                 string                          `json:"uid,omitempty"`
	Settings            *challengeDomain.SecretSettings `json:"settings,omitempty"`
	Metadata            any                             `json:"metadata,omitempty"`
	TTL                 int64                           `json:"ttl"`
	Throttle            int64                           `json:"throttle,omitempty"`
	Created             int64                           `json:"created"`
	Verified            int64                           `json:"verified,omitempty"`
	Related             []string                        `json:"related,omitempty"`
	IsFirstVerification bool                            `json:"is_first_verification,omitempty"`
}

// MapChallengeToResponse converts a domain challenge to an API response.
func MapChallengeToResponse(challenge *challengeDomain.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:                  challenge.ID,
		Action:              challenge.Action,
		UID:                 challenge.UID,
		Settings:            challenge.Settings,
		Metadata:            challenge.Metadata,
		TTL:                 challenge.TTL,
		Throttle:            challenge.Throttle,
		Created:             challenge.Created,
		Verified:            challenge.Verified,
		Related:             challenge.Related,
		IsFirstVerification: challenge.IsFirstVerification,
	}
}
