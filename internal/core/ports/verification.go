package ports

import (
	"context"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// VerifyInput carries one verification attempt.
type VerifyInput struct {
	UserID      string
	ChallengeID string
	Audio       []byte
}

// VerifyResult is the decided, recorded outcome of a verification attempt.
type VerifyResult struct {
	AttemptID string
	Accepted  bool
	Reason    domain.DecisionReason
	Scores    domain.Scores
	// RetriesLeft is the remaining bounded retry budget for this user
	// before RETRIES_EXHAUSTED becomes terminal.
	RetriesLeft int
}

// VerificationService orchestrates a verification attempt: challenge
// consumption, parallel score collection, policy decision, audit append.
type VerificationService interface {
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}
