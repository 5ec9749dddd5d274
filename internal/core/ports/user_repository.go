package ports

import (
	"context"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// UserRepository defines persistence operations for biometric subjects.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// EnsureExists creates the user record in unenrolled state if it is
	// not already present.
	EnsureExists(ctx context.Context, id string) (*domain.User, error)
	SetEnrolled(ctx context.Context, id string) error
	// RecordFailure atomically increments the failed-attempt counter and
	// returns the new count. When the new count reaches lockThreshold the
	// lock timestamp is applied in the same update, so two racing rejects
	// cannot skip past the lockout.
	RecordFailure(ctx context.Context, id string, lockThreshold int, lockUntil time.Time) (int, error)
	// ResetFailures clears the counter and lock after an accepted attempt.
	ResetFailures(ctx context.Context, id string) error
}

// VoiceprintRepository defines persistence operations for voiceprints.
type VoiceprintRepository interface {
	// Upsert stores the voiceprint, superseding any previous one for the
	// same user.
	Upsert(ctx context.Context, vp *domain.Voiceprint) error
	FindByUser(ctx context.Context, userID string) (*domain.Voiceprint, error)
	Delete(ctx context.Context, userID string) error
}
