package ports

import (
	"context"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// ChallengeRepository defines persistence operations for challenges.
// Challenges must be durable: a crash after issuance cannot silently lose
// a liveness window the client is already shown.
type ChallengeRepository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	FindByID(ctx context.Context, id string) (*domain.Challenge, error)
	// Consume atomically marks the challenge used, conditional on it
	// belonging to userID, not being expired at now, and not having been
	// used before. Two racing calls yield exactly one winner; the loser
	// receives domain.ErrChallengeReplayed (or ErrChallengeExpired when
	// the window already lapsed).
	Consume(ctx context.Context, id, userID string, now time.Time) (*domain.Challenge, error)
	// RecentPhraseIDs returns the phrase ids of the user's last n
	// challenges, newest first, for the issuance exclusion window.
	RecentPhraseIDs(ctx context.Context, userID string, n int) ([]string, error)
	// CountActive returns the number of unconsumed, unexpired challenges
	// the user currently holds.
	CountActive(ctx context.Context, userID string, now time.Time) (int64, error)
	// Release clears the used marker set by Consume. It compensates the
	// case where a consumed challenge's sample could not be stored, so the
	// client gets the phrase back instead of losing the slot.
	Release(ctx context.Context, id string) error
}

// IssuedChallenge is the client-facing view of a freshly issued challenge.
type IssuedChallenge struct {
	ChallengeID string
	PhraseText  string
	ExpiresAt   time.Time
}

// ChallengeService issues single-use, time-boxed phrase challenges.
type ChallengeService interface {
	// Issue creates and persists a verification challenge for the user.
	Issue(ctx context.Context, userID string) (*domain.Challenge, error)
	// IssueBatch creates n challenges with distinct phrases for an
	// enrollment session.
	IssueBatch(ctx context.Context, userID string, n int) ([]*domain.Challenge, error)
}
