package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/api/metrics"
	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// RateLimiter abstracts the shared challenges-per-window counter (Redis).
type RateLimiter interface {
	// Allow atomically counts one issuance for the user and reports
	// whether the user is still within the window limit.
	Allow(ctx context.Context, userID string) (bool, error)
}

// ChallengePolicy carries the injected issuance settings.
type ChallengePolicy struct {
	// TTL is the challenge liveness window.
	TTL time.Duration
	// ExclusionWindow is how many recent challenges a phrase must stay
	// out of before it can be offered to the same user again.
	ExclusionWindow int
	// MaxActive caps the user's concurrent unconsumed challenges.
	MaxActive int64
	// Difficulty is passed through to the phrase catalog.
	Difficulty string
}

// ChallengeService issues single-use, time-boxed phrase challenges.
type ChallengeService struct {
	challenges ports.ChallengeRepository
	catalog    ports.PhraseCatalog
	limiter    RateLimiter
	policy     ChallengePolicy
	log        zerolog.Logger
}

func NewChallengeService(
	challenges ports.ChallengeRepository,
	catalog ports.PhraseCatalog,
	limiter RateLimiter,
	policy ChallengePolicy,
	log zerolog.Logger,
) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		catalog:    catalog,
		limiter:    limiter,
		policy:     policy,
		log:        log,
	}
}

// Issue creates and persists one challenge for the user. The challenge is
// written before it is returned so a crash after issuance cannot lose a
// liveness window the client is already shown.
func (s *ChallengeService) Issue(ctx context.Context, userID string) (*domain.Challenge, error) {
	if err := s.checkLimits(ctx, userID); err != nil {
		return nil, err
	}

	exclude, err := s.challenges.RecentPhraseIDs(ctx, userID, s.policy.ExclusionWindow)
	if err != nil {
		return nil, fmt.Errorf("recent phrases: %w", err)
	}

	ch, err := s.issueOne(ctx, userID, exclude)
	if err != nil {
		return nil, err
	}

	metrics.ChallengesIssuedTotal.Inc()
	s.log.Info().
		Str("challenge_id", ch.ID).
		Str("user_id", userID).
		Time("expires_at", ch.ExpiresAt).
		Msg("challenge issued")
	return ch, nil
}

// IssueBatch creates n challenges with pairwise-distinct phrases for an
// enrollment session. Rate limits are checked once for the whole batch.
func (s *ChallengeService) IssueBatch(ctx context.Context, userID string, n int) ([]*domain.Challenge, error) {
	if err := s.checkLimits(ctx, userID); err != nil {
		return nil, err
	}

	exclude, err := s.challenges.RecentPhraseIDs(ctx, userID, s.policy.ExclusionWindow)
	if err != nil {
		return nil, fmt.Errorf("recent phrases: %w", err)
	}

	issued := make([]*domain.Challenge, 0, n)
	for i := 0; i < n; i++ {
		ch, err := s.issueOne(ctx, userID, exclude)
		if err != nil {
			return nil, err
		}
		exclude = append(exclude, ch.PhraseID)
		issued = append(issued, ch)
	}

	metrics.ChallengesIssuedTotal.Add(float64(n))
	s.log.Info().Str("user_id", userID).Int("count", n).Msg("enrollment challenges issued")
	return issued, nil
}

func (s *ChallengeService) checkLimits(ctx context.Context, userID string) error {
	ok, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return domain.ErrRateLimited
	}

	if s.policy.MaxActive > 0 {
		active, err := s.challenges.CountActive(ctx, userID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("count active challenges: %w", err)
		}
		if active >= s.policy.MaxActive {
			return domain.ErrRateLimited
		}
	}
	return nil
}

func (s *ChallengeService) issueOne(ctx context.Context, userID string, exclude []string) (*domain.Challenge, error) {
	phrase, err := s.catalog.SelectPhrase(ctx, exclude, s.policy.Difficulty)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ch := &domain.Challenge{
		ID:         uuid.NewString(),
		UserID:     userID,
		PhraseID:   phrase.ID,
		PhraseText: phrase.Text,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.policy.TTL),
	}

	if err := s.challenges.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("persist challenge: %w", err)
	}
	return ch, nil
}
