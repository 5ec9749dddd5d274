package ports

import (
	"context"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// EnrollmentRepository defines persistence operations for enrollment
// sessions. Sessions are durable and carry externally-visible expiry.
type EnrollmentRepository interface {
	Create(ctx context.Context, s *domain.EnrollmentSession) error
	FindByID(ctx context.Context, id string) (*domain.EnrollmentSession, error)
	// AppendSample stores a sample and advances the challenge index,
	// conditional on the session still being in progress and its sample
	// count matching expectedCount. A concurrent writer losing the race
	// receives domain.ErrSessionConflict.
	AppendSample(ctx context.Context, id string, expectedCount int, sample domain.EnrollmentSample) error
	// SetStatus transitions the session, conditional on it currently
	// being in progress.
	SetStatus(ctx context.Context, id string, status domain.SessionStatus) error
	Delete(ctx context.Context, id string) error
	// FindOverdue returns in-progress sessions whose expiry lapsed
	// before now, for the background sweeper.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.EnrollmentSession, error)
}

// StartEnrollmentInput carries parameters for starting an enrollment.
type StartEnrollmentInput struct {
	UserID      string
	TargetCount int
	// Force allows re-enrollment of an already-enrolled user; the old
	// voiceprint is superseded on completion.
	Force bool
}

// StartEnrollmentResult returns the session and its pre-issued challenges.
type StartEnrollmentResult struct {
	SessionID  string
	Challenges []IssuedChallenge
	ExpiresAt  time.Time
}

// AddSampleInput carries one enrollment sample submission.
type AddSampleInput struct {
	SessionID   string
	ChallengeID string
	Audio       []byte
}

// AddSampleResult reports whether the sample was accepted and what the
// client should do next.
type AddSampleResult struct {
	Accepted      bool
	Quality       QualityReport
	SampleCount   int
	TargetCount   int
	NextChallenge *IssuedChallenge // nil when ready to complete
	Ready         bool
}

// CompleteEnrollmentResult summarizes a finished enrollment.
type CompleteEnrollmentResult struct {
	VoiceprintID string
	Samples      int
	MeanSNRDb    float64
}

// EnrollmentService manages the per-user enrollment state machine.
type EnrollmentService interface {
	Start(ctx context.Context, input StartEnrollmentInput) (*StartEnrollmentResult, error)
	AddSample(ctx context.Context, input AddSampleInput) (*AddSampleResult, error)
	Complete(ctx context.Context, sessionID string) (*CompleteEnrollmentResult, error)
	Cancel(ctx context.Context, sessionID string) error
	// ExpireOverdue lazily transitions overdue sessions to expired and
	// returns how many were swept.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}
