package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/api/metrics"
	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

const sessionLockShards = 32
const sweepBatchSize = 100

// EnrollmentPolicy carries the injected enrollment settings.
type EnrollmentPolicy struct {
	SessionTTL  time.Duration
	MinSNRDb    float64
	MinDuration time.Duration
	// DefaultTargetCount is used when the caller does not request a
	// sample count; MaxTargetCount caps what a caller may request.
	DefaultTargetCount int
	MaxTargetCount     int
}

// sessionLocks serializes concurrent AddSample calls per session so the
// sample order and current-challenge index stay consistent. Sessions hash
// onto a fixed set of mutex shards.
type sessionLocks struct {
	shards [sessionLockShards]sync.Mutex
}

func (l *sessionLocks) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	m := &l.shards[int(h.Sum32())%sessionLockShards]
	m.Lock()
	return m.Unlock
}

// EnrollmentService manages the per-user enrollment state machine:
// in_progress, then completed, expired, or abandoned.
type EnrollmentService struct {
	sessions    ports.EnrollmentRepository
	users       ports.UserRepository
	voiceprints ports.VoiceprintRepository
	challenges  ports.ChallengeRepository
	issuer      ports.ChallengeService
	quality     ports.AudioQualityChecker
	extractor   ports.EmbeddingExtractor
	policy      EnrollmentPolicy
	locks       sessionLocks
	log         zerolog.Logger
}

func NewEnrollmentService(
	sessions ports.EnrollmentRepository,
	users ports.UserRepository,
	voiceprints ports.VoiceprintRepository,
	challenges ports.ChallengeRepository,
	issuer ports.ChallengeService,
	quality ports.AudioQualityChecker,
	extractor ports.EmbeddingExtractor,
	policy EnrollmentPolicy,
	log zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		sessions:    sessions,
		users:       users,
		voiceprints: voiceprints,
		challenges:  challenges,
		issuer:      issuer,
		quality:     quality,
		extractor:   extractor,
		policy:      policy,
		log:         log,
	}
}

// Start creates a session with target-count freshly issued challenges.
// An already-enrolled user is rejected unless input.Force is set, in which
// case the old voiceprint is superseded on completion.
func (s *EnrollmentService) Start(ctx context.Context, input ports.StartEnrollmentInput) (*ports.StartEnrollmentResult, error) {
	user, err := s.users.EnsureExists(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	if user.Enrolled() && !input.Force {
		return nil, domain.ErrAlreadyEnrolled
	}

	target := input.TargetCount
	if target <= 0 {
		target = s.policy.DefaultTargetCount
	}
	if s.policy.MaxTargetCount > 0 && target > s.policy.MaxTargetCount {
		target = s.policy.MaxTargetCount
	}

	issued, err := s.issuer.IssueBatch(ctx, input.UserID, target)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.EnrollmentSession{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Status:      domain.SessionInProgress,
		Challenges:  make([]domain.SessionChallenge, 0, target),
		Samples:     []domain.EnrollmentSample{},
		TargetCount: target,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.policy.SessionTTL),
	}
	result := &ports.StartEnrollmentResult{
		SessionID:  session.ID,
		Challenges: make([]ports.IssuedChallenge, 0, target),
		ExpiresAt:  session.ExpiresAt,
	}
	for _, ch := range issued {
		session.Challenges = append(session.Challenges, domain.SessionChallenge{
			ChallengeID: ch.ID,
			PhraseText:  ch.PhraseText,
		})
		result.Challenges = append(result.Challenges, ports.IssuedChallenge{
			ChallengeID: ch.ID,
			PhraseText:  ch.PhraseText,
			ExpiresAt:   ch.ExpiresAt,
		})
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	metrics.ActiveEnrollmentSessions.Inc()
	s.log.Info().
		Str("session_id", session.ID).
		Str("user_id", input.UserID).
		Int("target_count", target).
		Bool("force", input.Force).
		Msg("enrollment started")
	return result, nil
}

// AddSample quality-checks the audio and, if it passes, stores the sample
// and consumes its challenge. A sample failing the quality gate is
// discarded without consuming the challenge, so the client may retry.
func (s *EnrollmentService) AddSample(ctx context.Context, input ports.AddSampleInput) (*ports.AddSampleResult, error) {
	unlock := s.locks.lock(input.SessionID)
	defer unlock()

	session, err := s.activeSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	current, ok := session.CurrentChallenge()
	if !ok || current.ChallengeID != input.ChallengeID {
		return nil, domain.ErrInvalidChallenge
	}

	report, err := s.quality.Check(ctx, input.Audio)
	if err != nil {
		return nil, fmt.Errorf("quality check: %w", err)
	}
	if report.SNRDb < s.policy.MinSNRDb || report.Duration < s.policy.MinDuration {
		s.log.Info().
			Str("session_id", session.ID).
			Float64("snr_db", report.SNRDb).
			Dur("duration", report.Duration).
			Msg("sample rejected: quality too low")
		return &ports.AddSampleResult{
			Accepted:    false,
			Quality:     report,
			SampleCount: session.SampleCount,
			TargetCount: session.TargetCount,
			NextChallenge: &ports.IssuedChallenge{
				ChallengeID: current.ChallengeID,
				PhraseText:  current.PhraseText,
			},
		}, nil
	}

	embedding, err := s.extractor.Extract(ctx, input.Audio)
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}

	// Consume after the quality gate: a low-quality sample must not burn
	// its challenge.
	if _, err := s.challenges.Consume(ctx, input.ChallengeID, session.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}

	sample := domain.EnrollmentSample{
		ChallengeID: input.ChallengeID,
		Embedding:   embedding,
		Quality: domain.QualityMetrics{
			SNRDb:    report.SNRDb,
			Duration: report.Duration,
		},
		CollectedAt: time.Now().UTC(),
	}
	if err := s.sessions.AppendSample(ctx, session.ID, session.SampleCount, sample); err != nil {
		// The slot claim lost a cross-process race after the challenge was
		// already consumed; hand the phrase back so the retry costs the
		// client nothing.
		if errors.Is(err, domain.ErrSessionConflict) {
			if rerr := s.challenges.Release(ctx, input.ChallengeID); rerr != nil {
				s.log.Error().
					Err(rerr).
					Str("session_id", session.ID).
					Str("challenge_id", input.ChallengeID).
					Msg("failed to release challenge after append conflict")
			}
		}
		return nil, err
	}

	count := session.SampleCount + 1
	result := &ports.AddSampleResult{
		Accepted:    true,
		Quality:     report,
		SampleCount: count,
		TargetCount: session.TargetCount,
		Ready:       count >= session.TargetCount,
	}
	if !result.Ready && count < len(session.Challenges) {
		next := session.Challenges[count]
		result.NextChallenge = &ports.IssuedChallenge{
			ChallengeID: next.ChallengeID,
			PhraseText:  next.PhraseText,
		}
	}

	s.log.Info().
		Str("session_id", session.ID).
		Int("sample_count", count).
		Int("target_count", session.TargetCount).
		Msg("enrollment sample accepted")
	return result, nil
}

// Complete derives the voiceprint as the renormalized mean of the
// L2-normalized sample embeddings, marks the user enrolled, and deletes
// the session.
func (s *EnrollmentService) Complete(ctx context.Context, sessionID string) (*ports.CompleteEnrollmentResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, domain.ErrIncompleteSession
	}

	embeddings := make([][]float64, 0, len(session.Samples))
	var snrSum float64
	for _, sample := range session.Samples {
		embeddings = append(embeddings, sample.Embedding)
		snrSum += sample.Quality.SNRDb
	}
	vector, err := domain.MeanEmbedding(embeddings)
	if err != nil {
		return nil, fmt.Errorf("derive voiceprint: %w", err)
	}

	now := time.Now().UTC()
	vp := &domain.Voiceprint{
		UserID:    session.UserID,
		Vector:    vector,
		Samples:   len(session.Samples),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.voiceprints.Upsert(ctx, vp); err != nil {
		return nil, fmt.Errorf("store voiceprint: %w", err)
	}
	if err := s.users.SetEnrolled(ctx, session.UserID); err != nil {
		return nil, fmt.Errorf("mark enrolled: %w", err)
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}

	metrics.ActiveEnrollmentSessions.Dec()
	metrics.EnrollmentsCompletedTotal.Inc()
	s.log.Info().
		Str("session_id", session.ID).
		Str("user_id", session.UserID).
		Int("samples", len(session.Samples)).
		Msg("enrollment completed")

	return &ports.CompleteEnrollmentResult{
		VoiceprintID: vp.UserID,
		Samples:      len(session.Samples),
		MeanSNRDb:    snrSum / float64(len(session.Samples)),
	}, nil
}

// Cancel abandons an in-progress session.
func (s *EnrollmentService) Cancel(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.SetStatus(ctx, session.ID, domain.SessionAbandoned); err != nil {
		return err
	}

	metrics.ActiveEnrollmentSessions.Dec()
	s.log.Info().Str("session_id", session.ID).Msg("enrollment abandoned")
	return nil
}

// ExpireOverdue sweeps in-progress sessions whose TTL lapsed. Called
// periodically by the background sweeper; expiry is also applied lazily
// on access.
func (s *EnrollmentService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.sessions.FindOverdue(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find overdue sessions: %w", err)
	}

	expired := 0
	for _, session := range overdue {
		if err := s.sessions.SetStatus(ctx, session.ID, domain.SessionExpired); err != nil {
			if errors.Is(err, domain.ErrSessionConflict) {
				continue
			}
			return expired, err
		}
		metrics.ActiveEnrollmentSessions.Dec()
		expired++
	}
	return expired, nil
}

// activeSession loads the session and applies lazy expiry.
func (s *EnrollmentService) activeSession(ctx context.Context, id string) (*domain.EnrollmentSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionInProgress {
		return nil, domain.ErrSessionNotActive
	}
	if session.Expired(time.Now().UTC()) {
		if err := s.sessions.SetStatus(ctx, session.ID, domain.SessionExpired); err != nil && !errors.Is(err, domain.ErrSessionConflict) {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to mark session expired")
		} else {
			metrics.ActiveEnrollmentSessions.Dec()
		}
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}
