package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/api/metrics"
	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// Fail-closed worst-case score values: a missing or failed adapter result
// must never make acceptance easier.
const (
	worstSimilarity = 0.0
	worstSpoof      = 1.0
	worstPhrase     = 0.0
)

// AdapterTimeouts are the per-adapter score budgets. The overall attempt
// deadline is the maximum of the three, not their sum, because the calls
// run concurrently.
type AdapterTimeouts struct {
	Speaker time.Duration
	Spoof   time.Duration
	Phrase  time.Duration
}

// VerificationPolicy carries the injected decision settings.
type VerificationPolicy struct {
	Thresholds Thresholds
	Timeouts   AdapterTimeouts
	// MaxFailures is the consecutive-reject budget before the user is
	// locked out; Lockout is the cool-down applied when it is exhausted.
	MaxFailures int
	Lockout     time.Duration
}

// VerificationService orchestrates a verification attempt: atomic
// challenge consumption, parallel score collection with per-adapter
// timeouts, a policy decision, and a mandatory audit append.
type VerificationService struct {
	users       ports.UserRepository
	voiceprints ports.VoiceprintRepository
	challenges  ports.ChallengeRepository
	speaker     ports.SpeakerRecognizer
	antispoof   ports.AntiSpoofEnsemble
	phrase      ports.PhraseVerifier
	engine      *PolicyEngine
	audit       ports.AuditService
	policy      VerificationPolicy
	log         zerolog.Logger
	now         func() time.Time
}

func NewVerificationService(
	users ports.UserRepository,
	voiceprints ports.VoiceprintRepository,
	challenges ports.ChallengeRepository,
	speaker ports.SpeakerRecognizer,
	antispoof ports.AntiSpoofEnsemble,
	phrase ports.PhraseVerifier,
	engine *PolicyEngine,
	audit ports.AuditService,
	policy VerificationPolicy,
	log zerolog.Logger,
) *VerificationService {
	return &VerificationService{
		users:       users,
		voiceprints: voiceprints,
		challenges:  challenges,
		speaker:     speaker,
		antispoof:   antispoof,
		phrase:      phrase,
		engine:      engine,
		audit:       audit,
		policy:      policy,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Verify runs one verification attempt end to end. Challenge lifecycle
// violations surface as errors before any scoring happens; once scoring
// starts, the attempt is always decided and recorded, never left pending.
func (s *VerificationService) Verify(ctx context.Context, input ports.VerifyInput) (*ports.VerifyResult, error) {
	start := s.now()

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user.Locked(start) {
		attempt := s.newAttempt(input, start, false, domain.ReasonUserLocked, s.now().Sub(start))
		if err := s.audit.Record(context.WithoutCancel(ctx), attempt, s.worstCaseScores()); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuditAppend, err)
		}
		metrics.AttemptsTotal.WithLabelValues(string(domain.ReasonUserLocked)).Inc()
		return nil, domain.ErrUserLocked
	}

	// Atomic consume closes the replay race: two concurrent attempts on
	// the same challenge get exactly one winner.
	challenge, err := s.challenges.Consume(ctx, input.ChallengeID, input.UserID, start)
	if err != nil {
		return nil, err
	}

	vp, err := s.voiceprints.FindByUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotEnrolled) {
			return nil, domain.ErrUserNotEnrolled
		}
		return nil, fmt.Errorf("load voiceprint: %w", err)
	}

	scores, aborted := s.collectScores(ctx, input.Audio, vp.Vector, challenge.PhraseText)

	var accepted bool
	var reason domain.DecisionReason
	if aborted {
		accepted, reason = false, domain.ReasonAborted
	} else {
		accepted, reason = s.engine.Decide(scores, s.policy.Thresholds)
	}

	// From here on the decision exists and must be charged and recorded
	// even when the caller has already gone away, so the bookkeeping runs
	// detached from the request's cancellation.
	bookCtx := context.WithoutCancel(ctx)

	retriesLeft := s.policy.MaxFailures
	if accepted {
		if err := s.users.ResetFailures(bookCtx, input.UserID); err != nil {
			s.log.Warn().Err(err).Str("user_id", input.UserID).Msg("failed to reset failure counter")
		}
	} else if !aborted {
		retriesLeft, reason = s.recordFailure(bookCtx, input.UserID, reason)
	}

	attempt := s.newAttempt(input, start, accepted, reason, s.now().Sub(start))

	// Recording failure is fatal to the request: no silent unaudited
	// decisions.
	if err := s.audit.Record(bookCtx, attempt, &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuditAppend, err)
	}

	metrics.AttemptsTotal.WithLabelValues(string(reason)).Inc()
	s.log.Info().
		Str("attempt_id", attempt.ID).
		Str("user_id", input.UserID).
		Bool("accepted", accepted).
		Str("reason", string(reason)).
		Dur("total_latency", attempt.TotalLatency).
		Msg("verification decided")

	return &ports.VerifyResult{
		AttemptID:   attempt.ID,
		Accepted:    accepted,
		Reason:      reason,
		Scores:      scores,
		RetriesLeft: retriesLeft,
	}, nil
}

// adapterOutcome is one adapter call's result at the join point.
type adapterOutcome struct {
	value   float64
	latency time.Duration
	err     error
}

// runAdapter starts one scoring call under its own timeout, detached from
// the caller's cancellation: an aborted request lets in-flight calls run
// to completion (they are idempotent and cheap to discard) without
// awaiting them.
func runAdapter(ctx context.Context, timeout time.Duration, fn func(context.Context) (float64, error)) <-chan adapterOutcome {
	out := make(chan adapterOutcome, 1)
	go func() {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		begin := time.Now()
		v, err := fn(callCtx)
		out <- adapterOutcome{value: v, latency: time.Since(begin), err: err}
	}()
	return out
}

// collectScores fans out the three adapter calls and joins them, filling
// fail-closed worst-case values for anything that timed out, errored, or
// was still pending when the caller aborted.
func (s *VerificationService) collectScores(ctx context.Context, audio []byte, voiceprint []float64, phraseText string) (domain.Scores, bool) {
	scores := *s.worstCaseScores()

	simCh := runAdapter(ctx, s.policy.Timeouts.Speaker, func(c context.Context) (float64, error) {
		return s.speaker.Similarity(c, audio, voiceprint)
	})
	spoofCh := runAdapter(ctx, s.policy.Timeouts.Spoof, func(c context.Context) (float64, error) {
		return s.antispoof.Score(c, audio)
	})
	phraseCh := runAdapter(ctx, s.policy.Timeouts.Phrase, func(c context.Context) (float64, error) {
		return s.phrase.Match(c, audio, phraseText)
	})

	aborted := false
	for pending := 3; pending > 0; {
		select {
		case o := <-simCh:
			simCh = nil
			pending--
			s.applyOutcome(&scores.Similarity, o, "speaker")
		case o := <-spoofCh:
			spoofCh = nil
			pending--
			s.applyOutcome(&scores.Spoof, o, "antispoof")
		case o := <-phraseCh:
			phraseCh = nil
			pending--
			s.applyOutcome(&scores.Phrase, o, "phrase")
		case <-ctx.Done():
			aborted = true
			pending = 0
		}
	}
	return scores, aborted
}

// applyOutcome writes one adapter result into the score record. Errors
// and timeouts keep the pre-filled worst-case value.
func (s *VerificationService) applyOutcome(slot *domain.AdapterScore, o adapterOutcome, adapter string) {
	slot.Latency = o.latency
	if o.err != nil {
		slot.TimedOut = true
		metrics.AdapterTimeoutsTotal.WithLabelValues(adapter).Inc()
		s.log.Warn().Err(o.err).Str("adapter", adapter).Dur("latency", o.latency).Msg("adapter failed, scoring worst case")
		return
	}
	slot.Value = o.value
	metrics.AdapterLatency.WithLabelValues(adapter).Observe(o.latency.Seconds())
}

// worstCaseScores returns a fresh fail-closed score record carrying the
// adapters' model identities.
func (s *VerificationService) worstCaseScores() *domain.Scores {
	return &domain.Scores{
		Similarity: domain.AdapterScore{Value: worstSimilarity, Model: s.speaker.Model()},
		Spoof:      domain.AdapterScore{Value: worstSpoof, Model: s.antispoof.Model()},
		Phrase:     domain.AdapterScore{Value: worstPhrase, Model: s.phrase.Model()},
	}
}

// recordFailure advances the consecutive-failure counter and applies the
// lockout when the retry budget is exhausted. The reject that spends the
// last retry is recorded as RETRIES_EXHAUSTED; attempts made during the
// cool-down are recorded as USER_LOCKED.
func (s *VerificationService) recordFailure(ctx context.Context, userID string, reason domain.DecisionReason) (int, domain.DecisionReason) {
	count, err := s.users.RecordFailure(ctx, userID, s.policy.MaxFailures, s.now().Add(s.policy.Lockout))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to record failure")
		return 0, reason
	}

	retriesLeft := s.policy.MaxFailures - count
	if retriesLeft <= 0 {
		retriesLeft = 0
		reason = domain.ReasonRetriesExhausted
		s.log.Info().Str("user_id", userID).Int("failures", count).Msg("retry budget exhausted, user locked")
	}
	return retriesLeft, reason
}

func (s *VerificationService) newAttempt(input ports.VerifyInput, start time.Time, accepted bool, reason domain.DecisionReason, latency time.Duration) *domain.AuthAttempt {
	return &domain.AuthAttempt{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		ChallengeID:  input.ChallengeID,
		Decided:      true,
		Accepted:     accepted,
		Reason:       reason,
		TotalLatency: latency,
		CreatedAt:    start,
		DecidedAt:    start.Add(latency),
	}
}
