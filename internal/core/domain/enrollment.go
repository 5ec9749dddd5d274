package domain

import (
	"errors"
	"time"
)

// SessionStatus represents the lifecycle state of an enrollment session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
	SessionAbandoned  SessionStatus = "abandoned"
)

// validSessionTransitions defines the allowed state machine transitions.
var validSessionTransitions = map[SessionStatus][]SessionStatus{
	SessionInProgress: {SessionCompleted, SessionExpired, SessionAbandoned},
}

var ErrSessionNotFound = errors.New("enrollment session not found")
var ErrSessionNotActive = errors.New("enrollment session is not in progress")
var ErrSessionExpired = errors.New("enrollment session expired")
var ErrIncompleteSession = errors.New("enrollment session incomplete")
var ErrSessionConflict = errors.New("concurrent session update conflict")

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// QualityMetrics are the audio-quality measurements attached to a sample.
type QualityMetrics struct {
	SNRDb    float64       `json:"snr_db" bson:"snr_db"`
	Duration time.Duration `json:"duration" bson:"duration"`
}

// EnrollmentSample holds one accepted voice sample. Samples are ephemeral:
// they exist only while their session is in progress and are discarded
// together with it.
type EnrollmentSample struct {
	ChallengeID string         `json:"challenge_id" bson:"challenge_id"`
	Embedding   []float64      `json:"embedding" bson:"embedding"`
	Quality     QualityMetrics `json:"quality" bson:"quality"`
	CollectedAt time.Time      `json:"collected_at" bson:"collected_at"`
}

// SessionChallenge is one phrase-challenge slot in an enrollment session.
type SessionChallenge struct {
	ChallengeID string `json:"challenge_id" bson:"challenge_id"`
	PhraseText  string `json:"phrase_text" bson:"phrase_text"`
}

// EnrollmentSession accumulates quality-checked samples until the target
// count is reached. Sessions are durable: expiry is externally visible, so
// they must survive a process restart.
type EnrollmentSession struct {
	ID           string             `json:"id" bson:"_id"`
	UserID       string             `json:"user_id" bson:"user_id"`
	Status       SessionStatus      `json:"status" bson:"status"`
	Challenges   []SessionChallenge `json:"challenges" bson:"challenges"`
	Samples      []EnrollmentSample `json:"samples" bson:"samples"`
	SampleCount  int                `json:"sample_count" bson:"sample_count"`
	CurrentIndex int                `json:"current_index" bson:"current_index"`
	TargetCount  int                `json:"target_count" bson:"target_count"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time          `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the session TTL has lapsed at now.
func (s *EnrollmentSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Complete reports whether all target samples have been collected.
func (s *EnrollmentSession) Complete() bool {
	return s.SampleCount >= s.TargetCount
}

// CurrentChallenge returns the challenge slot the next sample must answer.
func (s *EnrollmentSession) CurrentChallenge() (SessionChallenge, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Challenges) {
		return SessionChallenge{}, false
	}
	return s.Challenges[s.CurrentIndex], true
}
