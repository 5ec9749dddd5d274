package domain

import (
	"errors"
	"time"
)

// DecisionReason is the structured outcome code stamped on every decided
// attempt. A rejection is a normal, recorded outcome, not an error.
type DecisionReason string

const (
	ReasonAccepted         DecisionReason = "ACCEPTED"
	ReasonLowSimilarity    DecisionReason = "LOW_SIMILARITY"
	ReasonSpoofDetected    DecisionReason = "SPOOF_DETECTED"
	ReasonPhraseMismatch   DecisionReason = "PHRASE_MISMATCH"
	ReasonUserLocked       DecisionReason = "USER_LOCKED"
	ReasonAborted          DecisionReason = "ABORTED"
	ReasonRetriesExhausted DecisionReason = "RETRIES_EXHAUSTED"
)

var ErrAuditAppend = errors.New("audit record append failed")

// ModelRef identifies the model that produced a score, for audit
// reproducibility.
type ModelRef struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
}

// AdapterScore is one scoring adapter's contribution to an attempt. When
// the adapter timed out or errored, TimedOut is set and Value holds the
// fail-closed worst case.
type AdapterScore struct {
	Value    float64       `json:"value" bson:"value"`
	Model    ModelRef      `json:"model" bson:"model"`
	Latency  time.Duration `json:"latency" bson:"latency"`
	TimedOut bool          `json:"timed_out,omitempty" bson:"timed_out,omitempty"`
}

// Scores is the immutable score record for one verification attempt.
// Similarity and PhraseMatch are in [0,1] where higher is better; Spoof is
// the probability the audio is a presentation attack, where lower is
// better.
type Scores struct {
	Similarity AdapterScore `json:"similarity" bson:"similarity"`
	Spoof      AdapterScore `json:"spoof" bson:"spoof"`
	Phrase     AdapterScore `json:"phrase" bson:"phrase"`
}

// AuthAttempt is the audited outcome of one verification request. It is
// created pending, finalized exactly once, and never mutated afterwards.
type AuthAttempt struct {
	ID           string         `json:"id" bson:"_id"`
	UserID       string         `json:"user_id" bson:"user_id"`
	ChallengeID  string         `json:"challenge_id" bson:"challenge_id"`
	Decided      bool           `json:"decided" bson:"decided"`
	Accepted     bool           `json:"accepted" bson:"accepted"`
	Reason       DecisionReason `json:"reason" bson:"reason"`
	TotalLatency time.Duration  `json:"total_latency" bson:"total_latency"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	DecidedAt    time.Time      `json:"decided_at" bson:"decided_at"`
}
