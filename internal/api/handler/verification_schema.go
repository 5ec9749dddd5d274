package handler

import "time"

type startVerificationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type challengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Phrase      string    `json:"phrase"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// verifyRequest carries the audio as standard JSON base64 ([]byte).
type verifyRequest struct {
	UserID      string `json:"user_id"      validate:"required"`
	ChallengeID string `json:"challenge_id" validate:"required"`
	Audio       []byte `json:"audio"        validate:"required"`
}

type adapterScoreResponse struct {
	Value        float64 `json:"value"`
	ModelName    string  `json:"model_name"`
	ModelVersion string  `json:"model_version"`
	LatencyMs    int64   `json:"latency_ms"`
	TimedOut     bool    `json:"timed_out,omitempty"`
}

type scoresResponse struct {
	Similarity       adapterScoreResponse `json:"similarity"`
	SpoofProbability adapterScoreResponse `json:"spoof_probability"`
	PhraseMatch      adapterScoreResponse `json:"phrase_match"`
}

type verifyResponse struct {
	AttemptID   string         `json:"attempt_id"`
	Accepted    bool           `json:"accepted"`
	Reason      string         `json:"reason"`
	RetriesLeft int            `json:"retries_left"`
	Scores      scoresResponse `json:"scores"`
}
