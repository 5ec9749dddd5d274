package handler

import "time"

type startEnrollmentRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	TargetSamples int    `json:"target_samples" validate:"omitempty,min=1"`
	Force         bool   `json:"force"`
}

type startEnrollmentResponse struct {
	SessionID  string              `json:"session_id"`
	ExpiresAt  time.Time           `json:"expires_at"`
	Challenges []challengeResponse `json:"challenges"`
}

type addSampleRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Audio       []byte `json:"audio"        validate:"required"`
}

type addSampleResponse struct {
	Accepted      bool               `json:"accepted"`
	SNRDb         float64            `json:"snr_db"`
	DurationMs    int64              `json:"duration_ms"`
	SampleCount   int                `json:"sample_count"`
	TargetCount   int                `json:"target_count"`
	Ready         bool               `json:"ready"`
	NextChallenge *challengeResponse `json:"next_challenge,omitempty"`
}

type completeEnrollmentResponse struct {
	VoiceprintID string  `json:"voiceprint_id"`
	Samples      int     `json:"samples"`
	MeanSNRDb    float64 `json:"mean_snr_db"`
}
