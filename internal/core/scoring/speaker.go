// Package scoring contains the concrete ScoreAdapter implementations:
// speaker recognition, anti-spoof fusion, and phrase verification. Model
// back-ends (embedding extraction, sub-classifiers, speech-to-text) stay
// behind narrow ports so the orchestrator can be tested with deterministic
// doubles.
package scoring

import (
	"context"
	"fmt"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// CosineSpeakerRecognizer scores speaker identity as the cosine similarity
// between the sample embedding and the enrolled voiceprint, clamped from
// [-1,1] to [0,1].
type CosineSpeakerRecognizer struct {
	extractor ports.EmbeddingExtractor
	model     domain.ModelRef
}

func NewCosineSpeakerRecognizer(extractor ports.EmbeddingExtractor, model domain.ModelRef) *CosineSpeakerRecognizer {
	return &CosineSpeakerRecognizer{extractor: extractor, model: model}
}

func (r *CosineSpeakerRecognizer) Similarity(ctx context.Context, audio []byte, voiceprint []float64) (float64, error) {
	embedding, err := r.extractor.Extract(ctx, audio)
	if err != nil {
		return 0, fmt.Errorf("extract embedding: %w", err)
	}

	sim, err := domain.CosineSimilarity(embedding, voiceprint)
	if err != nil {
		return 0, fmt.Errorf("cosine similarity: %w", err)
	}
	return domain.ClampUnit(sim), nil
}

func (r *CosineSpeakerRecognizer) Model() domain.ModelRef {
	return r.model
}
