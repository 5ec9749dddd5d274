package ports

import (
	"context"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// SpeakerRecognizer scores how closely an audio sample matches an enrolled
// voiceprint. The returned similarity is already clamped to [0,1].
type SpeakerRecognizer interface {
	Similarity(ctx context.Context, audio []byte, voiceprint []float64) (float64, error)
	Model() domain.ModelRef
}

// AntiSpoofEnsemble scores the probability in [0,1] that the audio is a
// presentation attack (synthetic, converted, or replayed voice).
type AntiSpoofEnsemble interface {
	Score(ctx context.Context, audio []byte) (float64, error)
	Model() domain.ModelRef
}

// PhraseVerifier transcribes the audio and returns a text-similarity ratio
// in [0,1] against the expected phrase. It is intentionally lenient: its
// role is plausibility, not identity.
type PhraseVerifier interface {
	Match(ctx context.Context, audio []byte, phrase string) (float64, error)
	Model() domain.ModelRef
}

// EmbeddingExtractor produces a fixed-length identity embedding from raw
// audio. Wraps the external speaker-embedding model.
type EmbeddingExtractor interface {
	Extract(ctx context.Context, audio []byte) ([]float64, error)
}

// Transcriber wraps the external speech-to-text engine.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// QualityReport is the result of an audio-quality check.
type QualityReport struct {
	SNRDb    float64
	Duration time.Duration
}

// AudioQualityChecker measures signal quality of a raw audio sample.
// Thresholding is the caller's concern; the checker only measures.
type AudioQualityChecker interface {
	Check(ctx context.Context, audio []byte) (QualityReport, error)
}

// PhraseCatalog selects challenge phrases from the external phrase corpus.
// excludePhraseIDs lists phrases the user saw recently and must not be
// offered again.
type PhraseCatalog interface {
	SelectPhrase(ctx context.Context, excludePhraseIDs []string, difficulty string) (*domain.Phrase, error)
}
