package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

type stubEmbedder struct {
	vector []float64
	err    error
}

func (s *stubEmbedder) Extract(_ context.Context, _ []byte) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]float64(nil), s.vector...), nil
}

func TestCosineSpeakerRecognizer_MatchingVoice(t *testing.T) {
	r := NewCosineSpeakerRecognizer(&stubEmbedder{vector: []float64{0.6, 0.8}}, domain.ModelRef{Name: "stub", Version: "test"})

	sim, err := r.Similarity(context.Background(), []byte("pcm"), []float64{0.6, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("expected similarity 1, got %v", sim)
	}
}

func TestCosineSpeakerRecognizer_ScaleInvariant(t *testing.T) {
	// A louder recording of the same voice scores the same.
	r := NewCosineSpeakerRecognizer(&stubEmbedder{vector: []float64{6, 8}}, domain.ModelRef{})

	sim, err := r.Similarity(context.Background(), []byte("pcm"), []float64{0.6, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("expected similarity 1, got %v", sim)
	}
}

func TestCosineSpeakerRecognizer_OppositeClampsToZero(t *testing.T) {
	// Negative cosine carries no acceptance information; it clamps to 0.
	r := NewCosineSpeakerRecognizer(&stubEmbedder{vector: []float64{-1, 0}}, domain.ModelRef{})

	sim, err := r.Similarity(context.Background(), []byte("pcm"), []float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Errorf("expected clamped similarity 0, got %v", sim)
	}
}

func TestCosineSpeakerRecognizer_ExtractorError(t *testing.T) {
	backendErr := errors.New("embedding backend down")
	r := NewCosineSpeakerRecognizer(&stubEmbedder{err: backendErr}, domain.ModelRef{})

	if _, err := r.Similarity(context.Background(), []byte("pcm"), []float64{1, 0}); !errors.Is(err, backendErr) {
		t.Fatalf("expected wrapped extractor error, got %v", err)
	}
}

func TestCosineSpeakerRecognizer_DimensionMismatch(t *testing.T) {
	r := NewCosineSpeakerRecognizer(&stubEmbedder{vector: []float64{1, 0, 0}}, domain.ModelRef{})

	if _, err := r.Similarity(context.Background(), []byte("pcm"), []float64{1, 0}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
