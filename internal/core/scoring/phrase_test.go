package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

// ---------------------------------------------------------------------------
// WordSimilarity
// ---------------------------------------------------------------------------

func TestWordSimilarity_Identical(t *testing.T) {
	if got := WordSimilarity("the quick brown fox", "the quick brown fox"); got != 1 {
		t.Errorf("identical texts: got %v, want 1", got)
	}
}

func TestWordSimilarity_CaseAndWhitespaceInsensitive(t *testing.T) {
	if got := WordSimilarity("  The   QUICK brown fox ", "the quick brown fox"); got != 1 {
		t.Errorf("normalized texts must match exactly, got %v", got)
	}
}

func TestWordSimilarity_Disjoint(t *testing.T) {
	if got := WordSimilarity("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("disjoint texts: got %v, want 0", got)
	}
}

func TestWordSimilarity_PartialCredit(t *testing.T) {
	// 3 common words in order, 4 words each side: 2*3/(4+4) = 0.75.
	got := WordSimilarity("the quick brown fox", "the quick brown cat")
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("expected 0.75, got %v", got)
	}
}

func TestWordSimilarity_OrderMatters(t *testing.T) {
	// Reversed word order shares only a length-1 subsequence per pairing
	// direction; the score must drop well below 1.
	got := WordSimilarity("one two three four", "four three two one")
	if got >= 0.5 {
		t.Errorf("reversed order scored too high: %v", got)
	}
}

func TestWordSimilarity_BothEmpty(t *testing.T) {
	if got := WordSimilarity("", "   "); got != 1 {
		t.Errorf("two empty texts: got %v, want 1", got)
	}
}

func TestWordSimilarity_OneEmpty(t *testing.T) {
	if got := WordSimilarity("", "hello there"); got != 0 {
		t.Errorf("empty vs non-empty: got %v, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// TranscriptPhraseVerifier
// ---------------------------------------------------------------------------

func TestTranscriptPhraseVerifier_Match(t *testing.T) {
	v := NewTranscriptPhraseVerifier(&stubTranscriber{text: "open the pod bay doors"}, domain.ModelRef{Name: "stub", Version: "test"})

	score, err := v.Match(context.Background(), []byte("pcm"), "open the pod bay doors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 1 {
		t.Errorf("expected score 1, got %v", score)
	}
}

func TestTranscriptPhraseVerifier_TranscriberError(t *testing.T) {
	backendErr := errors.New("stt unavailable")
	v := NewTranscriptPhraseVerifier(&stubTranscriber{err: backendErr}, domain.ModelRef{})

	_, err := v.Match(context.Background(), []byte("pcm"), "anything")
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected wrapped transcriber error, got %v", err)
	}
}
