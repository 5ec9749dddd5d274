package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

// TranscriptPhraseVerifier transcribes the audio and scores it against the
// expected phrase with a word-level similarity ratio. The comparison is
// lenient: case and whitespace are normalized, and partial matches earn
// partial credit.
type TranscriptPhraseVerifier struct {
	transcriber ports.Transcriber
	model       domain.ModelRef
}

func NewTranscriptPhraseVerifier(transcriber ports.Transcriber, model domain.ModelRef) *TranscriptPhraseVerifier {
	return &TranscriptPhraseVerifier{transcriber: transcriber, model: model}
}

func (v *TranscriptPhraseVerifier) Match(ctx context.Context, audio []byte, phrase string) (float64, error) {
	transcript, err := v.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return 0, fmt.Errorf("transcribe: %w", err)
	}
	return WordSimilarity(transcript, phrase), nil
}

func (v *TranscriptPhraseVerifier) Model() domain.ModelRef {
	return v.model
}

// WordSimilarity returns a ratio in [0,1] between two texts:
// 2*LCS(words) / (len(a)+len(b)), after lowercasing and collapsing
// whitespace. Identical texts score 1, disjoint texts 0, and word order
// matters only as much as the longest common subsequence preserves it.
func WordSimilarity(a, b string) float64 {
	wa := normalizeWords(a)
	wb := normalizeWords(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	lcs := wordLCS(wa, wb)
	return float64(2*lcs) / float64(len(wa)+len(wb))
}

func normalizeWords(s string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(s)))
}

// wordLCS computes the longest-common-subsequence length over word slices.
func wordLCS(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
