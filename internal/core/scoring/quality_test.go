package scoring

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

const testSampleRate = 16000
const samplesPerFrame = 320 // 20ms at 16kHz

// pcmFrames builds little-endian 16-bit PCM from per-frame amplitudes.
// Sample signs alternate every flipEvery samples so the zero-crossing rate
// is controllable.
func pcmFrames(amplitudes []int16, flipEvery int) []byte {
	out := make([]byte, 0, len(amplitudes)*samplesPerFrame*2)
	n := 0
	for _, amp := range amplitudes {
		for i := 0; i < samplesPerFrame; i++ {
			v := amp
			if flipEvery > 0 && (n/flipEvery)%2 == 1 {
				v = -amp
			}
			n++
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
	}
	return out
}

// speechLike returns audio with loud and quiet stretches, resembling
// voiced speech over a low noise floor.
func speechLike(loudFrames, quietFrames int) []byte {
	amps := make([]int16, 0, loudFrames+quietFrames)
	for i := 0; i < loudFrames; i++ {
		amps = append(amps, 8000)
	}
	for i := 0; i < quietFrames; i++ {
		amps = append(amps, 80)
	}
	return pcmFrames(amps, 8)
}

// ---------------------------------------------------------------------------
// PCMQualityChecker
// ---------------------------------------------------------------------------

func TestPCMQualityChecker_SNR(t *testing.T) {
	checker := NewPCMQualityChecker(testSampleRate)

	// Loud frames are 100x the quiet ones: 40dB.
	report, err := checker.Check(context.Background(), speechLike(5, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(report.SNRDb-40) > 0.1 {
		t.Errorf("expected ~40dB, got %v", report.SNRDb)
	}
}

func TestPCMQualityChecker_Duration(t *testing.T) {
	checker := NewPCMQualityChecker(testSampleRate)

	report, err := checker.Check(context.Background(), speechLike(10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 20 frames of 20ms each.
	if report.Duration != 400*time.Millisecond {
		t.Errorf("expected 400ms, got %v", report.Duration)
	}
}

func TestPCMQualityChecker_FlatSignalHasNoSNR(t *testing.T) {
	checker := NewPCMQualityChecker(testSampleRate)

	amps := make([]int16, 8)
	for i := range amps {
		amps[i] = 4000
	}
	report, err := checker.Check(context.Background(), pcmFrames(amps, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(report.SNRDb) > 0.1 {
		t.Errorf("uniform signal should measure ~0dB, got %v", report.SNRDb)
	}
}

func TestPCMQualityChecker_TooShort(t *testing.T) {
	checker := NewPCMQualityChecker(testSampleRate)

	_, err := checker.Check(context.Background(), pcmFrames([]int16{8000, 8000, 8000}, 8))
	if !errors.Is(err, ErrAudioTooShort) {
		t.Fatalf("expected ErrAudioTooShort, got %v", err)
	}
}

func TestPCMQualityChecker_EmptyAudio(t *testing.T) {
	checker := NewPCMQualityChecker(testSampleRate)

	if _, err := checker.Check(context.Background(), nil); !errors.Is(err, ErrAudioTooShort) {
		t.Fatalf("expected ErrAudioTooShort, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Indicators
// ---------------------------------------------------------------------------

func TestLowSNRIndicator(t *testing.T) {
	ind := LowSNRIndicator(testSampleRate, 12)

	if ind.Fire(speechLike(5, 15)) {
		t.Error("clean speech must not trip the low-SNR indicator")
	}

	flat := make([]int16, 8)
	for i := range flat {
		flat[i] = 4000
	}
	if !ind.Fire(pcmFrames(flat, 8)) {
		t.Error("flat signal (0dB) must trip the low-SNR indicator")
	}
}

func TestSpectralArtifactIndicator(t *testing.T) {
	ind := SpectralArtifactIndicator(0.02, 0.35)

	// Sign flips every 8 samples: ZCR ~0.125, inside the natural band.
	if ind.Fire(speechLike(5, 15)) {
		t.Error("natural zero-crossing rate must not trip the indicator")
	}

	// Constant positive signal: ZCR 0, below the natural band.
	flat := make([]int16, 8)
	for i := range flat {
		flat[i] = 4000
	}
	if !ind.Fire(pcmFrames(flat, 0)) {
		t.Error("zero ZCR must trip the indicator")
	}

	// Sign flips every sample: ZCR ~1, above the natural band.
	if !ind.Fire(pcmFrames(flat, 1)) {
		t.Error("extreme ZCR must trip the indicator")
	}
}

func TestBackgroundNoiseIndicator(t *testing.T) {
	ind := BackgroundNoiseIndicator(testSampleRate, 0.05)

	// Quiet floor at amplitude 80 (~0.0024 RMS): below the cap.
	if ind.Fire(speechLike(5, 15)) {
		t.Error("low noise floor must not trip the indicator")
	}

	// Uniformly loud signal: the quietest quartile is still ~0.24 RMS.
	loud := make([]int16, 8)
	for i := range loud {
		loud[i] = 8000
	}
	if !ind.Fire(pcmFrames(loud, 8)) {
		t.Error("high noise floor must trip the indicator")
	}
}
