package scoring

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/ports"
)

var ErrAudioTooShort = errors.New("audio payload too short")

const frameDuration = 20 * time.Millisecond

// PCMQualityChecker measures quality of raw 16-bit little-endian mono PCM.
// It estimates SNR by comparing the energy of the loudest and quietest
// frames: the quiet frames approximate the noise floor.
type PCMQualityChecker struct {
	sampleRate int
}

func NewPCMQualityChecker(sampleRate int) *PCMQualityChecker {
	return &PCMQualityChecker{sampleRate: sampleRate}
}

func (c *PCMQualityChecker) Check(_ context.Context, audio []byte) (ports.QualityReport, error) {
	samples := decodePCM16(audio)
	frames := frameRMS(samples, c.sampleRate)
	if len(frames) < 4 {
		return ports.QualityReport{}, ErrAudioTooShort
	}

	return ports.QualityReport{
		SNRDb:    estimateSNR(frames),
		Duration: time.Duration(len(samples)) * time.Second / time.Duration(c.sampleRate),
	}, nil
}

// estimateSNR compares the mean RMS of the top and bottom quartile frames.
func estimateSNR(frames []float64) float64 {
	sorted := make([]float64, len(frames))
	copy(sorted, frames)
	insertionSort(sorted)

	quartile := len(sorted) / 4
	if quartile == 0 {
		quartile = 1
	}
	noise := mean(sorted[:quartile])
	signal := mean(sorted[len(sorted)-quartile:])
	if noise <= 0 {
		noise = 1e-9
	}
	return 20 * math.Log10(signal/noise)
}

// --- shared PCM helpers (also used by the spoof indicators) ---

func decodePCM16(audio []byte) []float64 {
	n := len(audio) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(audio[2*i:]))
		samples[i] = float64(v) / 32768
	}
	return samples
}

func frameRMS(samples []float64, sampleRate int) []float64 {
	frameLen := int(float64(sampleRate) * frameDuration.Seconds())
	if frameLen <= 0 {
		return nil
	}
	var frames []float64
	for start := 0; start+frameLen <= len(samples); start += frameLen {
		var sum float64
		for _, s := range samples[start : start+frameLen] {
			sum += s * s
		}
		frames = append(frames, math.Sqrt(sum/float64(frameLen)))
	}
	return frames
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func insertionSort(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
