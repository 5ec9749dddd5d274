package scoring

// Handcrafted feature indicators for the secondary anti-spoof layer. Each
// targets a different artifact class than the learned sub-models: flat
// noise floors from playback devices, unnaturally regular zero-crossing
// behaviour from vocoders, and hard clipping from re-recording chains.

// LowSNRIndicator fires when the estimated SNR falls below minSNRDb.
// Replayed recordings through a speaker typically lose 10dB or more.
func LowSNRIndicator(sampleRate int, minSNRDb float64) Indicator {
	return Indicator{
		Name: "low_snr",
		Fire: func(audio []byte) bool {
			frames := frameRMS(decodePCM16(audio), sampleRate)
			if len(frames) < 4 {
				return true
			}
			return estimateSNR(frames) < minSNRDb
		},
	}
}

// SpectralArtifactIndicator fires when the zero-crossing rate leaves the
// band natural speech occupies. Synthetic speech tends to sit at the
// extremes.
func SpectralArtifactIndicator(minZCR, maxZCR float64) Indicator {
	return Indicator{
		Name: "spectral_artifact",
		Fire: func(audio []byte) bool {
			zcr := zeroCrossingRate(decodePCM16(audio))
			return zcr < minZCR || zcr > maxZCR
		},
	}
}

// BackgroundNoiseIndicator fires when the noise floor (quietest-quartile
// RMS) exceeds maxFloor, suggesting far-field re-recording.
func BackgroundNoiseIndicator(sampleRate int, maxFloor float64) Indicator {
	return Indicator{
		Name: "background_noise",
		Fire: func(audio []byte) bool {
			frames := frameRMS(decodePCM16(audio), sampleRate)
			if len(frames) < 4 {
				return true
			}
			sorted := make([]float64, len(frames))
			copy(sorted, frames)
			insertionSort(sorted)
			quartile := len(sorted) / 4
			if quartile == 0 {
				quartile = 1
			}
			return mean(sorted[:quartile]) > maxFloor
		},
	}
}
