package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// SpoofModel is one sub-classifier in the anti-spoof ensemble. It returns
// the probability in [0,1] that the audio is genuine live speech.
type SpoofModel interface {
	Genuineness(ctx context.Context, audio []byte) (float64, error)
	Name() string
}

// Indicator is one handcrafted feature heuristic in the secondary layer.
// Fire reports whether the indicator considers the audio suspicious.
type Indicator struct {
	Name string
	Fire func(audio []byte) bool
}

var ErrNoSubModels = errors.New("antispoof: no sub-models configured")
var ErrWeightCount = errors.New("antispoof: weight count does not match sub-model count")
var ErrWeightSum = errors.New("antispoof: weights must sum to 1")

// WeightedAntiSpoof fuses sub-model genuineness probabilities by a fixed
// weighted average, then inverts to a spoof probability. A secondary
// K-of-M indicator layer forces a spoof verdict when at least quorum
// indicators fire, independent of the ensemble score: the ensemble and the
// handcrafted indicators catch different attack families (synthetic speech
// vs. voice-converted speech) and neither alone is sufficient.
type WeightedAntiSpoof struct {
	subs       []SpoofModel
	weights    []float64
	indicators []Indicator
	quorum     int
	model      domain.ModelRef
	log        zerolog.Logger
}

// NewWeightedAntiSpoof validates the weight vector (same length as subs,
// summing to 1 within float tolerance) and returns the fused adapter.
// quorum <= 0 disables the indicator layer.
func NewWeightedAntiSpoof(subs []SpoofModel, weights []float64, indicators []Indicator, quorum int, model domain.ModelRef, log zerolog.Logger) (*WeightedAntiSpoof, error) {
	if len(subs) == 0 {
		return nil, ErrNoSubModels
	}
	if len(weights) != len(subs) {
		return nil, ErrWeightCount
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return nil, ErrWeightSum
	}
	return &WeightedAntiSpoof{
		subs:       subs,
		weights:    weights,
		indicators: indicators,
		quorum:     quorum,
		model:      model,
		log:        log,
	}, nil
}

// Score returns the fused spoof probability. A sub-model error fails the
// whole call; the orchestrator converts that to the worst case.
func (a *WeightedAntiSpoof) Score(ctx context.Context, audio []byte) (float64, error) {
	if a.quorum > 0 {
		fired := 0
		for _, ind := range a.indicators {
			if ind.Fire(audio) {
				fired++
				a.log.Debug().Str("indicator", ind.Name).Msg("spoof indicator fired")
			}
		}
		if fired >= a.quorum {
			a.log.Info().Int("fired", fired).Int("quorum", a.quorum).Msg("indicator layer forced spoof verdict")
			return 1, nil
		}
	}

	var genuine float64
	for i, sub := range a.subs {
		p, err := sub.Genuineness(ctx, audio)
		if err != nil {
			return 0, fmt.Errorf("sub-model %s: %w", sub.Name(), err)
		}
		genuine += a.weights[i] * p
	}

	return 1 - genuine, nil
}

func (a *WeightedAntiSpoof) Model() domain.ModelRef {
	return a.model
}
