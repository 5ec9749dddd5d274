package service

import (
	"fmt"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// Thresholds are the injected decision cut-offs. Similarity and phrase
// scores must reach their threshold; spoof probability must stay below
// its threshold.
type Thresholds struct {
	Similarity float64
	Spoof      float64
	Phrase     float64
}

// DefaultCheckOrder runs the cheapest, most discriminating check first.
var DefaultCheckOrder = []string{"similarity", "spoof", "phrase"}

// policyCheck is one named predicate over an immutable Scores value. It
// either passes or terminates the cascade with its reason.
type policyCheck struct {
	name   string
	reason domain.DecisionReason
	passes func(domain.Scores, Thresholds) bool
}

var knownChecks = map[string]policyCheck{
	"similarity": {
		name:   "similarity",
		reason: domain.ReasonLowSimilarity,
		passes: func(s domain.Scores, t Thresholds) bool { return s.Similarity.Value >= t.Similarity },
	},
	"spoof": {
		name:   "spoof",
		reason: domain.ReasonSpoofDetected,
		passes: func(s domain.Scores, t Thresholds) bool { return s.Spoof.Value < t.Spoof },
	},
	"phrase": {
		name:   "phrase",
		reason: domain.ReasonPhraseMismatch,
		passes: func(s domain.Scores, t Thresholds) bool { return s.Phrase.Value >= t.Phrase },
	},
}

// PolicyEngine applies an ordered cascade of threshold checks with early
// exit on the first failure. The cascade is data, not nested conditionals:
// order comes from configuration and each check is testable in isolation.
type PolicyEngine struct {
	checks []policyCheck
}

// NewPolicyEngine builds the cascade from the configured check order. All
// three checks must appear exactly once.
func NewPolicyEngine(order []string) (*PolicyEngine, error) {
	if len(order) == 0 {
		order = DefaultCheckOrder
	}
	if len(order) != len(knownChecks) {
		return nil, fmt.Errorf("policy: check order must name all %d checks, got %d", len(knownChecks), len(order))
	}

	seen := make(map[string]struct{}, len(order))
	checks := make([]policyCheck, 0, len(order))
	for _, name := range order {
		c, ok := knownChecks[name]
		if !ok {
			return nil, fmt.Errorf("policy: unknown check %q", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("policy: duplicate check %q", name)
		}
		seen[name] = struct{}{}
		checks = append(checks, c)
	}
	return &PolicyEngine{checks: checks}, nil
}

// Decide evaluates the cascade over scores. It is a pure function: all
// state (counters, locks) is the caller's concern.
func (p *PolicyEngine) Decide(scores domain.Scores, t Thresholds) (bool, domain.DecisionReason) {
	for _, c := range p.checks {
		if !c.passes(scores, t) {
			return false, c.reason
		}
	}
	return true, domain.ReasonAccepted
}
