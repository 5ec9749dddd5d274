// Package metrics defines and registers all custom Prometheus metrics for
// the voice verification core. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register themselves with the default registry via promauto; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voiceguard"

// ── Verification metrics ──────────────────────────────────────────────────────

// AttemptsTotal counts decided verification attempts.
// Label:
//   - reason: the decision reason code (e.g. "ACCEPTED", "SPOOF_DETECTED")
var AttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_total",
		Help:      "Total number of decided verification attempts, by decision reason.",
	},
	[]string{"reason"},
)

// AdapterLatency measures how long each scoring adapter takes per call.
// Label:
//   - adapter: "speaker", "antispoof", or "phrase"
var AdapterLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "adapter_latency_seconds",
		Help:      "Latency of individual scoring adapter calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"adapter"},
)

// AdapterTimeoutsTotal counts adapter calls absorbed into fail-closed
// worst-case scores.
// Label:
//   - adapter: "speaker", "antispoof", or "phrase"
var AdapterTimeoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adapter_timeouts_total",
		Help:      "Total number of adapter calls that timed out or errored.",
	},
	[]string{"adapter"},
)

// ── Challenge metrics ─────────────────────────────────────────────────────────

// ChallengesIssuedTotal counts issued phrase challenges.
var ChallengesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_issued_total",
		Help:      "Total number of phrase challenges issued.",
	},
)

// ── Enrollment metrics ────────────────────────────────────────────────────────

// EnrollmentsCompletedTotal counts enrollments that produced a voiceprint.
var EnrollmentsCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_completed_total",
		Help:      "Total number of completed enrollments.",
	},
)

// ActiveEnrollmentSessions tracks enrollment sessions currently in progress.
var ActiveEnrollmentSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_enrollment_sessions",
		Help:      "Current number of enrollment sessions in progress.",
	},
)
