package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/core/ports"
)

const defaultInterval = time.Minute

// Sweeper periodically expires overdue enrollment sessions. Expiry is also
// applied lazily on access; the sweeper keeps the externally-visible
// session state and the active-sessions gauge honest for sessions nobody
// touches again.
type Sweeper struct {
	enrollments ports.EnrollmentService
	interval    time.Duration
	log         zerolog.Logger
}

// NewSweeper creates a Sweeper. If interval <= 0, defaultInterval is used.
func NewSweeper(enrollments ports.EnrollmentService, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{enrollments: enrollments, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := s.enrollments.ExpireOverdue(ctx, time.Now().UTC())
			if err != nil {
				s.log.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if swept > 0 {
				s.log.Info().Int("expired", swept).Msg("overdue enrollment sessions expired")
			}
		}
	}
}
