package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// auditService is the append-only recorder for attempt outcomes plus the
// read side exposed to external reporting.
type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record appends one decided attempt with its scores. Existing records are
// never updated or deleted.
func (s *auditService) Record(ctx context.Context, attempt *domain.AuthAttempt, scores *domain.Scores) error {
	if !attempt.Decided {
		return fmt.Errorf("audit: refusing to record undecided attempt %s", attempt.ID)
	}
	if err := s.repo.Append(ctx, attempt, scores); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attempt.ID).Msg("audit append failed")
		return err
	}
	return nil
}

// Query returns audit records matching the filter, capped at maxAuditLimit.
func (s *auditService) Query(ctx context.Context, filter ports.AuditFilter) ([]ports.AuditRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	return s.repo.List(ctx, filter)
}
