package ports

import (
	"context"
	"time"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// AuditFilter carries query parameters for reading the audit trail.
type AuditFilter struct {
	UserID string // empty = all users
	Reason string // optional: filter by decision reason
	From   time.Time
	To     time.Time
	Limit  int // capped by the service
}

// AuditRecord pairs a decided attempt with its scores as stored.
type AuditRecord struct {
	Attempt domain.AuthAttempt
	Scores  domain.Scores
}

// AuditRepository is the append-only persistence sink for attempt
// outcomes. Rows are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, attempt *domain.AuthAttempt, scores *domain.Scores) error
	List(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)
}

// AuditService records every decided attempt and exposes read-only
// queries. This is the only component external reporting is allowed to
// read from directly.
type AuditService interface {
	Record(ctx context.Context, attempt *domain.AuthAttempt, scores *domain.Scores) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)
}
