package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

type recordingAuditRepo struct {
	appended   []ports.AuditRecord
	lastFilter ports.AuditFilter
}

func (r *recordingAuditRepo) Append(_ context.Context, attempt *domain.AuthAttempt, scores *domain.Scores) error {
	r.appended = append(r.appended, ports.AuditRecord{Attempt: *attempt, Scores: *scores})
	return nil
}

func (r *recordingAuditRepo) List(_ context.Context, filter ports.AuditFilter) ([]ports.AuditRecord, error) {
	r.lastFilter = filter
	return r.appended, nil
}

func decidedAttempt(reason domain.DecisionReason) *domain.AuthAttempt {
	now := time.Now().UTC()
	return &domain.AuthAttempt{
		ID:        uuid.NewString(),
		UserID:    "user_1",
		Decided:   true,
		Accepted:  reason == domain.ReasonAccepted,
		Reason:    reason,
		CreatedAt: now,
		DecidedAt: now,
	}
}

func TestAuditService_Record(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, discardLogger)

	err := svc.Record(context.Background(), decidedAttempt(domain.ReasonAccepted), &domain.Scores{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("expected 1 appended record, got %d", len(repo.appended))
	}
}

func TestAuditService_Record_RefusesUndecided(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, discardLogger)

	attempt := decidedAttempt(domain.ReasonAccepted)
	attempt.Decided = false

	if err := svc.Record(context.Background(), attempt, &domain.Scores{}); err == nil {
		t.Fatal("expected error recording undecided attempt")
	}
	if len(repo.appended) != 0 {
		t.Error("undecided attempt must not reach the repository")
	}
}

func TestAuditService_Query_DefaultLimit(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, discardLogger)

	if _, err := svc.Query(context.Background(), ports.AuditFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastFilter.Limit != 100 {
		t.Errorf("expected default limit 100, got %d", repo.lastFilter.Limit)
	}
}

func TestAuditService_Query_CapsLimit(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, discardLogger)

	if _, err := svc.Query(context.Background(), ports.AuditFilter{Limit: 10000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastFilter.Limit != 500 {
		t.Errorf("expected limit capped at 500, got %d", repo.lastFilter.Limit)
	}
}
