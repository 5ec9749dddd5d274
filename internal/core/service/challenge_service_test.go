package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub challenge repository
// ---------------------------------------------------------------------------

type stubChallengeRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Challenge
	issued    []string // phrase ids in issue order, newest last
	createErr error
}

func newStubChallengeRepo() *stubChallengeRepo {
	return &stubChallengeRepo{byID: make(map[string]*domain.Challenge)}
}

func (r *stubChallengeRepo) Create(_ context.Context, c *domain.Challenge) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.byID[c.ID] = &clone
	r.issued = append(r.issued, c.PhraseID)
	return nil
}

func (r *stubChallengeRepo) FindByID(_ context.Context, id string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	clone := *c
	return &clone, nil
}

// Consume mirrors the conditional-update semantics of the real Mongo repo:
// exactly one caller wins, the loser is classified by what it finds.
func (r *stubChallengeRepo) Consume(_ context.Context, id, userID string, now time.Time) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	if c.UserID != userID {
		return nil, domain.ErrInvalidChallenge
	}
	if c.Used() {
		return nil, domain.ErrChallengeReplayed
	}
	if c.Expired(now) {
		return nil, domain.ErrChallengeExpired
	}
	used := now
	c.UsedAt = &used
	clone := *c
	return &clone, nil
}

func (r *stubChallengeRepo) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	c.UsedAt = nil
	return nil
}

func (r *stubChallengeRepo) RecentPhraseIDs(_ context.Context, _ string, n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for i := len(r.issued) - 1; i >= 0 && len(ids) < n; i-- {
		ids = append(ids, r.issued[i])
	}
	return ids, nil
}

func (r *stubChallengeRepo) CountActive(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active int64
	for _, c := range r.byID {
		if c.UserID == userID && !c.Used() && !c.Expired(now) {
			active++
		}
	}
	return active, nil
}

// ---------------------------------------------------------------------------
// Stub phrase catalog and rate limiter
// ---------------------------------------------------------------------------

type stubCatalog struct {
	next      int
	selectErr error
}

func (s *stubCatalog) SelectPhrase(_ context.Context, exclude []string, _ string) (*domain.Phrase, error) {
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	for {
		id := fmt.Sprintf("phrase_%d", s.next)
		s.next++
		if _, skip := excluded[id]; !skip {
			return &domain.Phrase{ID: id, Text: "the quick brown fox " + id, Active: true}, nil
		}
	}
}

type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (s *stubLimiter) Allow(_ context.Context, _ string) (bool, error) {
	s.calls++
	return s.allow, s.err
}

func testChallengePolicy() ChallengePolicy {
	return ChallengePolicy{TTL: 3 * time.Minute, ExclusionWindow: 10, MaxActive: 3}
}

// ---------------------------------------------------------------------------
// Issue tests
// ---------------------------------------------------------------------------

func TestChallengeService_Issue_Success(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: true}, testChallengePolicy(), discardLogger)

	ch, err := svc.Issue(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch.ID == "" {
		t.Error("challenge id must not be empty")
	}
	if ch.UserID != "user_1" {
		t.Errorf("expected user_1, got %s", ch.UserID)
	}
	if ch.PhraseText == "" {
		t.Error("phrase text must not be empty")
	}
	if !ch.ExpiresAt.After(ch.IssuedAt) {
		t.Error("expiry must be after issuance")
	}
	if got := ch.ExpiresAt.Sub(ch.IssuedAt); got != 3*time.Minute {
		t.Errorf("expected 3m liveness window, got %v", got)
	}
	if ch.Used() {
		t.Error("fresh challenge must not be marked used")
	}
}

func TestChallengeService_Issue_PersistsBeforeReturn(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: true}, testChallengePolicy(), discardLogger)

	ch, err := svc.Issue(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), ch.ID); err != nil {
		t.Fatalf("challenge not durable: %v", err)
	}
}

func TestChallengeService_Issue_RateLimited(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: false}, testChallengePolicy(), discardLogger)

	_, err := svc.Issue(context.Background(), "user_1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("rate-limited issuance must not persist a challenge")
	}
}

func TestChallengeService_Issue_MaxActiveCap(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: true}, testChallengePolicy(), discardLogger)

	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(context.Background(), "user_1"); err != nil {
			t.Fatalf("issue %d failed: %v", i, err)
		}
	}

	_, err := svc.Issue(context.Background(), "user_1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited at active cap, got %v", err)
	}
}

func TestChallengeService_Issue_ExcludesRecentPhrases(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: true}, ChallengePolicy{
		TTL:             time.Minute,
		ExclusionWindow: 10,
	}, discardLogger)

	seen := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		ch, err := svc.Issue(context.Background(), "user_1")
		if err != nil {
			t.Fatalf("issue %d failed: %v", i, err)
		}
		if _, dup := seen[ch.PhraseID]; dup {
			t.Fatalf("phrase %s repeated inside exclusion window", ch.PhraseID)
		}
		seen[ch.PhraseID] = struct{}{}
	}
}

func TestChallengeService_Issue_NoPhraseAvailable(t *testing.T) {
	repo := newStubChallengeRepo()
	catalog := &stubCatalog{selectErr: domain.ErrNoPhraseAvailable}
	svc := NewChallengeService(repo, catalog, &stubLimiter{allow: true}, testChallengePolicy(), discardLogger)

	_, err := svc.Issue(context.Background(), "user_1")
	if !errors.Is(err, domain.ErrNoPhraseAvailable) {
		t.Fatalf("expected ErrNoPhraseAvailable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// IssueBatch tests
// ---------------------------------------------------------------------------

func TestChallengeService_IssueBatch_DistinctPhrases(t *testing.T) {
	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, &stubCatalog{}, &stubLimiter{allow: true}, testChallengePolicy(), discardLogger)

	issued, err := svc.IssueBatch(context.Background(), "user_1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issued) != 3 {
		t.Fatalf("expected 3 challenges, got %d", len(issued))
	}

	seen := make(map[string]struct{})
	for _, ch := range issued {
		if _, dup := seen[ch.PhraseID]; dup {
			t.Fatalf("duplicate phrase %s within batch", ch.PhraseID)
		}
		seen[ch.PhraseID] = struct{}{}
	}
}

func TestChallengeService_IssueBatch_ChecksLimitsOnce(t *testing.T) {
	repo := newStubChallengeRepo()
	limiter := &stubLimiter{allow: true}
	svc := NewChallengeService(repo, &stubCatalog{}, limiter, testChallengePolicy(), discardLogger)

	if _, err := svc.IssueBatch(context.Background(), "user_1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limiter.calls != 1 {
		t.Errorf("expected a single limiter check for the batch, got %d", limiter.calls)
	}
}
