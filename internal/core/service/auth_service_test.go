package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

type stubOperatorRepo struct {
	operators map[string]*domain.Operator
}

func newStubOperatorRepo() *stubOperatorRepo {
	return &stubOperatorRepo{operators: make(map[string]*domain.Operator)}
}

func cloneOperator(op *domain.Operator) *domain.Operator {
	if op == nil {
		return nil
	}
	clone := *op
	return &clone
}

func (r *stubOperatorRepo) Create(_ context.Context, op *domain.Operator) (*domain.Operator, error) {
	if _, exists := r.operators[op.Username]; exists {
		return nil, domain.ErrOperatorExists
	}
	copy := cloneOperator(op)
	if copy.ID == "" {
		copy.ID = op.Username
	}
	r.operators[copy.Username] = cloneOperator(copy)
	return cloneOperator(copy), nil
}

func (r *stubOperatorRepo) FindByUsername(_ context.Context, username string) (*domain.Operator, error) {
	op, ok := r.operators[username]
	if !ok {
		return nil, domain.ErrOperatorNotFound
	}
	return cloneOperator(op), nil
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	op, err := svc.Register(context.Background(), "gateway", "pass123", domain.RoleService)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if op == nil {
		t.Fatalf("expected operator, got nil")
	}
	if op.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if op.Role != domain.RoleService {
		t.Fatalf("unexpected role: %s", op.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "", "pass", domain.RoleAdmin); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "bob", "pass", "superuser"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	_, _ = svc.Register(context.Background(), "bob", "pass", domain.RoleAuditor)
	if _, err := svc.Register(context.Background(), "bob", "other", domain.RoleAuditor); err != domain.ErrOperatorExists {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "auditor", "pass123", domain.RoleAuditor); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, op, err := svc.Login(context.Background(), "auditor", "pass123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if op.Username != "auditor" {
		t.Fatalf("unexpected operator: %s", op.Username)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims["username"] != "auditor" || claims["role"] != domain.RoleAuditor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := claims["exp"]; !ok {
		t.Fatal("token must carry an expiry")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "bob", "pass123", domain.RoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "bob", "nope"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownOperator(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrOperatorNotFound {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}
