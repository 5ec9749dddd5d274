package ports

import (
	"context"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

// OperatorRepository defines the interface for operator account persistence.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
	Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error)
}

// AuthService handles operator registration and login for the HTTP API.
type AuthService interface {
	Register(ctx context.Context, username, password, role string) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, *domain.Operator, error)
}
