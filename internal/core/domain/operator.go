package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleService = "service"
	RoleAuditor = "auditor"
)

var ErrOperatorNotFound = errors.New("operator not found")
var ErrOperatorExists = errors.New("operator already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")

// Operator models an authenticated API caller: the verification gateway
// itself (role "service"), reporting tooling (role "auditor"), or an
// administrator.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
