package ports

import (
	"context"

	"github.com/99minutos/blog/internal/core/domain"
)

// RegisterInput carries the fields of the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService drives the Anonymous <-> Authenticated lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error)
	// Logout always leaves the caller anonymous; unknown sessions are ignored.
	Logout(ctx context.Context, sessionID string) error
	// Resolve maps a session id to its user or domain.ErrSessionNotFound.
	Resolve(ctx context.Context, sessionID string) (*domain.User, error)
}
