package ports

import (
	"context"
	"time"

	"github.com/99minutos/blog/internal/core/domain"
)

// UserRepository defines the persistence operations for blog accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts user and returns it with its assigned id. A duplicate
	// email yields domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	SetAuthenticated(ctx context.Context, id int64, authenticated bool) error
}

// SessionStore keeps the mapping from session id to user id.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (*domain.Session, error)
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// PasswordHasher is a one-way salted hash over plaintext passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
