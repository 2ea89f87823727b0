package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// AuthService implements registration, login, logout and per-request
// identity resolution.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	hasher     ports.PasswordHasher
	sessionTTL time.Duration
	logger     zerolog.Logger
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, hasher ports.PasswordHasher, sessionTTL time.Duration, logger zerolog.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Register creates an account and opens a session for it. The email is
// checked up front; the storage unique constraint covers concurrent sign-ups.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, *domain.Session, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, nil, domain.ErrEmailTaken
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("register: hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:         in.Email,
		PasswordHash:  hash,
		Name:          in.Name,
		Authenticated: true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("register: create user: %w", err)
	}

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("register: open session: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	return user, session, nil
}

// Login verifies the credentials and opens a session. Unknown emails and
// wrong passwords are reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("login: lookup email: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info().Int64("user_id", user.ID).Msg("login rejected")
		return nil, nil, domain.ErrInvalidCredentials
	}

	if err := s.users.SetAuthenticated(ctx, user.ID, true); err != nil {
		return nil, nil, fmt.Errorf("login: mark authenticated: %w", err)
	}
	user.Authenticated = true

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("login: open session: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	return user, session, nil
}

// Logout drops the session first so the caller is anonymous even when the
// informational flag cannot be written.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("logout: load session: %w", err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: delete session: %w", err)
	}

	if err := s.users.SetAuthenticated(ctx, session.UserID, false); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn().Err(err).Int64("user_id", session.UserID).Msg("failed to clear authenticated flag")
	}

	s.logger.Info().Int64("user_id", session.UserID).Msg("user logged out")
	return nil
}

// Resolve returns the user bound to sessionID. A session whose user has
// disappeared is dropped and treated as anonymous.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if derr := s.sessions.Delete(ctx, sessionID); derr != nil {
				s.logger.Warn().Err(derr).Int64("user_id", session.UserID).Msg("failed to drop orphaned session")
			}
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}
