package domain

import "time"

// Session binds a browser cookie to a user for a limited time.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether s is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
