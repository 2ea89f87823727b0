package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
)

const (
	userKey    = "user"
	sessionKey = "session_id"

	DefaultSessionCookie = "session"
)

// SessionCookie describes the browser cookie that carries the session id.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) name() string {
	if s.Name == "" {
		return DefaultSessionCookie
	}
	return s.Name
}

// Read returns the session id sent by the browser, or "".
func (s SessionCookie) Read(c echo.Context) string {
	ck, err := c.Cookie(s.name())
	if err != nil {
		return ""
	}
	return ck.Value
}

func (s SessionCookie) Set(c echo.Context, sessionID string) {
	c.SetCookie(s.cookie(sessionID, int(s.TTL.Seconds())))
}

func (s SessionCookie) Clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1))
}

func (s SessionCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Identity resolves the session cookie into the current user and stores it
// in the context. Requests without a usable session continue as anonymous.
func Identity(auth ports.AuthService, cookie SessionCookie, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := cookie.Read(c)
			if sessionID == "" {
				return next(c)
			}

			user, err := auth.Resolve(c.Request().Context(), sessionID)
			switch {
			case err == nil:
				c.Set(userKey, user)
				c.Set(sessionKey, sessionID)
			case errors.Is(err, domain.ErrSessionNotFound):
				cookie.Clear(c)
			default:
				log.Warn().Err(err).Str("path", c.Path()).Msg("session resolution failed, continuing anonymous")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the resolved identity, or nil when anonymous.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userKey).(*domain.User)
	return user
}

// SessionID returns the id of the resolved session, or "".
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionKey).(string)
	return id
}
