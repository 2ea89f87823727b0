// Package flash carries one-shot user messages across a redirect in a
// signed cookie.
package flash

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "flash"
	defaultTTL = 5 * time.Minute
	contextKey = "flash_messages"
)

type claims struct {
	Messages []string `json:"msgs"`
	jwt.RegisteredClaims
}

// Flasher signs pending messages as an HS256 JWT with the application secret.
// Tampered or expired cookies are ignored.
type Flasher struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func New(secret string, secure bool) *Flasher {
	return &Flasher{secret: []byte(secret), ttl: defaultTTL, secure: secure}
}

// Add queues msg for the next rendered page, keeping any message that is
// still pending.
func (f *Flasher) Add(c echo.Context, msg string) error {
	msgs := append(f.pending(c), msg)

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
		},
	})
	signed, err := token.SignedString(f.secret)
	if err != nil {
		return err
	}

	c.SetCookie(f.cookie(signed, int(f.ttl.Seconds())))
	// Later reads in this request see the queued messages.
	c.Set(contextKey, msgs)
	return nil
}

// Pop returns the pending messages and clears the cookie.
func (f *Flasher) Pop(c echo.Context) []string {
	msgs := f.pending(c)
	if _, err := c.Cookie(CookieName); err == nil || c.Get(contextKey) != nil {
		c.SetCookie(f.cookie("", -1))
	}
	c.Set(contextKey, []string{})
	return msgs
}

func (f *Flasher) pending(c echo.Context) []string {
	if msgs, ok := c.Get(contextKey).([]string); ok {
		return msgs
	}
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return f.decode(cookie.Value)
}

func (f *Flasher) decode(value string) []string {
	var cl claims
	tkn, err := jwt.ParseWithClaims(value, &cl, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return f.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil
	}
	return cl.Messages
}

func (f *Flasher) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
