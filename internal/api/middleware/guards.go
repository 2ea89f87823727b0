package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/api/flash"
	"github.com/99minutos/blog/internal/api/metrics"
	"github.com/99minutos/blog/internal/core/domain"
)

const (
	LoginPath        = "/login"
	LoginRequiredMsg = "Please log in to access this page."
)

// RequireAuthenticated sends anonymous callers to the login page with a flash
// message. The wrapped handler does not run.
func RequireAuthenticated(flasher *flash.Flasher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				metrics.GuardRejectionsTotal.WithLabelValues("authenticated").Inc()
				if err := flasher.Add(c, LoginRequiredMsg); err != nil {
					return err
				}
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// RequireAdministrator rejects every identity but the administrator with
// domain.ErrForbidden. Compose it after RequireAuthenticated.
func RequireAdministrator() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentUser(c).IsAdministrator() {
				metrics.GuardRejectionsTotal.WithLabelValues("administrator").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireIdentity rejects anonymous callers with domain.ErrUnauthorized.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				metrics.GuardRejectionsTotal.WithLabelValues("identity").Inc()
				return domain.ErrUnauthorized
			}
			return next(c)
		}
	}
}
