package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/web"
)

// errorResponse is the error envelope of the JSON routes.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the error page, or {"error": "<message>"} under /api/.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)

		switch {
		case strings.HasPrefix(c.Request().URL.Path, "/api/"):
			_ = c.JSON(code, errorResponse{Error: msg})
		case c.Request().Method == http.MethodHead:
			_ = c.NoContent(code)
		default:
			user := middleware.CurrentUser(c)
			page := &web.ViewData{
				Title:       http.StatusText(code),
				CurrentUser: user,
				IsAdmin:     user.IsAdministrator(),
				Status:      code,
				Message:     msg,
			}
			if rerr := c.Render(code, "error", page); rerr != nil {
				log.Error().Err(rerr).Msg("render error page")
				_ = c.String(code, msg)
			}
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, CSRF, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(err, log, c)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, "post not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "you need to log in first"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already in use"
	case errors.Is(err, domain.ErrTitleTaken):
		return http.StatusUnprocessableEntity, "title already in use"
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnexpected(err, log, c)
	return http.StatusInternalServerError, "internal server error"
}

func logUnexpected(err error, log zerolog.Logger, c echo.Context) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
