package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/blog/internal/api/metrics"
	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
	"github.com/99minutos/blog/internal/web"
)

const (
	EmailTakenMsg         = "This email is already in use, log in instead."
	InvalidCredentialsMsg = "Login or Password invalid."
)

type AuthHandler struct {
	authService ports.AuthService
	view        *View
	cookie      middleware.SessionCookie
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, view *View, cookie middleware.SessionCookie, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, view: view, cookie: cookie, log: log}
}

// RegisterForm renders GET /register.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return h.view.Page(c, http.StatusOK, "register", &web.ViewData{Title: "Register"})
}

// Register handles POST /register: create the account and log it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var form registerForm
	fieldErrs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	if fieldErrs != nil {
		metrics.FormRejectionsTotal.WithLabelValues("register").Inc()
		return h.view.Page(c, http.StatusUnprocessableEntity, "register", &web.ViewData{
			Title:  "Register",
			Form:   form.values(),
			Errors: fieldErrs,
		})
	}

	user, session, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.AuthEventsTotal.WithLabelValues("register", "conflict").Inc()
			return h.redirectWithFlash(c, middleware.LoginPath, EmailTakenMsg)
		}
		metrics.AuthEventsTotal.WithLabelValues("register", "error").Inc()
		return err
	}

	metrics.AuthEventsTotal.WithLabelValues("register", "success").Inc()
	h.startSession(c, user, session)
	return c.Redirect(http.StatusFound, "/")
}

// LoginForm renders GET /login.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return h.view.Page(c, http.StatusOK, "login", &web.ViewData{Title: "Log In"})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	fieldErrs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	if fieldErrs != nil {
		metrics.FormRejectionsTotal.WithLabelValues("login").Inc()
		return h.view.Page(c, http.StatusUnprocessableEntity, "login", &web.ViewData{
			Title:  "Log In",
			Form:   form.values(),
			Errors: fieldErrs,
		})
	}

	user, session, err := h.authService.Login(c.Request().Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthEventsTotal.WithLabelValues("login", "invalid_credentials").Inc()
			return h.redirectWithFlash(c, middleware.LoginPath, InvalidCredentialsMsg)
		}
		metrics.AuthEventsTotal.WithLabelValues("login", "error").Inc()
		return err
	}

	metrics.AuthEventsTotal.WithLabelValues("login", "success").Inc()
	h.startSession(c, user, session)
	return c.Redirect(http.StatusFound, "/")
}

// Logout handles GET /logout. The caller always ends up anonymous.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), h.currentSession(c)); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("logout", "error").Inc()
		h.log.Warn().Err(err).Msg("logout failed, clearing cookie anyway")
	} else {
		metrics.AuthEventsTotal.WithLabelValues("logout", "success").Inc()
	}
	h.cookie.Clear(c)
	return c.Redirect(http.StatusFound, "/")
}

// startSession issues the session cookie. A session the browser held for a
// different account is logged out first.
func (h *AuthHandler) startSession(c echo.Context, user *domain.User, session *domain.Session) {
	if prev := middleware.CurrentUser(c); prev != nil && prev.ID != user.ID {
		if err := h.authService.Logout(c.Request().Context(), middleware.SessionID(c)); err != nil {
			h.log.Warn().Err(err).Int64("user_id", prev.ID).Msg("failed to drop previous session")
		}
	}
	h.cookie.Set(c, session.ID)
}

func (h *AuthHandler) currentSession(c echo.Context) string {
	if id := middleware.SessionID(c); id != "" {
		return id
	}
	return h.cookie.Read(c)
}

func (h *AuthHandler) redirectWithFlash(c echo.Context, to, msg string) error {
	if err := h.view.Flash(c, msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, to)
}
