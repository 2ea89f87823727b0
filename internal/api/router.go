package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/blog/docs"
	"github.com/99minutos/blog/internal/api/flash"
	"github.com/99minutos/blog/internal/api/handler"
	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/core/ports"
	"github.com/99minutos/blog/internal/infrastructure/http/handlers"
	"github.com/99minutos/blog/internal/web"
)

// Dependencies is the application context built once at start-up.
type Dependencies struct {
	Auth ports.AuthService
	Blog ports.BlogService

	// DB and Redis back the readiness probe. Redis may be nil.
	DB    handlers.Pinger
	Redis *redis.Client

	SecretKey    string
	SessionTTL   time.Duration
	CookieSecure bool
	CSRFEnabled  bool

	Logger zerolog.Logger
}

// requiredPages are the templates the handlers and the error handler render.
var requiredPages = []string{"index", "post", "make-post", "register", "login", "about", "contact", "error"}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	for _, page := range requiredPages {
		if !renderer.Has(page) {
			return nil, fmt.Errorf("router: missing template %q", page)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// Per-router registry; the blog counters live in the default one.
	registry := prometheus.NewRegistry()

	flasher := flash.New(deps.SecretKey, deps.CookieSecure)
	cookie := middleware.SessionCookie{
		Name:   middleware.DefaultSessionCookie,
		TTL:    deps.SessionTTL,
		Secure: deps.CookieSecure,
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "blog",
		Registerer: registry,
		Skipper:    skipProbes,
	}))
	e.Use(middleware.Identity(deps.Auth, cookie, deps.Logger))

	// CSRF runs per form route, after that route's guards.
	var csrf []echo.MiddlewareFunc
	if deps.CSRFEnabled {
		csrf = append(csrf, echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
			TokenLookup:    "form:csrf_token",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   deps.CookieSecure,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}

	// --- Handlers ---
	view := handler.NewView(flasher)
	authHandler := handler.NewAuthHandler(deps.Auth, view, cookie, deps.Logger)
	postHandler := handler.NewPostHandler(deps.Blog, view)
	pageHandler := handler.NewPageHandler(view)
	apiHandler := handler.NewAPIHandler(deps.Blog)

	adminOnly := []echo.MiddlewareFunc{
		middleware.RequireAuthenticated(flasher),
		middleware.RequireAdministrator(),
	}
	adminForm := compose(adminOnly, csrf)

	// --- Pages ---
	e.GET("/", postHandler.Index)
	e.GET("/about", pageHandler.About)
	e.GET("/contact", pageHandler.Contact)
	e.GET("/post/:post_id", postHandler.Show, csrf...)
	e.POST("/post/:post_id", postHandler.Comment, compose([]echo.MiddlewareFunc{middleware.RequireIdentity()}, csrf)...)

	// --- Auth ---
	e.GET("/register", authHandler.RegisterForm, csrf...)
	e.POST("/register", authHandler.Register, csrf...)
	e.GET("/login", authHandler.LoginForm, csrf...)
	e.POST("/login", authHandler.Login, csrf...)
	e.GET("/logout", authHandler.Logout)

	// --- Administrator ---
	e.GET("/new-post", postHandler.NewForm, adminForm...)
	e.POST("/new-post", postHandler.Create, adminForm...)
	e.GET("/edit-post/:post_id", postHandler.EditForm, adminForm...)
	e.POST("/edit-post/:post_id", postHandler.Update, adminForm...)
	e.GET("/delete/:post_id", postHandler.Delete, adminOnly...)

	// --- Read-only JSON API ---
	apiGroup := e.Group("/api")
	apiGroup.GET("/posts", apiHandler.ListPosts)
	apiGroup.GET("/posts/:post_id", apiHandler.GetPost)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Operations (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{registry, prometheus.DefaultGatherer},
	}))

	return e, nil
}

var probePrefixes = []string{"/health", "/metrics", "/swagger/"}

// skipProbes keeps probe and docs traffic out of the request metrics.
func skipProbes(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range probePrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// compose concatenates middleware groups in the order they must run.
func compose(groups ...[]echo.MiddlewareFunc) []echo.MiddlewareFunc {
	var out []echo.MiddlewareFunc
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
