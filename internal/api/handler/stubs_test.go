package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/api/flash"
	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
	"github.com/99minutos/blog/internal/web"
)

// ----- Stubs -----

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, *domain.Session, error)
	loginFn    func(ctx context.Context, email, password string) (*domain.User, *domain.Session, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, *domain.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, sessionID)
}

func (s *stubAuthService) Resolve(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrSessionNotFound
}

type stubBlogService struct {
	listFn    func(ctx context.Context) ([]*domain.Post, error)
	getFn     func(ctx context.Context, id int64) (*ports.PostDetail, error)
	commentFn func(ctx context.Context, postID, authorID int64, body string) (*domain.Comment, error)
	createFn  func(ctx context.Context, authorID int64, in ports.PostInput) (*domain.Post, error)
	editFn    func(ctx context.Context, id, authorID int64, in ports.PostInput) (*domain.Post, error)
	deleteFn  func(ctx context.Context, id int64) error
}

var errNotStubbed = errors.New("not stubbed")

func (s *stubBlogService) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	if s.listFn == nil {
		return nil, errNotStubbed
	}
	return s.listFn(ctx)
}

func (s *stubBlogService) GetPost(ctx context.Context, id int64) (*ports.PostDetail, error) {
	if s.getFn == nil {
		return nil, errNotStubbed
	}
	return s.getFn(ctx, id)
}

func (s *stubBlogService) AddComment(ctx context.Context, postID, authorID int64, body string) (*domain.Comment, error) {
	if s.commentFn == nil {
		return nil, errNotStubbed
	}
	return s.commentFn(ctx, postID, authorID, body)
}

func (s *stubBlogService) CreatePost(ctx context.Context, authorID int64, in ports.PostInput) (*domain.Post, error) {
	if s.createFn == nil {
		return nil, errNotStubbed
	}
	return s.createFn(ctx, authorID, in)
}

func (s *stubBlogService) EditPost(ctx context.Context, id, authorID int64, in ports.PostInput) (*domain.Post, error) {
	if s.editFn == nil {
		return nil, errNotStubbed
	}
	return s.editFn(ctx, id, authorID, in)
}

func (s *stubBlogService) DeletePost(ctx context.Context, id int64) error {
	if s.deleteFn == nil {
		return errNotStubbed
	}
	return s.deleteFn(ctx, id)
}

// ----- Helpers -----

const testSecret = "test-secret"

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e := echo.New()
	e.Renderer = renderer
	e.Validator = NewValidator()
	return e
}

func newTestView() *View {
	return NewView(flash.New(testSecret, false))
}

// formContext builds a context for a form POST (or a GET when form is nil).
func formContext(e *echo.Echo, method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func testSession(userID int64) *domain.Session {
	return &domain.Session{ID: fmt.Sprintf("sess-%d", userID), UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
}
