package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/blog/internal/api/handler"
	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/service"
	"github.com/99minutos/blog/internal/infrastructure/db/memory"
	"github.com/99minutos/blog/internal/infrastructure/db/sqldb"
)

// ----- Test application -----

type testApp struct {
	srv   *httptest.Server
	users *sqldb.UserRepository
	posts *sqldb.PostRepository
}

func newTestApp(t *testing.T, csrf bool) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := sqldb.Open(ctx, sqldb.Config{Driver: sqldb.DriverSQLite, DSN: filepath.Join(t.TempDir(), "blog.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := sqldb.NewUserRepository(db)
	posts := sqldb.NewPostRepository(db)
	auth := service.NewAuthService(users, memory.NewSessionStore(), service.NewBcryptHasher(bcrypt.MinCost), time.Hour, zerolog.Nop())
	blog := service.NewBlogService(posts, sqldb.NewCommentRepository(db), zerolog.Nop()).
		WithClock(func() time.Time { return time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC) })

	e, err := NewRouter(Dependencies{
		Auth:        auth,
		Blog:        blog,
		DB:          db,
		SecretKey:   "router-test-secret",
		SessionTTL:  time.Hour,
		CSRFEnabled: csrf,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, users: users, posts: posts}
}

// browser returns a client that keeps cookies and does not follow redirects.
func (a *testApp) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, client *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(a.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, client *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(a.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func (a *testApp) register(t *testing.T, client *http.Client, name, email, password string) {
	t.Helper()
	resp, _ := a.post(t, client, "/register", url.Values{"name": {name}, "email": {email}, "password": {password}})
	expectRedirect(t, resp, "/")
}

func (a *testApp) login(t *testing.T, client *http.Client, email, password string) {
	t.Helper()
	resp, _ := a.post(t, client, "/login", url.Values{"email": {email}, "password": {password}})
	expectRedirect(t, resp, "/")
}

// withAdmin registers the administrator (id 1) and returns its browser.
func (a *testApp) withAdmin(t *testing.T) *http.Client {
	t.Helper()
	admin := a.browser(t)
	a.register(t, admin, "Admin", "admin@x.com", "adminpw")
	return admin
}

func (a *testApp) createPost(t *testing.T, client *http.Client, title string) *domain.Post {
	t.Helper()
	resp, body := a.post(t, client, "/new-post", url.Values{
		"title":    {title},
		"subtitle": {"Sub"},
		"img_url":  {"https://example.com/a.png"},
		"body":     {"<p>Hello</p>"},
	})
	expectRedirect(t, resp, "/")
	post, err := a.posts.FindByTitle(context.Background(), title)
	if err != nil {
		t.Fatalf("created post missing: %v (%s)", err, body)
	}
	return post
}

func expectRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != to {
		t.Fatalf("expected redirect to %q, got %q", to, got)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d", want, resp.StatusCode)
	}
}

// ----- Identity lifecycle -----

func TestRouter_RegisterLoginAndDuplicateEmail(t *testing.T) {
	app := newTestApp(t, false)
	app.withAdmin(t)

	al := app.browser(t)
	app.register(t, al, "Al", "a@x.com", "pw")
	app.get(t, al, "/logout")
	app.login(t, al, "a@x.com", "pw")

	_, home := app.get(t, al, "/")
	if !strings.Contains(home, "Signed in as Al") {
		t.Fatalf("expected Al to be signed in")
	}

	resp, _ := app.post(t, al, "/register", url.Values{"name": {"Al2"}, "email": {"a@x.com"}, "password": {"pw2"}})
	expectRedirect(t, resp, middleware.LoginPath)

	_, page := app.get(t, al, "/login")
	if !strings.Contains(page, handler.EmailTakenMsg) {
		t.Fatalf("expected the email-taken flash on the login page")
	}
	_, home = app.get(t, al, "/")
	if !strings.Contains(home, "Signed in as Al") || strings.Contains(home, "Al2") {
		t.Fatalf("identity must still be the first Al")
	}

	u, err := app.users.FindByEmail(context.Background(), "a@x.com")
	if err != nil || u.Name != "Al" {
		t.Fatalf("expected the original row to survive, got %+v, %v", u, err)
	}
	if _, err := app.users.FindByID(context.Background(), 3); err == nil {
		t.Fatalf("duplicate registration must not add a row")
	}
}

func TestRouter_RegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)

	resp, body := app.post(t, b, "/register", url.Values{
		"name": {"Al"}, "email": {"a@x.com"}, "password": {strings.Repeat("é", 60)},
	})
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	if !strings.Contains(body, "password must be at most 72 bytes") {
		t.Fatalf("expected the password field error")
	}
	if _, err := app.users.FindByEmail(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("rejected registration must not add a row")
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	app := newTestApp(t, false)
	app.withAdmin(t)

	for name, form := range map[string]url.Values{
		"wrong password": {"email": {"admin@x.com"}, "password": {"nope"}},
		"unknown email":  {"email": {"ghost@x.com"}, "password": {"adminpw"}},
	} {
		t.Run(name, func(t *testing.T) {
			b := app.browser(t)
			resp, _ := app.post(t, b, "/login", form)
			expectRedirect(t, resp, middleware.LoginPath)

			_, page := app.get(t, b, "/login")
			if !strings.Contains(page, handler.InvalidCredentialsMsg) {
				t.Fatalf("expected the invalid-credentials flash")
			}
			_, home := app.get(t, b, "/")
			if strings.Contains(home, "Signed in as") {
				t.Fatalf("failed login must leave the caller anonymous")
			}
		})
	}
}

func TestRouter_LogoutEndsSession(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)

	resp, _ := app.get(t, admin, "/logout")
	expectRedirect(t, resp, "/")

	_, home := app.get(t, admin, "/")
	if strings.Contains(home, "Signed in as") {
		t.Fatalf("expected anonymous after logout")
	}
	resp, _ = app.get(t, admin, "/new-post")
	expectRedirect(t, resp, middleware.LoginPath)

	// Logging out twice is harmless.
	resp, _ = app.get(t, admin, "/logout")
	expectRedirect(t, resp, "/")
}

// ----- Guards -----

func TestRouter_AdminGuards(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	post := app.createPost(t, admin, "Guarded")

	reader := app.browser(t)
	app.register(t, reader, "Reader", "r@x.com", "pw")
	anon := app.browser(t)

	paths := []string{
		"/new-post",
		"/edit-post/" + itoa(post.ID),
		"/delete/" + itoa(post.ID),
	}
	for _, p := range paths {
		resp, _ := app.get(t, anon, p)
		expectRedirect(t, resp, middleware.LoginPath)

		resp, body := app.get(t, reader, p)
		expectStatus(t, resp, http.StatusForbidden)
		if !strings.Contains(body, "403") {
			t.Fatalf("expected the 403 page for %s", p)
		}
	}

	_, page := app.get(t, anon, "/login")
	if !strings.Contains(page, middleware.LoginRequiredMsg) {
		t.Fatalf("expected the login-required flash")
	}

	resp, _ := app.post(t, reader, "/new-post", url.Values{"title": {"Nope"}})
	expectStatus(t, resp, http.StatusForbidden)
	if _, err := app.posts.FindByTitle(context.Background(), "Nope"); err == nil {
		t.Fatalf("forbidden create must not store a post")
	}

	resp, _ = app.get(t, admin, "/new-post")
	expectStatus(t, resp, http.StatusOK)
}

// ----- Posts -----

func TestRouter_CreateStampsDateAndAuthor(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)

	post := app.createPost(t, admin, "Hi")
	if post.Date != "April 02, 2024" {
		t.Fatalf("expected stamped date, got %q", post.Date)
	}
	if post.AuthorID != domain.AdministratorID || post.AuthorName != "Admin" {
		t.Fatalf("expected the administrator as author, got %d %q", post.AuthorID, post.AuthorName)
	}

	resp, body := app.get(t, app.browser(t), "/post/"+itoa(post.ID))
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, "<p>Hello</p>") || !strings.Contains(body, "Posted by Admin on April 02, 2024") {
		t.Fatalf("unexpected post page: %s", body)
	}

	resp, body = app.post(t, admin, "/new-post", url.Values{
		"title": {"Hi"}, "subtitle": {"s"}, "img_url": {"https://example.com/b.png"}, "body": {"b"},
	})
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	if !strings.Contains(body, "title already in use") {
		t.Fatalf("expected the duplicate title error")
	}
}

func TestRouter_EditOverwritesAndReassignsAuthor(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	app.register(t, app.browser(t), "Writer", "w@x.com", "pw")

	seeded, err := app.posts.Create(context.Background(), &domain.Post{
		Title: "Old", Subtitle: "old sub", Date: "January 01, 2020",
		Body: "old body", ImgURL: "https://example.com/old.png", AuthorID: 2,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}

	resp, _ := app.post(t, admin, "/edit-post/"+itoa(seeded.ID), url.Values{
		"title": {"New"}, "subtitle": {"new sub"}, "img_url": {"https://example.com/new.png"}, "body": {"new body"},
	})
	expectRedirect(t, resp, "/post/"+itoa(seeded.ID))

	got, err := app.posts.FindByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "New" || got.Subtitle != "new sub" || got.Body != "new body" || got.ImgURL != "https://example.com/new.png" {
		t.Fatalf("fields not overwritten: %+v", got)
	}
	if got.AuthorID != domain.AdministratorID {
		t.Fatalf("expected author reassigned to the editor, got %d", got.AuthorID)
	}
	if got.Date != "January 01, 2020" {
		t.Fatalf("edit must keep the original date, got %q", got.Date)
	}

	resp, _ = app.post(t, admin, "/edit-post/999", url.Values{
		"title": {"X"}, "subtitle": {"s"}, "img_url": {"https://example.com/x.png"}, "body": {"b"},
	})
	expectStatus(t, resp, http.StatusNotFound)
}

func TestRouter_DeleteCascadesComments(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	post := app.createPost(t, admin, "Doomed")

	resp, _ := app.post(t, admin, "/post/"+itoa(post.ID), url.Values{"body": {"first!"}})
	expectRedirect(t, resp, "/post/"+itoa(post.ID))
	_, page := app.get(t, admin, "/post/"+itoa(post.ID))
	if !strings.Contains(page, "first!") {
		t.Fatalf("expected the comment on the post page")
	}

	resp, _ = app.get(t, admin, "/delete/"+itoa(post.ID))
	expectRedirect(t, resp, "/")

	resp, _ = app.get(t, admin, "/post/"+itoa(post.ID))
	expectStatus(t, resp, http.StatusNotFound)
	resp, _ = app.get(t, admin, "/delete/"+itoa(post.ID))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestRouter_CommentRequiresIdentity(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	post := app.createPost(t, admin, "Open")

	resp, body := app.post(t, app.browser(t), "/post/"+itoa(post.ID), url.Values{"body": {"anon"}})
	expectStatus(t, resp, http.StatusUnauthorized)
	if !strings.Contains(body, "you need to log in first") {
		t.Fatalf("expected the unauthorized page")
	}

	_, page := app.get(t, admin, "/post/"+itoa(post.ID))
	if strings.Contains(page, "anon") {
		t.Fatalf("anonymous comment must not be stored")
	}
}

func TestRouter_UnknownPosts(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)

	for _, p := range []string{"/post/999", "/post/abc"} {
		resp, _ := app.get(t, b, p)
		expectStatus(t, resp, http.StatusNotFound)
	}

	resp, body := app.get(t, b, "/api/posts/999")
	expectStatus(t, resp, http.StatusNotFound)
	var envelope map[string]string
	if err := json.Unmarshal([]byte(body), &envelope); err != nil || envelope["error"] != "post not found" {
		t.Fatalf("expected JSON error envelope, got %q", body)
	}
}

// ----- Scenarios -----

func TestRouter_ScenarioAdminCreatesPostReaderCannotEdit(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	post := app.createPost(t, admin, "Hi")

	reader := app.browser(t)
	app.register(t, reader, "Al", "a@x.com", "pw")

	resp, _ := app.get(t, reader, "/edit-post/"+itoa(post.ID))
	expectStatus(t, resp, http.StatusForbidden)

	resp, body := app.get(t, admin, "/edit-post/"+itoa(post.ID))
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, `value="Hi"`) {
		t.Fatalf("expected the form pre-filled with the title")
	}
}

func TestRouter_APIListsPosts(t *testing.T) {
	app := newTestApp(t, false)
	admin := app.withAdmin(t)
	app.createPost(t, admin, "One")
	app.createPost(t, admin, "Two")

	resp, body := app.get(t, app.browser(t), "/api/posts")
	expectStatus(t, resp, http.StatusOK)

	var list struct {
		Items []struct {
			Title  string `json:"title"`
			Author string `json:"author"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 2 || list.Items[0].Title != "One" || list.Items[1].Author != "Admin" {
		t.Fatalf("unexpected list %+v", list)
	}
}

// ----- Operations -----

func TestRouter_OperationalRoutes(t *testing.T) {
	app := newTestApp(t, false)
	b := app.browser(t)

	resp, _ := app.get(t, b, "/health")
	expectStatus(t, resp, http.StatusOK)

	resp, body := app.get(t, b, "/health/ready")
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, `"disabled"`) {
		t.Fatalf("expected redis to be reported as disabled, got %s", body)
	}

	app.get(t, b, "/")
	resp, body = app.get(t, b, "/metrics")
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, "blog_") {
		t.Fatalf("expected blog metrics")
	}

	for _, p := range []string{"/about", "/contact", "/register", "/login"} {
		resp, _ := app.get(t, b, p)
		expectStatus(t, resp, http.StatusOK)
	}
}

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func TestRouter_CSRF(t *testing.T) {
	app := newTestApp(t, true)
	b := app.browser(t)

	resp, _ := app.post(t, b, "/login", url.Values{"email": {"a@x.com"}, "password": {"pw"}})
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected a rejected form without token, got %d", resp.StatusCode)
	}

	_, page := app.get(t, b, "/register")
	m := csrfField.FindStringSubmatch(page)
	if m == nil {
		t.Fatalf("expected a csrf token in the register form")
	}
	resp, _ = app.post(t, b, "/register", url.Values{
		"csrf_token": {m[1]}, "name": {"Admin"}, "email": {"admin@x.com"}, "password": {"pw"},
	})
	expectRedirect(t, resp, "/")

	resp, _ = app.post(t, b, "/new-post", url.Values{
		"title": {"Hi"}, "subtitle": {"s"}, "img_url": {"https://example.com/a.png"}, "body": {"b"},
	})
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected the administrator's form without token to be rejected, got %d", resp.StatusCode)
	}

	_, page = app.get(t, b, "/new-post")
	m = csrfField.FindStringSubmatch(page)
	if m == nil {
		t.Fatalf("expected a csrf token in the post form")
	}
	resp, _ = app.post(t, b, "/new-post", url.Values{
		"csrf_token": {m[1]}, "title": {"Hi"}, "subtitle": {"s"}, "img_url": {"https://example.com/a.png"}, "body": {"b"},
	})
	expectRedirect(t, resp, "/")

	resp, _ = app.get(t, b, "/api/posts")
	expectStatus(t, resp, http.StatusOK)
}

func TestRouter_GuardsRunBeforeCSRF(t *testing.T) {
	app := newTestApp(t, true)
	anon := app.browser(t)
	app.get(t, anon, "/")

	for _, p := range []string{"/new-post", "/edit-post/1"} {
		resp, _ := app.post(t, anon, p, url.Values{"title": {"x"}})
		expectRedirect(t, resp, middleware.LoginPath)
	}

	resp, body := app.post(t, anon, "/post/1", url.Values{"body": {"hello"}})
	expectStatus(t, resp, http.StatusUnauthorized)
	if !strings.Contains(body, "you need to log in first") {
		t.Fatalf("expected the unauthorized page")
	}

	_, page := app.get(t, anon, "/login")
	if !strings.Contains(page, middleware.LoginRequiredMsg) {
		t.Fatalf("expected the login-required flash")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
