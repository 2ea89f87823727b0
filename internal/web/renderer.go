// Package web holds the HTML templates of the blog and the echo.Renderer
// that executes them.
package web

import (
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// ViewData is the model every page is rendered with.
type ViewData struct {
	Title       string
	CurrentUser *domain.User
	IsAdmin     bool
	Flashes     []string
	CSRFToken   string

	Form   map[string]string
	Errors map[string]string

	Posts    []*domain.Post
	Post     *domain.Post
	Comments []*domain.Comment
	Editing  bool

	Status  int
	Message string
}

// Renderer executes layout + page template pairs parsed once at start-up.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page against the shared layout.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		t, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Has reports whether a page named name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

var funcs = template.FuncMap{
	// Post bodies are authored by the administrator as HTML.
	"safe":     func(s string) template.HTML { return template.HTML(s) },
	"gravatar": gravatar,
}

// gravatar returns the comment avatar: 100px, rated g, retro fallback.
func gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=100&r=g&d=retro"
}
