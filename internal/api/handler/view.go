package handler

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/99minutos/blog/internal/api/flash"
	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/web"
)

// View fills the per-request parts of a page model and renders it.
type View struct {
	flash *flash.Flasher
}

func NewView(flasher *flash.Flasher) *View {
	return &View{flash: flasher}
}

// Page renders name with the identity, pending flashes and CSRF token of
// the current request.
func (v *View) Page(c echo.Context, status int, name string, data *web.ViewData) error {
	if data == nil {
		data = &web.ViewData{}
	}
	user := middleware.CurrentUser(c)
	data.CurrentUser = user
	data.IsAdmin = user.IsAdministrator()
	data.Flashes = v.flash.Pop(c)
	if token, ok := c.Get(echomiddleware.DefaultCSRFConfig.ContextKey).(string); ok {
		data.CSRFToken = token
	}
	return c.Render(status, name, data)
}

// Flash queues msg for the next page.
func (v *View) Flash(c echo.Context, msg string) error {
	return v.flash.Add(c, msg)
}
