package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/web"
)

// PageHandler serves the static pages.
type PageHandler struct {
	view *View
}

func NewPageHandler(view *View) *PageHandler {
	return &PageHandler{view: view}
}

func (h *PageHandler) About(c echo.Context) error {
	return h.view.Page(c, http.StatusOK, "about", &web.ViewData{Title: "About"})
}

func (h *PageHandler) Contact(c echo.Context) error {
	return h.view.Page(c, http.StatusOK, "contact", &web.ViewData{Title: "Contact"})
}
