package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
)

type registerForm struct {
	Name     string `form:"name"     validate:"required"`
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

func (f registerForm) values() map[string]string {
	return map[string]string{"name": f.Name, "email": f.Email}
}

type loginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (f loginForm) values() map[string]string {
	return map[string]string{"email": f.Email}
}

type commentForm struct {
	Body string `form:"body" validate:"required"`
}

type postForm struct {
	Title    string `form:"title"    validate:"required"`
	Subtitle string `form:"subtitle" validate:"required"`
	ImgURL   string `form:"img_url"  validate:"required,url"`
	Body     string `form:"body"     validate:"required"`
}

func (f postForm) values() map[string]string {
	return map[string]string{
		"title":    f.Title,
		"subtitle": f.Subtitle,
		"img_url":  f.ImgURL,
		"body":     f.Body,
	}
}

func (f postForm) input() ports.PostInput {
	return ports.PostInput{Title: f.Title, Subtitle: f.Subtitle, ImgURL: f.ImgURL, Body: f.Body}
}

func postFormFrom(p *domain.Post) postForm {
	return postForm{Title: p.Title, Subtitle: p.Subtitle, ImgURL: p.ImgURL, Body: p.Body}
}

// bindForm decodes the request body into dst, trims text fields and runs the
// validator. A nil FieldErrors means the form is valid; any other failure is
// returned as err.
func bindForm(c echo.Context, dst any) (FieldErrors, error) {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	err := c.Validate(dst)
	if err == nil {
		return nil, nil
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, nil
	}
	return nil, err
}

type normalizer interface {
	normalize()
}

func (f *registerForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
}

func (f *loginForm) normalize() { f.Email = strings.TrimSpace(f.Email) }

func (f *commentForm) normalize() { f.Body = strings.TrimSpace(f.Body) }

func (f *postForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.ImgURL = strings.TrimSpace(f.ImgURL)
}
