package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/api/metrics"
	"github.com/99minutos/blog/internal/api/middleware"
	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
	"github.com/99minutos/blog/internal/web"
)

const titleTakenMsg = "title already in use"

// PostHandler serves the post list, post pages, comments and the
// administrator's post management forms.
type PostHandler struct {
	blog ports.BlogService
	view *View
}

func NewPostHandler(blog ports.BlogService, view *View) *PostHandler {
	return &PostHandler{blog: blog, view: view}
}

// Index handles GET /.
func (h *PostHandler) Index(c echo.Context) error {
	posts, err := h.blog.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return h.view.Page(c, http.StatusOK, "index", &web.ViewData{Posts: posts})
}

// Show handles GET /post/:post_id.
func (h *PostHandler) Show(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	return h.renderPost(c, http.StatusOK, id, nil, nil)
}

// Comment handles POST /post/:post_id. Anonymous callers get
// domain.ErrUnauthorized.
func (h *PostHandler) Comment(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		return domain.ErrUnauthorized
	}

	var form commentForm
	fieldErrs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	if fieldErrs != nil {
		metrics.FormRejectionsTotal.WithLabelValues("comment").Inc()
		return h.renderPost(c, http.StatusUnprocessableEntity, id, map[string]string{"body": form.Body}, fieldErrs)
	}

	if _, err := h.blog.AddComment(c.Request().Context(), id, user.ID, form.Body); err != nil {
		return err
	}
	metrics.CommentsCreatedTotal.Inc()
	return c.Redirect(http.StatusFound, postPath(id))
}

func (h *PostHandler) renderPost(c echo.Context, status int, id int64, form map[string]string, errs FieldErrors) error {
	detail, err := h.blog.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.view.Page(c, status, "post", &web.ViewData{
		Title:    detail.Post.Title,
		Post:     detail.Post,
		Comments: detail.Comments,
		Form:     form,
		Errors:   errs,
	})
}

// NewForm handles GET /new-post.
func (h *PostHandler) NewForm(c echo.Context) error {
	return h.view.Page(c, http.StatusOK, "make-post", &web.ViewData{Title: "New Post"})
}

// Create handles POST /new-post.
func (h *PostHandler) Create(c echo.Context) error {
	var form postForm
	fieldErrs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	if fieldErrs != nil {
		return h.rejectPost(c, nil, form, fieldErrs)
	}

	user := middleware.CurrentUser(c)
	if _, err := h.blog.CreatePost(c.Request().Context(), user.ID, form.input()); err != nil {
		if errors.Is(err, domain.ErrTitleTaken) {
			return h.rejectPost(c, nil, form, FieldErrors{"title": titleTakenMsg})
		}
		return err
	}
	metrics.PostWritesTotal.WithLabelValues("create").Inc()
	return c.Redirect(http.StatusFound, "/")
}

// EditForm handles GET /edit-post/:post_id with the form pre-filled.
func (h *PostHandler) EditForm(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.blog.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.view.Page(c, http.StatusOK, "make-post", &web.ViewData{
		Title:   "Edit Post",
		Post:    detail.Post,
		Editing: true,
		Form:    postFormFrom(detail.Post).values(),
	})
}

// Update handles POST /edit-post/:post_id. The editor becomes the author.
func (h *PostHandler) Update(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	var form postForm
	fieldErrs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	target := &domain.Post{ID: id}
	if fieldErrs != nil {
		if _, err := h.blog.GetPost(c.Request().Context(), id); err != nil {
			return err
		}
		return h.rejectPost(c, target, form, fieldErrs)
	}

	user := middleware.CurrentUser(c)
	if _, err := h.blog.EditPost(c.Request().Context(), id, user.ID, form.input()); err != nil {
		if errors.Is(err, domain.ErrTitleTaken) {
			return h.rejectPost(c, target, form, FieldErrors{"title": titleTakenMsg})
		}
		return err
	}
	metrics.PostWritesTotal.WithLabelValues("edit").Inc()
	return c.Redirect(http.StatusFound, postPath(id))
}

// Delete handles GET /delete/:post_id.
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	if err := h.blog.DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.PostWritesTotal.WithLabelValues("delete").Inc()
	return c.Redirect(http.StatusFound, "/")
}

// rejectPost re-renders the post form with errs. editing is nil for new posts.
func (h *PostHandler) rejectPost(c echo.Context, editing *domain.Post, form postForm, errs FieldErrors) error {
	metrics.FormRejectionsTotal.WithLabelValues("post").Inc()
	data := &web.ViewData{
		Title:  "New Post",
		Form:   form.values(),
		Errors: errs,
	}
	if editing != nil {
		data.Title = "Edit Post"
		data.Post = editing
		data.Editing = true
	}
	return h.view.Page(c, http.StatusUnprocessableEntity, "make-post", data)
}

func postPath(id int64) string {
	return fmt.Sprintf("/post/%d", id)
}
