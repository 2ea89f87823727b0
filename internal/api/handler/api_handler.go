package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
)

// APIHandler exposes the posts as read-only JSON.
type APIHandler struct {
	blog ports.BlogService
}

func NewAPIHandler(blog ports.BlogService) *APIHandler {
	return &APIHandler{blog: blog}
}

type postSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Date     string `json:"date"`
	ImgURL   string `json:"img_url"`
	Author   string `json:"author"`
}

type commentResponse struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

type postResponse struct {
	postSummary
	Body     string            `json:"body"`
	Comments []commentResponse `json:"comments"`
}

type postListResponse struct {
	Items []postSummary `json:"items"`
	Total int           `json:"total"`
}

func toSummary(p *domain.Post) postSummary {
	return postSummary{
		ID:       p.ID,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Date:     p.Date,
		ImgURL:   p.ImgURL,
		Author:   p.AuthorName,
	}
}

// ListPosts returns every post without its body.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {object}  postListResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/posts [get]
func (h *APIHandler) ListPosts(c echo.Context) error {
	posts, err := h.blog.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}

	items := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		items = append(items, toSummary(p))
	}
	return c.JSON(http.StatusOK, postListResponse{Items: items, Total: len(items)})
}

// GetPost returns one post with its body and comments.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        post_id  path      int  true  "Post id"
// @Success      200      {object}  postResponse
// @Failure      404      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/posts/{post_id} [get]
func (h *APIHandler) GetPost(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.blog.GetPost(c.Request().Context(), id)
	if err != nil {
		return err
	}

	comments := make([]commentResponse, 0, len(detail.Comments))
	for _, cm := range detail.Comments {
		comments = append(comments, commentResponse{ID: cm.ID, Body: cm.Body, Author: cm.AuthorName})
	}
	return c.JSON(http.StatusOK, postResponse{
		postSummary: toSummary(detail.Post),
		Body:        detail.Post.Body,
		Comments:    comments,
	})
}
