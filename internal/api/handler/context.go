package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/blog/internal/core/domain"
)

// postIDParam parses :post_id. Anything that is not a positive integer
// is reported as a missing post.
func postIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrPostNotFound
	}
	return id, nil
}
