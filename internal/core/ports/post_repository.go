package ports

import (
	"context"

	"github.com/99minutos/blog/internal/core/domain"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// List returns every post, oldest first, with AuthorName populated.
	List(ctx context.Context) ([]*domain.Post, error)
	FindByID(ctx context.Context, id int64) (*domain.Post, error)
	FindByTitle(ctx context.Context, title string) (*domain.Post, error)
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	// Update overwrites title, subtitle, body, img_url and author_id.
	Update(ctx context.Context, post *domain.Post) error
	// Delete removes the post and, through the schema, its comments.
	Delete(ctx context.Context, id int64) error
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
}
