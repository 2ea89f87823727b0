package ports

import (
	"context"

	"github.com/99minutos/blog/internal/core/domain"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// PostDetail is a post together with its comments.
type PostDetail struct {
	Post     *domain.Post
	Comments []*domain.Comment
}

// BlogService defines the use cases behind the blog pages.
type BlogService interface {
	ListPosts(ctx context.Context) ([]*domain.Post, error)
	GetPost(ctx context.Context, id int64) (*PostDetail, error)
	AddComment(ctx context.Context, postID, authorID int64, body string) (*domain.Comment, error)
	CreatePost(ctx context.Context, authorID int64, input PostInput) (*domain.Post, error)
	// EditPost overwrites every mutable field and reassigns the author.
	EditPost(ctx context.Context, id, authorID int64, input PostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id int64) error
}
