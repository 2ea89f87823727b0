package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/blog/internal/core/domain"
	"github.com/99minutos/blog/internal/core/ports"
)

type BlogService struct {
	posts    ports.PostRepository
	comments ports.CommentRepository
	now      func() time.Time
	logger   zerolog.Logger
}

func NewBlogService(posts ports.PostRepository, comments ports.CommentRepository, logger zerolog.Logger) *BlogService {
	return &BlogService{posts: posts, comments: comments, now: time.Now, logger: logger}
}

// WithClock replaces the clock used to date new posts.
func (s *BlogService) WithClock(now func() time.Time) *BlogService {
	s.now = now
	return s
}

func (s *BlogService) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns the post and its comments, or domain.ErrPostNotFound.
func (s *BlogService) GetPost(ctx context.Context, id int64) (*ports.PostDetail, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &ports.PostDetail{Post: post, Comments: comments}, nil
}

func (s *BlogService) AddComment(ctx context.Context, postID, authorID int64, body string) (*domain.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}

	comment, err := s.comments.Create(ctx, &domain.Comment{
		Body:     body,
		AuthorID: authorID,
		PostID:   postID,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.logger.Info().Int64("post_id", postID).Int64("author_id", authorID).Int64("comment_id", comment.ID).Msg("comment created")
	return comment, nil
}

// CreatePost stamps today's date and the acting user as author.
func (s *BlogService) CreatePost(ctx context.Context, authorID int64, in ports.PostInput) (*domain.Post, error) {
	if err := s.checkTitle(ctx, in.Title, 0); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, &domain.Post{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Date:     domain.FormatPostDate(s.now()),
		Body:     in.Body,
		ImgURL:   in.ImgURL,
		AuthorID: authorID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTitleTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info().Int64("post_id", post.ID).Int64("author_id", authorID).Msg("post created")
	return post, nil
}

// EditPost overwrites the whole record except id and date.
func (s *BlogService) EditPost(ctx context.Context, id, authorID int64, in ports.PostInput) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTitle(ctx, in.Title, id); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.ImgURL = in.ImgURL
	post.Body = in.Body
	post.AuthorID = authorID

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, domain.ErrTitleTaken) || errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("edit post: %w", err)
	}

	s.logger.Info().Int64("post_id", id).Int64("author_id", authorID).Msg("post updated")
	return post, nil
}

func (s *BlogService) DeletePost(ctx context.Context, id int64) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.Info().Int64("post_id", id).Msg("post deleted")
	return nil
}

// checkTitle rejects a title held by any post other than selfID.
func (s *BlogService) checkTitle(ctx context.Context, title string, selfID int64) error {
	other, err := s.posts.FindByTitle(ctx, title)
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup title: %w", err)
	case other.ID != selfID:
		return domain.ErrTitleTaken
	}
	return nil
}
