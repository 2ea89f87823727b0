package sqldb

import (
	"context"
	"fmt"

	"github.com/99minutos/blog/internal/core/domain"
)

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByPost returns the comments of a post in insertion order with the
// commenter's name and email joined in.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(
		`SELECT c.id, c.body, c.author_id, c.post_id, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM comments c LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.id`), postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.Body, &c.AuthorID, &c.PostID, &c.AuthorName, &c.AuthorEmail); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	var id int64
	err := r.db.sql.QueryRowContext(ctx,
		r.db.rebind(`INSERT INTO comments (body, author_id, post_id) VALUES (?, ?, ?) RETURNING id`),
		comment.Body, comment.AuthorID, comment.PostID,
	).Scan(&id)
	if err != nil {
		// The author is the resolved caller, so a dangling reference can only
		// be a post deleted after the service's existence check.
		if isForeignKeyViolation(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	created := *comment
	created.ID = id
	return &created, nil
}
