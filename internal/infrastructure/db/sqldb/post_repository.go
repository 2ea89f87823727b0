package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/99minutos/blog/internal/core/domain"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

const postSelect = `SELECT p.id, p.title, p.subtitle, p.date, p.body, p.img_url, p.author_id, COALESCE(u.name, '')
	FROM posts p LEFT JOIN users u ON u.id = p.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Date, &p.Body, &p.ImgURL, &p.AuthorID, &p.AuthorName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	rows, err := r.db.sql.QueryContext(ctx, postSelect+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, error) {
	return r.findOne(ctx, postSelect+` WHERE p.id = ?`, id)
}

func (r *PostRepository) FindByTitle(ctx context.Context, title string) (*domain.Post, error) {
	return r.findOne(ctx, postSelect+` WHERE p.title = ?`, title)
}

func (r *PostRepository) findOne(ctx context.Context, query string, arg any) (*domain.Post, error) {
	p, err := scanPost(r.db.sql.QueryRowContext(ctx, r.db.rebind(query), arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	var id int64
	err := r.db.sql.QueryRowContext(ctx,
		r.db.rebind(`INSERT INTO posts (author_id, title, subtitle, date, body, img_url) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		post.AuthorID, post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL,
	).Scan(&id)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, domain.ErrTitleTaken
		case isForeignKeyViolation(err):
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	res, err := r.db.sql.ExecContext(ctx,
		r.db.rebind(`UPDATE posts SET title = ?, subtitle = ?, body = ?, img_url = ?, author_id = ? WHERE id = ?`),
		post.Title, post.Subtitle, post.Body, post.ImgURL, post.AuthorID, post.ID,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrTitleTaken
		case isForeignKeyViolation(err):
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return expectOne(res, "update post")
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, r.db.rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectOne(res, "delete post")
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}
