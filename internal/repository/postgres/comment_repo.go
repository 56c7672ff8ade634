package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

// CommentRepo implements CommentRepository using PostgreSQL.
type CommentRepo struct{ db *DB }

// NewCommentRepo constructs a comment repository.
func NewCommentRepo(db *DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts a new comment row.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `
INSERT INTO comments (body, disabled, author_id, song_id) VALUES ($1, $2, $3, $4)
RETURNING comment_id, created_at`
	return r.db.Pool.QueryRow(ctx, q, c.Body, c.Disabled, c.AuthorID, c.SongID).
		Scan(&c.ID, &c.CreatedAt)
}

// GetByID selects a comment by ID.
func (r *CommentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	const q = `
SELECT comment_id, body, created_at, disabled, author_id, song_id
FROM comments WHERE comment_id=$1`
	var c model.Comment
	err := r.db.Pool.QueryRow(ctx, q, id).
		Scan(&c.ID, &c.Body, &c.CreatedAt, &c.Disabled, &c.AuthorID, &c.SongID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetDisabled toggles the moderation soft-delete flag.
func (r *CommentRepo) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	const q = `UPDATE comments SET disabled=$2 WHERE comment_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, disabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListBySong returns a page of one song's comments, newest first.
func (r *CommentRepo) ListBySong(ctx context.Context, songID int64, limit, offset int) ([]model.Comment, int64, error) {
	const q = `
SELECT comment_id, body, created_at, disabled, author_id, song_id, count(*) OVER ()
FROM comments
WHERE song_id=$1
ORDER BY created_at DESC, comment_id DESC
LIMIT $2 OFFSET $3`
	return r.queryCommentsPage(ctx, q, songID, limit, offset)
}

// List returns a page over all comments, newest first.
func (r *CommentRepo) List(ctx context.Context, limit, offset int) ([]model.Comment, int64, error) {
	const q = `
SELECT comment_id, body, created_at, disabled, author_id, song_id, count(*) OVER ()
FROM comments
ORDER BY created_at DESC, comment_id DESC
LIMIT $1 OFFSET $2`
	return r.queryCommentsPage(ctx, q, limit, offset)
}

func (r *CommentRepo) queryCommentsPage(ctx context.Context, q string, args ...any) ([]model.Comment, int64, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []model.Comment
	var total int64
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Body, &c.CreatedAt, &c.Disabled, &c.AuthorID, &c.SongID, &total); err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
