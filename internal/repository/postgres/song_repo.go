package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

// SongRepo implements SongRepository using PostgreSQL. Mutations touching the
// song name run through RunTx so the search synchronizer sees them.
type SongRepo struct{ db *DB }

// NewSongRepo constructs a song repository.
func NewSongRepo(db *DB) *SongRepo { return &SongRepo{db: db} }

const songColumns = `
s.song_id, s.name, s.url, s.lyrics, s.created_at, s.author_id,
(SELECT count(*) FROM comments c WHERE c.song_id = s.song_id),
(SELECT count(*) FROM song_likes l WHERE l.song_id = s.song_id)`

func scanSong(row pgx.Row) (*model.Song, error) {
	var s model.Song
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Lyrics, &s.CreatedAt, &s.AuthorID,
		&s.CommentCount, &s.LikeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new song and stages it for indexing.
func (r *SongRepo) Create(ctx context.Context, s *model.Song) error {
	return r.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx, ch *Changes) error {
		const q = `
INSERT INTO songs (name, url, lyrics, author_id) VALUES ($1, $2, $3, $4)
RETURNING song_id, created_at`
		if err := tx.QueryRow(ctx, q, s.Name, s.URL, s.Lyrics, s.AuthorID).Scan(&s.ID, &s.CreatedAt); err != nil {
			return err
		}
		ch.Created(s)
		return nil
	})
}

// GetByID selects a song with derived comment and like counts.
func (r *SongRepo) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	const q = `SELECT ` + songColumns + ` FROM songs s WHERE s.song_id=$1`
	return scanSong(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByIDs selects songs for the given ids and returns them in the exact
// order of the ids slice (the index's ranking must survive hydration).
func (r *SongRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + songColumns + ` FROM songs s WHERE s.song_id = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]model.Song, len(ids))
	for rows.Next() {
		var s model.Song
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Lyrics, &s.CreatedAt, &s.AuthorID,
			&s.CommentCount, &s.LikeCount); err != nil {
			return nil, err
		}
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	songs := make([]model.Song, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			songs = append(songs, s)
		}
	}
	return songs, nil
}

// Update persists name and lyrics and stages the song for re-indexing.
func (r *SongRepo) Update(ctx context.Context, s *model.Song) error {
	return r.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx, ch *Changes) error {
		const q = `UPDATE songs SET name=$2, lyrics=$3 WHERE song_id=$1`
		tag, err := tx.Exec(ctx, q, s.ID, s.Name, s.Lyrics)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		ch.Updated(s)
		return nil
	})
}

// SetURL caches the lazily resolved playback URL.
func (r *SongRepo) SetURL(ctx context.Context, id int64, url string) error {
	const q = `UPDATE songs SET url=$2 WHERE song_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a song (comments and likes cascade) and stages the index deletion.
func (r *SongRepo) Delete(ctx context.Context, id int64) error {
	return r.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx, ch *Changes) error {
		const sel = `SELECT song_id, name, author_id FROM songs WHERE song_id=$1`
		var s model.Song
		if err := tx.QueryRow(ctx, sel, id).Scan(&s.ID, &s.Name, &s.AuthorID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		const del = `DELETE FROM songs WHERE song_id=$1`
		if _, err := tx.Exec(ctx, del, id); err != nil {
			return err
		}
		ch.Deleted(&s)
		return nil
	})
}

// List returns a page of songs, newest first.
func (r *SongRepo) List(ctx context.Context, limit, offset int) ([]model.Song, int64, error) {
	const q = `
SELECT ` + songColumns + `, count(*) OVER ()
FROM songs s
ORDER BY s.created_at DESC, s.song_id DESC
LIMIT $1 OFFSET $2`
	return r.querySongsPage(ctx, q, limit, offset)
}

// ListByAuthor returns a page of one author's songs, newest first.
func (r *SongRepo) ListByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]model.Song, int64, error) {
	const q = `
SELECT ` + songColumns + `, count(*) OVER ()
FROM songs s
WHERE s.author_id=$1
ORDER BY s.created_at DESC, s.song_id DESC
LIMIT $2 OFFSET $3`
	return r.querySongsPage(ctx, q, authorID, limit, offset)
}

// ListFollowed returns songs whose author the user follows, joined through
// the follow-edge set. Self-follow makes one's own songs appear here.
func (r *SongRepo) ListFollowed(ctx context.Context, followerID int64, limit, offset int) ([]model.Song, int64, error) {
	const q = `
SELECT ` + songColumns + `, count(*) OVER ()
FROM songs s
JOIN follows f ON f.followed_id = s.author_id
WHERE f.follower_id=$1
ORDER BY s.created_at DESC, s.song_id DESC
LIMIT $2 OFFSET $3`
	return r.querySongsPage(ctx, q, followerID, limit, offset)
}

// All returns every persisted song, for full index rebuilds.
func (r *SongRepo) All(ctx context.Context) ([]model.Song, error) {
	const q = `
SELECT s.song_id, s.name, s.url, s.lyrics, s.created_at, s.author_id, 0, 0
FROM songs s ORDER BY s.song_id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []model.Song
	for rows.Next() {
		var s model.Song
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Lyrics, &s.CreatedAt, &s.AuthorID,
			&s.CommentCount, &s.LikeCount); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// Like records a like; duplicate likes are swallowed by the composite key.
func (r *SongRepo) Like(ctx context.Context, songID, userID int64) error {
	const q = `
INSERT INTO song_likes (song_id, user_id) VALUES ($1, $2)
ON CONFLICT (song_id, user_id) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, songID, userID)
	return err
}

// Unlike removes a like; unliking a non-liked song is a no-op.
func (r *SongRepo) Unlike(ctx context.Context, songID, userID int64) error {
	const q = `DELETE FROM song_likes WHERE song_id=$1 AND user_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, songID, userID)
	return err
}

// IsLikedBy checks like existence via the composite primary key.
func (r *SongRepo) IsLikedBy(ctx context.Context, songID, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM song_likes WHERE song_id=$1 AND user_id=$2)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, songID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *SongRepo) querySongsPage(ctx context.Context, q string, args ...any) ([]model.Song, int64, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var songs []model.Song
	var total int64
	for rows.Next() {
		var s model.Song
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Lyrics, &s.CreatedAt, &s.AuthorID,
			&s.CommentCount, &s.LikeCount, &total); err != nil {
			return nil, 0, err
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}
