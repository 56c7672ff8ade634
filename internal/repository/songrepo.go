package repository

import (
	"context"

	"soundwave/internal/model"
)

// SongRepository provides access to songs and their like edges.
type SongRepository interface {
	// Create inserts a new song and assigns its ID.
	Create(ctx context.Context, s *model.Song) error
	// GetByID loads a song with derived comment/like counters.
	GetByID(ctx context.Context, id int64) (*model.Song, error)
	// GetByIDs loads songs for the given ids, preserving the slice order.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Song, error)
	// Update persists name and lyrics.
	Update(ctx context.Context, s *model.Song) error
	// SetURL caches the resolved playback URL.
	SetURL(ctx context.Context, id int64, url string) error
	// Delete removes a song; comments and likes cascade.
	Delete(ctx context.Context, id int64) error
	// List returns a page of songs, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]model.Song, int64, error)
	// ListByAuthor returns a page of one author's songs, newest first.
	ListByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]model.Song, int64, error)
	// ListFollowed returns a page of songs whose authors the user follows.
	// The self-follow edge makes it include the user's own songs.
	ListFollowed(ctx context.Context, followerID int64, limit, offset int) ([]model.Song, int64, error)
	// All returns every persisted song (for full reindex).
	All(ctx context.Context) ([]model.Song, error)

	// Like records a like; no-op if already liked.
	Like(ctx context.Context, songID, userID int64) error
	// Unlike removes a like; no-op if not liked.
	Unlike(ctx context.Context, songID, userID int64) error
	// IsLikedBy reports like existence via the composite primary key.
	IsLikedBy(ctx context.Context, songID, userID int64) (bool, error)
}

// CommentRepository provides access to comments.
type CommentRepository interface {
	// Create inserts a new comment and assigns its ID.
	Create(ctx context.Context, c *model.Comment) error
	// GetByID loads a comment by ID.
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	// SetDisabled toggles the moderation soft-delete flag.
	SetDisabled(ctx context.Context, id int64, disabled bool) error
	// ListBySong returns a page of one song's comments, newest first.
	ListBySong(ctx context.Context, songID int64, limit, offset int) ([]model.Comment, int64, error)
	// List returns a page over all comments, newest first (moderation view).
	List(ctx context.Context, limit, offset int) ([]model.Comment, int64, error)
}
