package service

import (
	"context"
	"fmt"
	"strings"

	"soundwave/internal/errs"
	"soundwave/internal/model"
	"soundwave/internal/repository"
)

// CommentService defines commenting and moderation operations.
type CommentService interface {
	// Add validates and creates a comment on a song.
	Add(ctx context.Context, author *model.User, songID int64, body string) (*model.Comment, error)
	// Get loads a comment by ID.
	Get(ctx context.Context, id int64) (*model.Comment, error)
	// ListBySong returns a page of one song's comments.
	ListBySong(ctx context.Context, songID int64, page, perPage int) ([]model.Comment, int64, error)
	// List returns a page over all comments (moderation view).
	List(ctx context.Context, page, perPage int) ([]model.Comment, int64, error)
	// SetDisabled toggles the moderation soft-delete flag.
	SetDisabled(ctx context.Context, id int64, disabled bool) error
}

// CommentServiceImpl implements CommentService.
type CommentServiceImpl struct {
	comments repository.CommentRepository
	songs    repository.SongRepository
}

// NewCommentService constructs CommentService.
func NewCommentService(comments repository.CommentRepository, songs repository.SongRepository) *CommentServiceImpl {
	return &CommentServiceImpl{comments: comments, songs: songs}
}

// Add rejects empty bodies and comments on missing songs, then persists.
func (s *CommentServiceImpl) Add(ctx context.Context, author *model.User, songID int64, body string) (*model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: comment body is required", errs.ErrValidation)
	}
	if _, err := s.songs.GetByID(ctx, songID); err != nil {
		return nil, err
	}
	c := &model.Comment{Body: body, AuthorID: author.ID, SongID: songID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get loads a comment by ID.
func (s *CommentServiceImpl) Get(ctx context.Context, id int64) (*model.Comment, error) {
	return s.comments.GetByID(ctx, id)
}

// ListBySong returns a page of one song's comments.
func (s *CommentServiceImpl) ListBySong(ctx context.Context, songID int64, page, perPage int) ([]model.Comment, int64, error) {
	if _, err := s.songs.GetByID(ctx, songID); err != nil {
		return nil, 0, err
	}
	return s.comments.ListBySong(ctx, songID, perPage, pageOffset(page, perPage))
}

// List returns a page over all comments.
func (s *CommentServiceImpl) List(ctx context.Context, page, perPage int) ([]model.Comment, int64, error) {
	return s.comments.List(ctx, perPage, pageOffset(page, perPage))
}

// SetDisabled toggles the moderation flag.
func (s *CommentServiceImpl) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	return s.comments.SetDisabled(ctx, id, disabled)
}
