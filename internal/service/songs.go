package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"soundwave/internal/errs"
	"soundwave/internal/model"
	"soundwave/internal/repository"
	"soundwave/internal/search"
	"soundwave/internal/storage"
	"soundwave/internal/tasks"
)

// SongService defines publishing, feeds, likes and search over songs.
type SongService interface {
	// Publish creates a new song owned by the author.
	Publish(ctx context.Context, author *model.User, name, lyrics string) (*model.Song, error)
	// Get loads a song and lazily resolves its playback URL.
	Get(ctx context.Context, id int64) (*model.Song, error)
	// Update replaces name and/or lyrics; empty values keep the current ones.
	Update(ctx context.Context, s *model.Song, name, lyrics string) error
	// Delete removes the song and schedules blob removal.
	Delete(ctx context.Context, id int64) error
	// List returns a page over all songs, newest first.
	List(ctx context.Context, page, perPage int) ([]model.Song, int64, error)
	// ListByAuthor returns a page of one author's songs.
	ListByAuthor(ctx context.Context, authorID int64, page, perPage int) ([]model.Song, int64, error)
	// Feed returns songs by authors the user follows (self included).
	Feed(ctx context.Context, u *model.User, page, perPage int) ([]model.Song, int64, error)
	// Like records a like. Idempotent.
	Like(ctx context.Context, songID int64, u *model.User) error
	// Unlike removes a like. Idempotent.
	Unlike(ctx context.Context, songID int64, u *model.User) error
	// IsLikedBy reports whether the user liked the song.
	IsLikedBy(ctx context.Context, songID int64, u *model.User) (bool, error)
	// Search returns ranked songs for a text query.
	Search(ctx context.Context, query string, page, perPage int) ([]model.Song, int64, error)
	// Reindex rebuilds the song index from the primary store.
	Reindex(ctx context.Context) error
	// AttachAudio uploads the song's audio file in the background.
	AttachAudio(song *model.Song, localPath, contentType string)
}

// SongServiceImpl implements SongService.
type SongServiceImpl struct {
	songs repository.SongRepository
	sync  *search.Synchronizer
	blobs storage.Storage
	pool  *tasks.Pool
	log   *zap.Logger
}

// NewSongService constructs SongService.
func NewSongService(songs repository.SongRepository, sync *search.Synchronizer,
	blobs storage.Storage, pool *tasks.Pool, log *zap.Logger) *SongServiceImpl {
	return &SongServiceImpl{songs: songs, sync: sync, blobs: blobs, pool: pool, log: log}
}

// Publish validates and creates a song. The repository stages it for the
// search index as part of the insert transaction.
func (s *SongServiceImpl) Publish(ctx context.Context, author *model.User, name, lyrics string) (*model.Song, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: song name is required", errs.ErrValidation)
	}
	song := &model.Song{Name: name, Lyrics: lyrics, AuthorID: author.ID}
	if err := s.songs.Create(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// Get loads a song and resolves the playback URL on first access. A failed
// lookup leaves the URL empty and is retried on a later access.
func (s *SongServiceImpl) Get(ctx context.Context, id int64) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveURL(ctx, song)
	return song, nil
}

func (s *SongServiceImpl) resolveURL(ctx context.Context, song *model.Song) {
	if song.URL != "" {
		return
	}
	url, err := s.blobs.PublicURL(ctx, blobKey(song.ID))
	if err != nil {
		// not yet uploaded or storage unavailable; retried next time
		return
	}
	song.URL = url
	if err := s.songs.SetURL(ctx, song.ID, url); err != nil {
		s.log.Warn("cache song url failed", zap.Int64("song_id", song.ID), zap.Error(err))
	}
}

// Update replaces name and lyrics; empty inputs keep the stored values.
func (s *SongServiceImpl) Update(ctx context.Context, song *model.Song, name, lyrics string) error {
	if name != "" {
		song.Name = name
	}
	if lyrics != "" {
		song.Lyrics = lyrics
	}
	return s.songs.Update(ctx, song)
}

// Delete removes the song and schedules blob removal in the background.
func (s *SongServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.songs.Delete(ctx, id); err != nil {
		return err
	}
	s.pool.Submit(func(ctx context.Context) {
		if err := s.blobs.Delete(ctx, blobKey(id)); err != nil {
			s.log.Warn("delete blob failed", zap.Int64("song_id", id), zap.Error(err))
		}
	})
	return nil
}

// List returns a page over all songs.
func (s *SongServiceImpl) List(ctx context.Context, page, perPage int) ([]model.Song, int64, error) {
	return s.songs.List(ctx, perPage, pageOffset(page, perPage))
}

// ListByAuthor returns a page of one author's songs.
func (s *SongServiceImpl) ListByAuthor(ctx context.Context, authorID int64, page, perPage int) ([]model.Song, int64, error) {
	return s.songs.ListByAuthor(ctx, authorID, perPage, pageOffset(page, perPage))
}

// Feed returns songs from followed authors; self-follow includes own songs.
func (s *SongServiceImpl) Feed(ctx context.Context, u *model.User, page, perPage int) ([]model.Song, int64, error) {
	return s.songs.ListFollowed(ctx, u.ID, perPage, pageOffset(page, perPage))
}

// Like records a like after checking the song exists.
func (s *SongServiceImpl) Like(ctx context.Context, songID int64, u *model.User) error {
	if _, err := s.songs.GetByID(ctx, songID); err != nil {
		return err
	}
	return s.songs.Like(ctx, songID, u.ID)
}

// Unlike removes a like after checking the song exists.
func (s *SongServiceImpl) Unlike(ctx context.Context, songID int64, u *model.User) error {
	if _, err := s.songs.GetByID(ctx, songID); err != nil {
		return err
	}
	return s.songs.Unlike(ctx, songID, u.ID)
}

// IsLikedBy reports whether the user liked the song.
func (s *SongServiceImpl) IsLikedBy(ctx context.Context, songID int64, u *model.User) (bool, error) {
	return s.songs.IsLikedBy(ctx, songID, u.ID)
}

// Search asks the index for ranked ids and hydrates them from the primary
// store preserving the index ordering. Zero matches yield an empty page.
func (s *SongServiceImpl) Search(ctx context.Context, query string, page, perPage int) ([]model.Song, int64, error) {
	ids, total := s.sync.Query(ctx, (&model.Song{}).TableName(), query, pageOffset(page, perPage), perPage)
	if total == 0 {
		return nil, 0, nil
	}
	songs, err := s.songs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}

// Reindex re-upserts every persisted song into the index.
func (s *SongServiceImpl) Reindex(ctx context.Context) error {
	songs, err := s.songs.All(ctx)
	if err != nil {
		return err
	}
	entities := make([]model.Searchable, len(songs))
	for i := range songs {
		entities[i] = &songs[i]
	}
	return s.sync.Reindex(ctx, entities)
}

// AttachAudio schedules the background upload of the song's audio file.
func (s *SongServiceImpl) AttachAudio(song *model.Song, localPath, contentType string) {
	id := song.ID
	s.pool.Submit(func(ctx context.Context) {
		if err := s.blobs.Upload(ctx, localPath, blobKey(id), contentType); err != nil {
			s.log.Warn("upload blob failed", zap.Int64("song_id", id), zap.Error(err))
		}
	})
}

// blobKey is the storage key of a song's audio file.
func blobKey(songID int64) string { return strconv.FormatInt(songID, 10) }
