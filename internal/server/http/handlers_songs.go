package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

func songView(s *model.Song) gin.H {
	return gin.H{
		"id":             s.ID,
		"name":           s.Name,
		"html_url":       s.URL,
		"lyrics":         s.Lyrics,
		"timestamp":      s.CreatedAt.UTC().Format(time.RFC3339),
		"author_id":      s.AuthorID,
		"comments_count": s.CommentCount,
		"likes_count":    s.LikeCount,
	}
}

func songsPage(c *gin.Context, songs []model.Song, page, perPage int, total int64) gin.H {
	views := make([]gin.H, 0, len(songs))
	for i := range songs {
		views = append(views, songView(&songs[i]))
	}
	prev, next := pageLinks(c, page, perPage, total)
	return gin.H{"prev_url": prev, "songs": views, "next_url": next, "total": total}
}

// listSongs serves the public catalog; ?followed=1 narrows it to the
// authenticated user's followed-authors feed (own songs included).
func (s *Server) listSongs(c *gin.Context) {
	page := pageParam(c)
	if c.Query("followed") != "" {
		u, ok := currentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required."})
			return
		}
		songs, total, err := s.songs.Feed(c.Request.Context(), u, page, s.cfg.SongsPerPage)
		if err != nil {
			s.respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, songsPage(c, songs, page, s.cfg.SongsPerPage, total))
		return
	}
	songs, total, err := s.songs.List(c.Request.Context(), page, s.cfg.SongsPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, songsPage(c, songs, page, s.cfg.SongsPerPage, total))
}

type publishSongRequest struct {
	Name   string `json:"name" binding:"required,max=64"`
	Lyrics string `json:"lyrics"`
}

func (s *Server) publishSong(c *gin.Context) {
	u, _ := currentUser(c)
	var req publishSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	song, err := s.songs.Publish(c.Request.Context(), u, req.Name, req.Lyrics)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, songView(song))
}

func (s *Server) getSong(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	song, err := s.songs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, songView(song))
}

type updateSongRequest struct {
	Name   string `json:"name"`
	Lyrics string `json:"lyrics"`
}

func (s *Server) updateSong(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	song, err := s.songs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if song.AuthorID != u.ID && !u.IsAdministrator() {
		s.respondErr(c, errs.ErrForbidden)
		return
	}
	var req updateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	if err := s.songs.Update(c.Request.Context(), song, req.Name, req.Lyrics); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, songView(song))
}

func (s *Server) deleteSong(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	song, err := s.songs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if song.AuthorID != u.ID && !u.IsAdministrator() {
		s.respondErr(c, errs.ErrForbidden)
		return
	}
	if err := s.songs.Delete(c.Request.Context(), id); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// uploadAudio accepts a multipart audio file and schedules its upload to
// blob storage. The request does not wait for the upload to finish.
func (s *Server) uploadAudio(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	song, err := s.songs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if song.AuthorID != u.ID && !u.IsAdministrator() {
		s.respondErr(c, errs.ErrForbidden)
		return
	}
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Audio file is required."})
		return
	}
	tmp := filepath.Join(os.TempDir(), filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		s.respondErr(c, err)
		return
	}
	s.songs.AttachAudio(song, tmp, "audio/mpeg")
	c.JSON(http.StatusAccepted, gin.H{"message": "Upload scheduled."})
}

func (s *Server) likeSong(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if err := s.songs.Like(c.Request.Context(), id, u); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true})
}

func (s *Server) unlikeSong(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if err := s.songs.Unlike(c.Request.Context(), id, u); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false})
}

func (s *Server) searchSongs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Query parameter q is required."})
		return
	}
	page := pageParam(c)
	songs, total, err := s.songs.Search(c.Request.Context(), query, page, s.cfg.SearchPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, songsPage(c, songs, page, s.cfg.SearchPerPage, total))
}

func (s *Server) reindex(c *gin.Context) {
	if err := s.songs.Reindex(c.Request.Context()); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reindex complete."})
}
