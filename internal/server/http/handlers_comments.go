package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"soundwave/internal/model"
)

func commentView(cm *model.Comment) gin.H {
	return gin.H{
		"id":        cm.ID,
		"body":      cm.Body,
		"timestamp": cm.CreatedAt.UTC().Format(time.RFC3339),
		"disabled":  cm.Disabled,
		"author_id": cm.AuthorID,
		"song_id":   cm.SongID,
	}
}

func commentsPage(c *gin.Context, comments []model.Comment, page, perPage int, total int64) gin.H {
	views := make([]gin.H, 0, len(comments))
	for i := range comments {
		views = append(views, commentView(&comments[i]))
	}
	prev, next := pageLinks(c, page, perPage, total)
	return gin.H{"prev_url": prev, "comments": views, "next_url": next, "total": total}
}

func (s *Server) listSongComments(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	page := pageParam(c)
	comments, total, err := s.comments.ListBySong(c.Request.Context(), id, page, s.cfg.SongCommentsPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, commentsPage(c, comments, page, s.cfg.SongCommentsPerPage, total))
}

type addCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (s *Server) addComment(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	comment, err := s.comments.Add(c.Request.Context(), u, id, req.Body)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentView(comment))
}

// listComments is the moderation view over all comments, newest first.
func (s *Server) listComments(c *gin.Context) {
	page := pageParam(c)
	comments, total, err := s.comments.List(c.Request.Context(), page, s.cfg.CommentsPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, commentsPage(c, comments, page, s.cfg.CommentsPerPage, total))
}

func (s *Server) getComment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	comment, err := s.comments.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, commentView(comment))
}

func (s *Server) disableComment(c *gin.Context) {
	s.setCommentDisabled(c, true)
}

func (s *Server) enableComment(c *gin.Context) {
	s.setCommentDisabled(c, false)
}

func (s *Server) setCommentDisabled(c *gin.Context, disabled bool) {
	id, err := idParam(c, "id")
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if err := s.comments.SetDisabled(c.Request.Context(), id, disabled); err != nil {
		s.respondErr(c, err)
		return
	}
	comment, err := s.comments.Get(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, commentView(comment))
}
