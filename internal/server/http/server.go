// Package httpserver exposes the JSON API over gin.
package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"soundwave/internal/model"
	"soundwave/internal/service"
)

// Config carries the per-page sizes of the paginated endpoints.
type Config struct {
	SongsPerPage        int
	SongsPerUserPage    int
	SongCommentsPerPage int
	CommentsPerPage     int // moderation view
	FollowsPerPage      int
	UsersPerPage        int
	SearchPerPage       int
}

// DefaultConfig returns the stock page sizes.
func DefaultConfig() Config {
	return Config{
		SongsPerPage:        9,
		SongsPerUserPage:    3,
		SongCommentsPerPage: 5,
		CommentsPerPage:     10,
		FollowsPerPage:      10,
		UsersPerPage:        10,
		SearchPerPage:       6,
	}
}

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	users    service.UserService
	songs    service.SongService
	comments service.CommentService
	cfg      Config
	log      *zap.Logger
}

// New constructs a Server with injected services.
func New(auth service.AuthService, users service.UserService, songs service.SongService,
	comments service.CommentService, cfg Config, log *zap.Logger) *Server {
	return &Server{auth: auth, users: users, songs: songs, comments: comments, cfg: cfg, log: log}
}

// Router builds the gin engine with middleware and all API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(s.log), Logging(s.log), Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", s.AuthGate())

	api.POST("/tokens", s.issueToken)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/confirm/:token", s.requireUser, s.confirm)
		authGroup.POST("/confirm", s.requireUser, s.resendConfirmation)
		authGroup.POST("/password-reset", s.requestPasswordReset)
		authGroup.PUT("/password-reset", s.resetPassword)
		authGroup.PUT("/password", s.requireUser, s.changePassword)
		authGroup.POST("/change-email", s.requireUser, s.requestEmailChange)
		authGroup.PUT("/change-email/:token", s.requireUser, s.changeEmail)
	}

	api.GET("/users", s.listUsers)
	api.GET("/users/:username", s.getUser)
	api.PUT("/users/:username", s.requireUser, s.updateUser)
	api.DELETE("/users/:username", s.requireUser, s.deleteUser)
	api.GET("/users/:username/songs", s.listUserSongs)
	api.GET("/users/:username/followers", s.listFollowers)
	api.GET("/users/:username/followed", s.listFollowed)
	api.POST("/users/:username/follow", s.requireUser, RequirePermission(model.PermFollow), s.follow)
	api.DELETE("/users/:username/follow", s.requireUser, RequirePermission(model.PermFollow), s.unfollow)

	api.GET("/songs", s.listSongs)
	api.POST("/songs", s.requireUser, RequirePermission(model.PermPublish), s.publishSong)
	api.GET("/songs/:id", s.getSong)
	api.PUT("/songs/:id", s.requireUser, RequirePermission(model.PermPublish), s.updateSong)
	api.DELETE("/songs/:id", s.requireUser, RequirePermission(model.PermPublish), s.deleteSong)
	api.POST("/songs/:id/audio", s.requireUser, RequirePermission(model.PermPublish), s.uploadAudio)
	api.POST("/songs/:id/like", s.requireUser, s.likeSong)
	api.DELETE("/songs/:id/like", s.requireUser, s.unlikeSong)
	api.GET("/songs/:id/comments", s.listSongComments)
	api.POST("/songs/:id/comments", s.requireUser, RequirePermission(model.PermComment), s.addComment)

	api.GET("/comments", s.listComments)
	api.GET("/comments/:id", s.getComment)
	api.PUT("/comments/:id/disable", s.requireUser, RequirePermission(model.PermModerate), s.disableComment)
	api.PUT("/comments/:id/enable", s.requireUser, RequirePermission(model.PermModerate), s.enableComment)

	api.GET("/search", s.searchSongs)

	api.POST("/admin/reindex", s.requireUser, RequirePermission(model.PermAdmin), s.reindex)

	return r
}
