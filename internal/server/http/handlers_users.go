package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"soundwave/internal/errs"
	"soundwave/internal/model"
	"soundwave/internal/service"
)

func userView(u *model.User) gin.H {
	return gin.H{
		"username":     u.Username,
		"member_since": u.MemberSince.UTC().Format(time.RFC3339),
		"last_seen":    u.LastSeen.UTC().Format(time.RFC3339),
		"real_name":    u.Name,
		"location":     u.Location,
		"about_me":     u.AboutMe,
	}
}

func usersPage(c *gin.Context, users []model.User, page, perPage int, total int64) gin.H {
	views := make([]gin.H, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i]))
	}
	prev, next := pageLinks(c, page, perPage, total)
	return gin.H{"prev_url": prev, "users": views, "next_url": next, "total": total}
}

func (s *Server) listUsers(c *gin.Context) {
	page := pageParam(c)
	users, total, err := s.users.List(c.Request.Context(), page, s.cfg.UsersPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, usersPage(c, users, page, s.cfg.UsersPerPage, total))
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(u))
}

type updateUserRequest struct {
	Name      *string `json:"name"`
	Location  *string `json:"location"`
	AboutMe   *string `json:"about_me"`
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Confirmed *bool   `json:"confirmed"`
	RoleID    *int64  `json:"role_id"`
}

// updateUser lets a user edit their own profile; administrators may edit any
// account including username, email, confirmed flag and role.
func (s *Server) updateUser(c *gin.Context) {
	actor, _ := currentUser(c)
	target, err := s.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if actor.ID != target.ID && !actor.IsAdministrator() {
		s.respondErr(c, errs.ErrForbidden)
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	profile := service.ProfileUpdate{Name: req.Name, Location: req.Location, AboutMe: req.AboutMe}
	if actor.IsAdministrator() {
		err = s.users.UpdateProfileAdmin(c.Request.Context(), target, service.AdminProfileUpdate{
			ProfileUpdate: profile,
			Username:      req.Username,
			Email:         req.Email,
			Confirmed:     req.Confirmed,
			RoleID:        req.RoleID,
		})
	} else {
		err = s.users.UpdateProfile(c.Request.Context(), target, profile)
	}
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(target))
}

func (s *Server) listUserSongs(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	page := pageParam(c)
	songs, total, err := s.songs.ListByAuthor(c.Request.Context(), u.ID, page, s.cfg.SongsPerUserPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, songsPage(c, songs, page, s.cfg.SongsPerUserPage, total))
}

func (s *Server) listFollowers(c *gin.Context) {
	page := pageParam(c)
	users, total, err := s.users.Followers(c.Request.Context(), c.Param("username"), page, s.cfg.FollowsPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, usersPage(c, users, page, s.cfg.FollowsPerPage, total))
}

func (s *Server) listFollowed(c *gin.Context) {
	page := pageParam(c)
	users, total, err := s.users.Followed(c.Request.Context(), c.Param("username"), page, s.cfg.FollowsPerPage)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, usersPage(c, users, page, s.cfg.FollowsPerPage, total))
}

// deleteUser removes an account. Users may delete themselves; administrators
// may delete anyone. Owned songs, comments, likes and follow edges go with it.
func (s *Server) deleteUser(c *gin.Context) {
	actor, _ := currentUser(c)
	target, err := s.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if actor.ID != target.ID && !actor.IsAdministrator() {
		s.respondErr(c, errs.ErrForbidden)
		return
	}
	if err := s.users.Delete(c.Request.Context(), target.ID); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": target.Username})
}

func (s *Server) follow(c *gin.Context) {
	u, _ := currentUser(c)
	if err := s.users.Follow(c.Request.Context(), u, c.Param("username")); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": c.Param("username")})
}

func (s *Server) unfollow(c *gin.Context) {
	u, _ := currentUser(c)
	if err := s.users.Unfollow(c.Request.Context(), u, c.Param("username")); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": nil})
}
