package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid registration payload."})
		return
	}
	u, err := s.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, userView(u))
}

// issueToken mints an api-auth token. Chaining tokens is not allowed: the
// request must be password-authenticated.
func (s *Server) issueToken(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok || c.GetBool(tokenUsedKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Invalid credentials."})
		return
	}
	tok, exp, err := s.auth.IssueAPIToken(u)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "expiration": exp.Unix()})
}

func (s *Server) confirm(c *gin.Context) {
	u, _ := currentUser(c)
	if err := s.auth.Confirm(c.Request.Context(), u, c.Param("token")); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmed": true})
}

func (s *Server) resendConfirmation(c *gin.Context) {
	u, _ := currentUser(c)
	if u.Confirmed {
		c.JSON(http.StatusOK, gin.H{"confirmed": true})
		return
	}
	s.auth.ResendConfirmation(u)
	c.JSON(http.StatusAccepted, gin.H{"message": "Confirmation email sent."})
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) requestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	if err := s.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If the address is registered, a reset email has been sent."})
}

type performResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var req performResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	if err := s.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password replaced."})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

func (s *Server) changePassword(c *gin.Context) {
	u, _ := currentUser(c)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	if err := s.auth.ChangePassword(c.Request.Context(), u, req.OldPassword, req.NewPassword); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password replaced."})
}

type changeEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) requestEmailChange(c *gin.Context) {
	u, _ := currentUser(c)
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": "Invalid payload."})
		return
	}
	if err := s.auth.RequestEmailChange(c.Request.Context(), u, req.NewEmail, req.Password); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Confirmation email sent to the new address."})
}

func (s *Server) changeEmail(c *gin.Context) {
	u, _ := currentUser(c)
	if err := s.auth.ChangeEmail(c.Request.Context(), u, c.Param("token")); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": u.Email})
}
