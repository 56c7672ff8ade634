package httpserver

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soundwave/internal/errs"
	"soundwave/internal/model"
)

const (
	principalKey = "sw.principal"
	tokenUsedKey = "sw.tokenUsed"
)

// Logging returns a middleware for structured request logging.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recovery returns a middleware that recovers from handler panics.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			}
		}()
		c.Next()
	}
}

// AuthGate resolves the acting identity for every API request. Three paths:
//
//   - Basic with username and password: rate-limited password check
//     keyed by (username, client ip).
//   - Basic with empty password: the username slot carries an api-auth token.
//   - Bearer: an api-auth token.
//
// No credentials resolve to the anonymous principal. Presented-but-invalid
// credentials are rejected with one undifferentiated 401. Authenticated but
// unconfirmed accounts are rejected except on the auth/token endpoints.
func (s *Server) AuthGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, tokenUsed, err := s.resolveIdentity(c)
		if errors.Is(err, errs.ErrRateLimited) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limited", "message": "Too many attempts."})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Invalid credentials."})
			return
		}
		if u == nil {
			c.Set(principalKey, model.AnonymousUser{})
			c.Next()
			return
		}
		if !u.Confirmed && !isAuthRoute(c.FullPath()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Unconfirmed account."})
			return
		}
		s.users.Ping(c.Request.Context(), u)
		c.Set(principalKey, u)
		c.Set(tokenUsedKey, tokenUsed)
		c.Next()
	}
}

func (s *Server) resolveIdentity(c *gin.Context) (*model.User, bool, error) {
	if username, password, ok := c.Request.BasicAuth(); ok {
		if username == "" {
			return nil, false, nil
		}
		if password == "" {
			u, err := s.auth.AuthenticateToken(c.Request.Context(), username)
			return u, true, err
		}
		u, err := s.auth.LoginWithIP(c.Request.Context(), username, password, c.ClientIP())
		return u, false, err
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false, nil
	}
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return nil, false, nil
	}
	u, err := s.auth.AuthenticateToken(c.Request.Context(), tok)
	return u, true, err
}

// isAuthRoute reports whether the route may be used by unconfirmed accounts.
func isAuthRoute(fullPath string) bool {
	return strings.HasPrefix(fullPath, "/api/v1/auth/") || fullPath == "/api/v1/tokens"
}

// principal returns the acting principal, anonymous when unset.
func principal(c *gin.Context) model.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(model.Principal); ok {
			return p
		}
	}
	return model.AnonymousUser{}
}

// currentUser returns the authenticated user, if any.
func currentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

// requireUser aborts anonymous requests with 401.
func (s *Server) requireUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required."})
	}
}

// RequirePermission aborts with 403 unless the acting principal holds every
// requested permission bit. Combined-bit requests are supported.
func RequirePermission(bits int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).Can(bits) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Insufficient permissions."})
		}
	}
}
