package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soundwave/internal/errs"
)

// respondErr maps sentinel errors to the API error taxonomy. Authorization
// (403) and authentication (401) failures stay distinct; token failures all
// arrive here as errs.ErrUnauthorized and remain undifferentiated.
func (s *Server) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "message": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Invalid credentials."})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "message": "Resource not found."})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case errors.Is(err, errs.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited", "message": "Too many attempts."})
	default:
		s.log.Error("internal error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "Internal server error."})
	}
}

// pageParam reads the 1-based page number from the query string.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam reads a positive int64 path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errs.ErrValidation, name)
	}
	return id, nil
}

// pageLinks computes prev/next URLs for a paginated response.
func pageLinks(c *gin.Context, page, perPage int, total int64) (prev, next string) {
	base := c.Request.URL.Path
	q := c.Request.URL.Query()
	link := func(p int) string {
		q.Set("page", strconv.Itoa(p))
		return base + "?" + q.Encode()
	}
	if page > 1 {
		prev = link(page - 1)
	}
	if int64(page*perPage) < total {
		next = link(page + 1)
	}
	return prev, next
}
