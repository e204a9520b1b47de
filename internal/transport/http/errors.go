package http

import (
	"errors"
	"net/http"

	"course-trivia-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCourseNotOwned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrCourseIncomplete),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrGiftAlreadyClaimed),
		errors.Is(err, domain.ErrEmptyBank):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGameClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
