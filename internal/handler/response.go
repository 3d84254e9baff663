package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
)

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is
// treated as an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCourseNotFound),
		errors.Is(err, repository.ErrSyncRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMissingCanvasCredentials),
		errors.Is(err, service.ErrMissingTodoistCredentials):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scheduler.ErrCycleInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
