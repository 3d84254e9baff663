package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
)

var (
	ErrMissingCanvasCredentials  = errors.New("user has no Canvas access token")
	ErrMissingTodoistCredentials = errors.New("user has no Todoist access token")
)

// loadToken fetches the user and returns the token picked by pick, or missing
// when it is absent.
func loadToken(ctx context.Context, users UserRepository, userID string, pick func(*models.User) *string, missing error) (*models.User, string, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	token := pick(user)
	if token == nil || *token == "" {
		return nil, "", missing
	}
	return user, *token, nil
}

func canvasToken(u *models.User) *string {
	return u.CanvasToken
}

func todoistToken(u *models.User) *string {
	return u.TodoistToken
}
