package handler

import (
	"context"
	"errors"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
)

type ScheduleStore interface {
	GetByUser(ctx context.Context, userID string) (*models.SyncSchedule, error)
	Upsert(ctx context.Context, schedule *models.SyncSchedule) error
}

// loadSchedule returns the user's stored schedule or the default one.
func loadSchedule(ctx context.Context, store ScheduleStore, userID string) (models.SyncSchedule, error) {
	sched, err := store.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrScheduleNotFound) {
		return models.DefaultSchedule(userID), nil
	}
	if err != nil {
		return models.SyncSchedule{}, err
	}
	return *sched, nil
}
