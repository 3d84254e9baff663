package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
)

var (
	ErrSyncRunNotFound = errors.New("sync run not found")
	// ErrSyncRunFinished is returned when finishing a run that is no longer RUNNING.
	ErrSyncRunFinished = errors.New("sync run already finished")
)

type SyncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Start creates a RUNNING sync run for the user
func (r *SyncRunRepository) Start(ctx context.Context, userID string) (*models.SyncRun, error) {
	run := models.SyncRun{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    models.SyncRunRunning,
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return &run, nil
}

// Finish moves a RUNNING run to its terminal status. Finished runs are immutable.
func (r *SyncRunRepository) Finish(ctx context.Context, runID string, status models.SyncRunStatus, message string) error {
	result := r.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("id = ? AND status = ?", runID, models.SyncRunRunning).
		Updates(map[string]interface{}{
			"status":      status,
			"message":     message,
			"finished_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finish sync run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyncRunFinished
	}
	return nil
}

// Latest retrieves the most recently started run of a user
func (r *SyncRunRepository) Latest(ctx context.Context, userID string) (*models.SyncRun, error) {
	var run models.SyncRun
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSyncRunNotFound
		}
		return nil, fmt.Errorf("failed to get latest sync run: %w", result.Error)
	}
	return &run, nil
}
