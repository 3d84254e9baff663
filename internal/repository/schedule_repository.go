package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
)

var ErrScheduleNotFound = errors.New("sync schedule not found")

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetByUser retrieves the schedule of a user
func (r *ScheduleRepository) GetByUser(ctx context.Context, userID string) (*models.SyncSchedule, error) {
	var schedule models.SyncSchedule
	result := r.db.WithContext(ctx).First(&schedule, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", result.Error)
	}
	return &schedule, nil
}

// Upsert stores the schedule keyed by user
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.SyncSchedule) error {
	now := time.Now()
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled",
			"cron_spec",
			"look_ahead_days",
			"include_undated",
			"bucket_config",
			"updated_at",
		}),
	}).Create(schedule)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert schedule: %w", result.Error)
	}
	return nil
}

// ListEnabled retrieves all schedules with auto-sync turned on
func (r *ScheduleRepository) ListEnabled(ctx context.Context) ([]models.SyncSchedule, error) {
	var schedules []models.SyncSchedule
	result := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("user_id ASC").
		Find(&schedules)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list enabled schedules: %w", result.Error)
	}
	return schedules, nil
}
