package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/vipul43/canvas-todoist-sync/internal/priority"
)

const DefaultCronSpec = "@every 1h"

// SyncSchedule is the per-user auto-sync setting consumed by the scheduler.
type SyncSchedule struct {
	ID             string                                    `gorm:"column:id;primaryKey"`
	UserID         string                                    `gorm:"column:user_id;uniqueIndex"`
	Enabled        bool                                      `gorm:"column:enabled"`
	CronSpec       string                                    `gorm:"column:cron_spec"`
	LookAheadDays  *int                                      `gorm:"column:look_ahead_days"`
	IncludeUndated bool                                      `gorm:"column:include_undated"`
	BucketConfig   datatypes.JSONType[priority.BucketConfig] `gorm:"column:bucket_config;type:jsonb"`
	CreatedAt      time.Time                                 `gorm:"column:created_at"`
	UpdatedAt      time.Time                                 `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (SyncSchedule) TableName() string {
	return "sync_schedule"
}

// DefaultSchedule returns a disabled schedule with default buckets.
func DefaultSchedule(userID string) SyncSchedule {
	return SyncSchedule{
		UserID:       userID,
		CronSpec:     DefaultCronSpec,
		BucketConfig: datatypes.NewJSONType(priority.DefaultBucketConfig()),
	}
}

// Buckets returns the normalized bucket configuration.
func (s SyncSchedule) Buckets() priority.BucketConfig {
	return s.BucketConfig.Data().Normalize()
}
