package models

import "time"

type SyncRunStatus string

const (
	SyncRunRunning SyncRunStatus = "RUNNING"
	SyncRunSuccess SyncRunStatus = "SUCCESS"
	SyncRunError   SyncRunStatus = "ERROR"
)

// SyncRun records one reconciliation cycle. It is finalized once and never
// changed afterwards. A run whose process died stays RUNNING.
type SyncRun struct {
	ID         string        `gorm:"column:id;primaryKey"`
	UserID     string        `gorm:"column:user_id;index"`
	Status     SyncRunStatus `gorm:"column:status"`
	Message    *string       `gorm:"column:message"`
	StartedAt  time.Time     `gorm:"column:started_at"`
	FinishedAt *time.Time    `gorm:"column:finished_at"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_run"
}

func (r SyncRun) IsFinished() bool {
	return r.Status == SyncRunSuccess || r.Status == SyncRunError
}
