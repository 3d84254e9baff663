package models

import "time"

// Assignment is unique per (CourseID, CanvasAssignmentID).
// DueDate holds a calendar date anchored at 12:00 UTC (see duedate.Date).
type Assignment struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	CourseID           string     `gorm:"column:course_id;uniqueIndex:assignment_course_canvas_key"`
	CanvasAssignmentID string     `gorm:"column:canvas_assignment_id;uniqueIndex:assignment_course_canvas_key"`
	Name               string     `gorm:"column:name"`
	Description        *string    `gorm:"column:description"`
	DueDate            *time.Time `gorm:"column:due_date;index"`
	TodoistTaskID      *string    `gorm:"column:todoist_task_id"`
	LastSyncedAt       *time.Time `gorm:"column:last_synced_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Assignment) TableName() string {
	return "assignment"
}

// IsLinked reports whether a Todoist task is recorded for the assignment.
func (a Assignment) IsLinked() bool {
	return a.TodoistTaskID != nil && *a.TodoistTaskID != ""
}
