package models

import "time"

// User is the owner of courses and schedules. Tokens are the personal access
// tokens for Canvas and Todoist; either may be missing until the user connects it.
type User struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email"`
	CanvasToken  *string   `gorm:"column:canvas_token"`
	TodoistToken *string   `gorm:"column:todoist_token"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "app_user"
}
