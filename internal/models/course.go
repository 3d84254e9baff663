package models

import "time"

// Course is unique per (UserID, CanvasCourseID). TodoistProjectID is only ever
// set by the user.
type Course struct {
	ID               string    `gorm:"column:id;primaryKey"`
	UserID           string    `gorm:"column:user_id;uniqueIndex:course_user_canvas_key"`
	CanvasCourseID   string    `gorm:"column:canvas_course_id;uniqueIndex:course_user_canvas_key"`
	Name             string    `gorm:"column:name"`
	TodoistProjectID *string   `gorm:"column:todoist_project_id"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Course) TableName() string {
	return "course"
}

// HasProject reports whether the course is linked to a Todoist project.
func (c Course) HasProject() bool {
	return c.TodoistProjectID != nil && *c.TodoistProjectID != ""
}
