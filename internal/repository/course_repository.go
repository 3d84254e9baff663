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

var ErrCourseNotFound = errors.New("course not found")

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Upsert creates or renames a course keyed by (user, canvas course id).
// The Todoist project link is never touched here.
func (r *CourseRepository) Upsert(ctx context.Context, userID, canvasCourseID, name string) (*models.Course, error) {
	now := time.Now()
	course := models.Course{
		ID:             uuid.New().String(),
		UserID:         userID,
		CanvasCourseID: canvasCourseID,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "canvas_course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&course)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to upsert course: %w", result.Error)
	}

	// Re-read so the caller gets the persisted id on conflict.
	var stored models.Course
	result = r.db.WithContext(ctx).
		Where("user_id = ? AND canvas_course_id = ?", userID, canvasCourseID).
		First(&stored)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to reload course: %w", result.Error)
	}
	return &stored, nil
}

// ListByUser retrieves all courses of a user
func (r *CourseRepository) ListByUser(ctx context.Context, userID string) ([]models.Course, error) {
	var courses []models.Course
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&courses)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list courses: %w", result.Error)
	}
	return courses, nil
}

// ListLinked retrieves the user's courses among courseIDs that have a Todoist project.
// An empty courseIDs selects nothing.
func (r *CourseRepository) ListLinked(ctx context.Context, userID string, courseIDs []string) ([]models.Course, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var courses []models.Course
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("id IN ?", courseIDs).
		Where("todoist_project_id IS NOT NULL AND todoist_project_id <> ''").
		Order("name ASC").
		Find(&courses)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list linked courses: %w", result.Error)
	}
	return courses, nil
}

// SetProject links (or with nil, unlinks) a course to a Todoist project
func (r *CourseRepository) SetProject(ctx context.Context, userID, courseID string, projectID *string) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ? AND user_id = ?", courseID, userID).
		Updates(map[string]interface{}{
			"todoist_project_id": projectID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set course project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
