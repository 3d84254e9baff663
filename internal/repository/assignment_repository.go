package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AssignmentInput carries the source-owned fields of an assignment.
type AssignmentInput struct {
	CourseID           string
	CanvasAssignmentID string
	Name               string
	Description        *string
	DueDate            *time.Time
}

// Upsert creates or refreshes an assignment keyed by (course, canvas assignment id).
// The Todoist link and sync timestamp are left alone.
func (r *AssignmentRepository) Upsert(ctx context.Context, in AssignmentInput) error {
	now := time.Now()
	assignment := models.Assignment{
		ID:                 uuid.New().String(),
		CourseID:           in.CourseID,
		CanvasAssignmentID: in.CanvasAssignmentID,
		Name:               in.Name,
		Description:        in.Description,
		DueDate:            in.DueDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "canvas_assignment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "due_date", "updated_at"}),
	}).Create(&assignment)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert assignment: %w", result.Error)
	}
	return nil
}

// ListByCourses retrieves assignments of the given courses, soonest due first
func (r *AssignmentRepository) ListByCourses(ctx context.Context, courseIDs []string) ([]models.Assignment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var assignments []models.Assignment
	result := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("due_date ASC NULLS LAST").
		Order("name ASC").
		Find(&assignments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", result.Error)
	}
	return assignments, nil
}

// SetTodoistLink records the linked task and marks the assignment synced
func (r *AssignmentRepository) SetTodoistLink(ctx context.Context, assignmentID, taskID string) error {
	now := time.Now()
	return r.update(ctx, assignmentID, map[string]interface{}{
		"todoist_task_id": taskID,
		"last_synced_at":  now,
		"updated_at":      now,
	})
}

// ClearTodoistLink forgets the linked task so the next sync recreates it
func (r *AssignmentRepository) ClearTodoistLink(ctx context.Context, assignmentID string) error {
	return r.update(ctx, assignmentID, map[string]interface{}{
		"todoist_task_id": nil,
		"updated_at":      time.Now(),
	})
}

// MarkSynced updates last_synced_at
func (r *AssignmentRepository) MarkSynced(ctx context.Context, assignmentID string) error {
	now := time.Now()
	return r.update(ctx, assignmentID, map[string]interface{}{
		"last_synced_at": now,
		"updated_at":     now,
	})
}

// DeleteUndatedByUser removes every stored assignment without a due date for the user
func (r *AssignmentRepository) DeleteUndatedByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("due_date IS NULL").
		Where("course_id IN (?)", r.userCourseIDs(userID)).
		Delete(&models.Assignment{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete undated assignments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeletePastDueByUser removes stored assignments due before the given date
func (r *AssignmentRepository) DeletePastDueByUser(ctx context.Context, userID string, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ?", before).
		Where("course_id IN (?)", r.userCourseIDs(userID)).
		Delete(&models.Assignment{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete past-due assignments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *AssignmentRepository) userCourseIDs(userID string) *gorm.DB {
	return r.db.Model(&models.Course{}).Select("id").Where("user_id = ?", userID)
}

func (r *AssignmentRepository) update(ctx context.Context, assignmentID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", assignmentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment: %w", result.Error)
	}
	return nil
}
