package service

import (
	"context"
	"time"

	"github.com/vipul43/canvas-todoist-sync/internal/canvas"
	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

// UserRepository interface for dependency injection
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

type CourseRepository interface {
	Upsert(ctx context.Context, userID, canvasCourseID, name string) (*models.Course, error)
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
	ListLinked(ctx context.Context, userID string, courseIDs []string) ([]models.Course, error)
}

type AssignmentRepository interface {
	Upsert(ctx context.Context, in repository.AssignmentInput) error
	ListByCourses(ctx context.Context, courseIDs []string) ([]models.Assignment, error)
	SetTodoistLink(ctx context.Context, assignmentID, taskID string) error
	ClearTodoistLink(ctx context.Context, assignmentID string) error
	MarkSynced(ctx context.Context, assignmentID string) error
	DeleteUndatedByUser(ctx context.Context, userID string) (int64, error)
	DeletePastDueByUser(ctx context.Context, userID string, before time.Time) (int64, error)
}

type SyncRunRepository interface {
	Start(ctx context.Context, userID string) (*models.SyncRun, error)
	Finish(ctx context.Context, runID string, status models.SyncRunStatus, message string) error
}

// CanvasClient interface for the assignment source
type CanvasClient interface {
	ListCourses(ctx context.Context, token string, enrollmentState string) ([]canvas.Course, error)
	ListAssignments(ctx context.Context, token string, courseID string) ([]canvas.Assignment, error)
}

// TodoistClient interface for the task destination
type TodoistClient interface {
	ListTasks(ctx context.Context, token string, projectID string) ([]todoist.Task, error)
	CreateTask(ctx context.Context, token string, req todoist.CreateTaskRequest) (string, error)
	UpdateTask(ctx context.Context, token string, taskID string, req todoist.UpdateTaskRequest) error
}
