package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/duedate"
	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

// SyncResult counts what a cycle did. Skipped includes relinks and cleared links.
type SyncResult struct {
	RunID    string
	Created  int
	Skipped  int
	Relinked int
	Updated  int
	Cleared  int
}

func (r SyncResult) Summary() string {
	return fmt.Sprintf("Created %d, skipped %d", r.Created, r.Skipped)
}

type SyncProcessor struct {
	users       UserRepository
	courses     CourseRepository
	assignments AssignmentRepository
	runs        SyncRunRepository
	todoist     TodoistClient
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

func NewSyncProcessor(
	users UserRepository,
	courses CourseRepository,
	assignments AssignmentRepository,
	runs SyncRunRepository,
	todoistClient TodoistClient,
	loc *time.Location,
	logger *zap.Logger,
) *SyncProcessor {
	return &SyncProcessor{
		users:       users,
		courses:     courses,
		assignments: assignments,
		runs:        runs,
		todoist:     todoistClient,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

// RunSyncCycle pushes the stored assignments of the selected courses to Todoist.
// Courses that are not the user's or have no project are ignored. The cycle is
// bracketed by a SyncRun that ends as SUCCESS or ERROR.
func (p *SyncProcessor) RunSyncCycle(ctx context.Context, userID string, courseIDs []string, cfg priority.BucketConfig) (result *SyncResult, err error) {
	user, token, err := loadToken(ctx, p.users, userID, todoistToken, ErrMissingTodoistCredentials)
	if err != nil {
		return nil, err
	}

	run, err := p.runs.Start(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	log := p.logger.With(zap.String("user_id", user.ID), zap.String("run_id", run.ID))
	result = &SyncResult{RunID: run.ID}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync cycle panicked: %v", r)
		}
		// Finalize even if the caller's context is already cancelled.
		finishCtx := context.WithoutCancel(ctx)
		if err != nil {
			log.Error("sync cycle failed", zap.Error(err))
			if ferr := p.runs.Finish(finishCtx, run.ID, models.SyncRunError, err.Error()); ferr != nil {
				log.Error("failed to finalize sync run", zap.Error(ferr))
			}
			return
		}
		if ferr := p.runs.Finish(finishCtx, run.ID, models.SyncRunSuccess, result.Summary()); ferr != nil {
			err = fmt.Errorf("failed to finalize sync run: %w", ferr)
		}
	}()

	err = p.reconcile(ctx, log, user.ID, token, courseIDs, cfg.Normalize(), result)
	return result, err
}

func (p *SyncProcessor) reconcile(ctx context.Context, log *zap.Logger, userID, token string, courseIDs []string, cfg priority.BucketConfig, result *SyncResult) error {
	courses, err := p.courses.ListLinked(ctx, userID, courseIDs)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		log.Info("no linked courses selected, nothing to sync")
		return nil
	}

	projectByCourse := make(map[string]string, len(courses))
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.UserID != userID || !c.HasProject() {
			continue
		}
		projectByCourse[c.ID] = *c.TodoistProjectID
		ids = append(ids, c.ID)
	}

	assignments, err := p.assignments.ListByCourses(ctx, ids)
	if err != nil {
		return err
	}

	index := p.buildIndex(ctx, log, token, projectByCourse)
	today := duedate.Today(p.now(), p.loc)

	for _, a := range assignments {
		projectID, ok := projectByCourse[a.CourseID]
		if !ok {
			continue
		}
		p.syncAssignment(ctx, log, token, projectID, a, today, cfg, index, result)
	}

	log.Info("sync cycle completed",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("relinked", result.Relinked),
		zap.Int("updated", result.Updated),
		zap.Int("cleared", result.Cleared))
	return nil
}

// buildIndex lists the open tasks of every referenced project. A project whose
// listing fails contributes nothing, so duplicates are possible there.
func (p *SyncProcessor) buildIndex(ctx context.Context, log *zap.Logger, token string, projectByCourse map[string]string) taskIndex {
	index := taskIndex{}
	listed := make(map[string]bool)
	for _, projectID := range projectByCourse {
		if listed[projectID] {
			continue
		}
		listed[projectID] = true

		tasks, err := p.todoist.ListTasks(ctx, token, projectID)
		if err != nil {
			log.Warn("failed to list project tasks, continuing without dedup for project",
				zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		for _, t := range tasks {
			index.add(projectID, t.Content, t.ID)
		}
	}
	return index
}

func (p *SyncProcessor) syncAssignment(
	ctx context.Context,
	log *zap.Logger,
	token string,
	projectID string,
	a models.Assignment,
	today duedate.Date,
	cfg priority.BucketConfig,
	index taskIndex,
	result *SyncResult,
) {
	log = log.With(zap.String("assignment_id", a.ID))
	due := duedate.FromTime(a.DueDate)
	bucket, level := priority.For(due, today, cfg)
	update := todoist.UpdateTaskRequest{Priority: level, Due: todoist.DateOrNull(due)}

	if a.IsLinked() {
		taskID := *a.TodoistTaskID
		if err := p.todoist.UpdateTask(ctx, token, taskID, update); err != nil {
			log.Warn("linked task update failed, clearing link", zap.String("task_id", taskID), zap.Error(err))
			if err := p.assignments.ClearTodoistLink(ctx, a.ID); err != nil {
				log.Error("failed to clear task link", zap.Error(err))
			}
			result.Cleared++
			result.Skipped++
			return
		}
		if err := p.assignments.MarkSynced(ctx, a.ID); err != nil {
			log.Error("failed to mark assignment synced", zap.Error(err))
		}
		result.Updated++
		return
	}

	title := strings.TrimSpace(a.Name)

	if taskID, ok := index.lookup(projectID, title); ok {
		err := p.todoist.UpdateTask(ctx, token, taskID, update)
		if err == nil {
			if err := p.assignments.SetTodoistLink(ctx, a.ID, taskID); err != nil {
				log.Error("failed to store relinked task", zap.String("task_id", taskID), zap.Error(err))
				result.Skipped++
				return
			}
			result.Relinked++
			result.Skipped++
			return
		}
		log.Warn("matching task update failed, creating a new task", zap.String("task_id", taskID), zap.Error(err))
	}

	taskID, err := p.todoist.CreateTask(ctx, token, todoist.CreateTaskRequest{
		ProjectID: projectID,
		Content:   title,
		Priority:  level,
		Due:       todoist.DateOrUnset(due),
	})
	if err != nil {
		log.Warn("task creation failed", zap.Error(err))
		result.Skipped++
		return
	}
	index.add(projectID, title, taskID)
	result.Created++

	if err := p.assignments.SetTodoistLink(ctx, a.ID, taskID); err != nil {
		log.Error("failed to store created task link", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	log.Debug("created task",
		zap.String("task_id", taskID),
		zap.Stringer("bucket", bucket),
		zap.Stringer("priority", level))
}
