package handler

import (
	"context"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockRunner struct {
	runNowFunc func(ctx context.Context, userID string) (*scheduler.CycleResult, error)
	busy       map[string]bool
}

func (m *mockRunner) RunNow(ctx context.Context, userID string) (*scheduler.CycleResult, error) {
	return m.runNowFunc(ctx, userID)
}

func (m *mockRunner) Exclusive(userID string, fn func() error) error {
	if m.busy[userID] {
		return scheduler.ErrCycleInProgress
	}
	return fn()
}

type mockFetcher struct {
	runFunc func(ctx context.Context, userID string, opts service.FetchOptions) (*service.FetchResult, error)
}

func (m *mockFetcher) RunFetchCycle(ctx context.Context, userID string, opts service.FetchOptions) (*service.FetchResult, error) {
	return m.runFunc(ctx, userID, opts)
}

type mockSyncer struct {
	runFunc func(ctx context.Context, userID string, courseIDs []string, cfg priority.BucketConfig) (*service.SyncResult, error)
}

func (m *mockSyncer) RunSyncCycle(ctx context.Context, userID string, courseIDs []string, cfg priority.BucketConfig) (*service.SyncResult, error) {
	return m.runFunc(ctx, userID, courseIDs, cfg)
}

type mockScheduleStore struct {
	schedules map[string]models.SyncSchedule
	upserted  *models.SyncSchedule
}

func (m *mockScheduleStore) GetByUser(_ context.Context, userID string) (*models.SyncSchedule, error) {
	s, ok := m.schedules[userID]
	if !ok {
		return nil, repository.ErrScheduleNotFound
	}
	return &s, nil
}

func (m *mockScheduleStore) Upsert(_ context.Context, schedule *models.SyncSchedule) error {
	m.upserted = schedule
	return nil
}

type mockCourseStore struct {
	courses       []models.Course
	setProjectErr error
	setProjectArg *string
}

func (m *mockCourseStore) ListByUser(_ context.Context, userID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseStore) SetProject(_ context.Context, userID, courseID string, projectID *string) error {
	if m.setProjectErr != nil {
		return m.setProjectErr
	}
	m.setProjectArg = projectID
	return nil
}

type mockRunReader struct {
	run *models.SyncRun
}

func (m *mockRunReader) Latest(_ context.Context, userID string) (*models.SyncRun, error) {
	if m.run == nil {
		return nil, repository.ErrSyncRunNotFound
	}
	return m.run, nil
}

type mockUsers struct {
	users map[string]*models.User
}

func (m *mockUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

type mockProjects struct {
	projects []todoist.Project
	gotToken string
}

func (m *mockProjects) ListProjects(_ context.Context, token string) ([]todoist.Project, error) {
	m.gotToken = token
	return m.projects, nil
}

func strPtr(s string) *string {
	return &s
}
