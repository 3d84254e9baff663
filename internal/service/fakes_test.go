package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/canvas"
	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

var errStoreDown = errors.New("connection refused")

func strPtr(s string) *string {
	return &s
}

// fakeStore is an in-memory implementation of every repository interface.
type fakeStore struct {
	users       map[string]*models.User
	courses     map[string]*models.Course
	assignments map[string]*models.Assignment
	runs        []*models.SyncRun
	nextID      int

	listCoursesErr     error
	listAssignmentsErr error
	setLinkErr         error
	finishCalls        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]*models.User{},
		courses:     map[string]*models.Course{},
		assignments: map[string]*models.Assignment{},
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) addUser(id string, canvasToken, todoistToken *string) {
	s.users[id] = &models.User{ID: id, CanvasToken: canvasToken, TodoistToken: todoistToken}
}

func (s *fakeStore) addCourse(id, userID string, projectID *string) {
	s.courses[id] = &models.Course{ID: id, UserID: userID, CanvasCourseID: "c" + id, Name: id, TodoistProjectID: projectID}
}

func (s *fakeStore) addAssignment(id, courseID, name string, due *time.Time) *models.Assignment {
	a := &models.Assignment{ID: id, CourseID: courseID, CanvasAssignmentID: "a" + id, Name: name, DueDate: due}
	s.assignments[id] = a
	return a
}

func (s *fakeStore) GetByID(_ context.Context, userID string) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) Upsert(_ context.Context, userID, canvasCourseID, name string) (*models.Course, error) {
	for _, c := range s.courses {
		if c.UserID == userID && c.CanvasCourseID == canvasCourseID {
			c.Name = name
			return c, nil
		}
	}
	c := &models.Course{ID: s.id("course"), UserID: userID, CanvasCourseID: canvasCourseID, Name: name}
	s.courses[c.ID] = c
	return c, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range s.courses {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListLinked(_ context.Context, userID string, courseIDs []string) ([]models.Course, error) {
	if s.listCoursesErr != nil {
		return nil, s.listCoursesErr
	}
	var out []models.Course
	for _, id := range courseIDs {
		c, ok := s.courses[id]
		if ok && c.UserID == userID && c.HasProject() {
			out = append(out, *c)
		}
	}
	return out, nil
}

// assignmentStore adapts fakeStore to AssignmentRepository, whose Upsert
// signature differs from CourseRepository's.
type assignmentStore struct {
	*fakeStore
}

func (s assignmentStore) Upsert(_ context.Context, in repository.AssignmentInput) error {
	for _, a := range s.assignments {
		if a.CourseID == in.CourseID && a.CanvasAssignmentID == in.CanvasAssignmentID {
			a.Name = in.Name
			a.Description = in.Description
			a.DueDate = in.DueDate
			return nil
		}
	}
	a := &models.Assignment{
		ID:                 s.id("assignment"),
		CourseID:           in.CourseID,
		CanvasAssignmentID: in.CanvasAssignmentID,
		Name:               in.Name,
		Description:        in.Description,
		DueDate:            in.DueDate,
	}
	s.assignments[a.ID] = a
	return nil
}

func (s *fakeStore) ListByCourses(_ context.Context, courseIDs []string) ([]models.Assignment, error) {
	if s.listAssignmentsErr != nil {
		return nil, s.listAssignmentsErr
	}
	want := map[string]bool{}
	for _, id := range courseIDs {
		want[id] = true
	}
	var out []models.Assignment
	for _, a := range s.assignments {
		if want[a.CourseID] {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SetTodoistLink(_ context.Context, assignmentID, taskID string) error {
	if s.setLinkErr != nil {
		return s.setLinkErr
	}
	now := time.Now()
	a := s.assignments[assignmentID]
	a.TodoistTaskID = &taskID
	a.LastSyncedAt = &now
	return nil
}

func (s *fakeStore) ClearTodoistLink(_ context.Context, assignmentID string) error {
	s.assignments[assignmentID].TodoistTaskID = nil
	return nil
}

func (s *fakeStore) MarkSynced(_ context.Context, assignmentID string) error {
	now := time.Now()
	s.assignments[assignmentID].LastSyncedAt = &now
	return nil
}

func (s *fakeStore) userCourse(courseID, userID string) bool {
	c, ok := s.courses[courseID]
	return ok && c.UserID == userID
}

func (s *fakeStore) DeleteUndatedByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, a := range s.assignments {
		if a.DueDate == nil && s.userCourse(a.CourseID, userID) {
			delete(s.assignments, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) DeletePastDueByUser(_ context.Context, userID string, before time.Time) (int64, error) {
	var n int64
	for id, a := range s.assignments {
		if a.DueDate != nil && a.DueDate.Before(before) && s.userCourse(a.CourseID, userID) {
			delete(s.assignments, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Start(_ context.Context, userID string) (*models.SyncRun, error) {
	run := &models.SyncRun{ID: s.id("run"), UserID: userID, Status: models.SyncRunRunning, StartedAt: time.Now()}
	s.runs = append(s.runs, run)
	return run, nil
}

func (s *fakeStore) Finish(_ context.Context, runID string, status models.SyncRunStatus, message string) error {
	s.finishCalls++
	for _, r := range s.runs {
		if r.ID == runID {
			if r.Status != models.SyncRunRunning {
				return repository.ErrSyncRunFinished
			}
			now := time.Now()
			r.Status = status
			r.Message = &message
			r.FinishedAt = &now
			return nil
		}
	}
	return repository.ErrSyncRunNotFound
}

func (s *fakeStore) lastRun() *models.SyncRun {
	if len(s.runs) == 0 {
		return nil
	}
	return s.runs[len(s.runs)-1]
}

// fakeTodoist keeps tasks in memory and records calls.
type fakeTodoist struct {
	tasks   map[string]*todoist.Task
	nextID  int
	creates []todoist.CreateTaskRequest
	updates map[string]todoist.UpdateTaskRequest

	listErr   map[string]error // by project
	createErr error
	updateErr map[string]error // by task id
}

func newFakeTodoist() *fakeTodoist {
	return &fakeTodoist{
		tasks:     map[string]*todoist.Task{},
		updates:   map[string]todoist.UpdateTaskRequest{},
		listErr:   map[string]error{},
		updateErr: map[string]error{},
	}
}

func (f *fakeTodoist) addTask(id, projectID, content string) {
	f.tasks[id] = &todoist.Task{ID: id, ProjectID: projectID, Content: content}
}

func (f *fakeTodoist) ListTasks(_ context.Context, _ string, projectID string) ([]todoist.Task, error) {
	if err := f.listErr[projectID]; err != nil {
		return nil, err
	}
	var out []todoist.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTodoist) CreateTask(_ context.Context, _ string, req todoist.CreateTaskRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("task-%d", f.nextID)
	f.tasks[id] = &todoist.Task{ID: id, ProjectID: req.ProjectID, Content: req.Content, Priority: req.Priority.APIValue()}
	f.creates = append(f.creates, req)
	return id, nil
}

func (f *fakeTodoist) UpdateTask(_ context.Context, _ string, taskID string, req todoist.UpdateTaskRequest) error {
	if err := f.updateErr[taskID]; err != nil {
		return err
	}
	t, ok := f.tasks[taskID]
	if !ok {
		return &todoist.APIError{StatusCode: 404, Body: "Task not found"}
	}
	t.Priority = req.Priority.APIValue()
	f.updates[taskID] = req
	return nil
}

func (f *fakeTodoist) countTitle(projectID, title string) int {
	n := 0
	for _, t := range f.tasks {
		if t.ProjectID == projectID && t.Content == title {
			n++
		}
	}
	return n
}

// fakeCanvas serves fixed courses and assignments.
type fakeCanvas struct {
	courses     map[string][]canvas.Course // by enrollment state
	courseErr   map[string]error
	assignments map[string][]canvas.Assignment // by course id
	assignErr   map[string]error
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{
		courses:     map[string][]canvas.Course{},
		courseErr:   map[string]error{},
		assignments: map[string][]canvas.Assignment{},
		assignErr:   map[string]error{},
	}
}

func (f *fakeCanvas) ListCourses(_ context.Context, _ string, enrollmentState string) ([]canvas.Course, error) {
	if err := f.courseErr[enrollmentState]; err != nil {
		return nil, err
	}
	return f.courses[enrollmentState], nil
}

func (f *fakeCanvas) ListAssignments(_ context.Context, _ string, courseID string) ([]canvas.Assignment, error) {
	if err := f.assignErr[courseID]; err != nil {
		return nil, err
	}
	return f.assignments[courseID], nil
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
