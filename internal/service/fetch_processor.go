package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/canvas"
	"github.com/vipul43/canvas-todoist-sync/internal/duedate"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
)

// FetchOptions controls which assignments are stored.
type FetchOptions struct {
	LookAheadDays  *int // nil means no horizon
	IncludeUndated bool
}

// ListOutcome reports a best-effort listing: how many items it returned, or why it failed.
type ListOutcome struct {
	Count int
	Err   error
}

func (o ListOutcome) OK() bool {
	return o.Err == nil
}

type FetchResult struct {
	CoursesProcessed    int
	AssignmentsUpserted int
	UndatedPurged       int64
	PastDuePurged       int64
	PendingCourses      ListOutcome
	FailedCourses       []string // canvas course ids whose assignments could not be listed
}

type FetchProcessor struct {
	users       UserRepository
	courses     CourseRepository
	assignments AssignmentRepository
	canvas      CanvasClient
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

func NewFetchProcessor(
	users UserRepository,
	courses CourseRepository,
	assignments AssignmentRepository,
	canvasClient CanvasClient,
	loc *time.Location,
	logger *zap.Logger,
) *FetchProcessor {
	return &FetchProcessor{
		users:       users,
		courses:     courses,
		assignments: assignments,
		canvas:      canvasClient,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

// RunFetchCycle pulls the user's courses and assignments from Canvas and stores
// the in-scope ones.
func (p *FetchProcessor) RunFetchCycle(ctx context.Context, userID string, opts FetchOptions) (*FetchResult, error) {
	user, token, err := loadToken(ctx, p.users, userID, canvasToken, ErrMissingCanvasCredentials)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(zap.String("user_id", user.ID))
	result := &FetchResult{}
	today := duedate.Today(p.now(), p.loc)

	if !opts.IncludeUndated {
		n, err := p.assignments.DeleteUndatedByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.UndatedPurged = n
	}

	n, err := p.assignments.DeletePastDueByUser(ctx, user.ID, today.Time())
	if err != nil {
		return nil, err
	}
	result.PastDuePurged = n

	courses, err := p.canvas.ListCourses(ctx, token, canvas.EnrollmentActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active courses: %w", err)
	}

	pending, outcome := p.listPendingCourses(ctx, token)
	result.PendingCourses = outcome
	if !outcome.OK() {
		log.Warn("pending course listing failed, continuing with active courses", zap.Error(outcome.Err))
	}
	courses = mergeCourses(courses, pending)

	log.Info("fetching assignments", zap.Int("courses", len(courses)))

	for _, c := range courses {
		course, err := p.courses.Upsert(ctx, user.ID, c.IDString(), c.Name)
		if err != nil {
			return nil, err
		}
		result.CoursesProcessed++

		items, err := p.canvas.ListAssignments(ctx, token, c.IDString())
		if err != nil {
			log.Warn("failed to list assignments, skipping course",
				zap.String("canvas_course_id", c.IDString()), zap.Error(err))
			result.FailedCourses = append(result.FailedCourses, c.IDString())
			continue
		}

		for _, a := range items {
			due := duedate.Normalize(a.DueAt, p.loc)
			if !duedate.InScope(due, today, opts.LookAheadDays, opts.IncludeUndated) {
				continue
			}
			err := p.assignments.Upsert(ctx, repository.AssignmentInput{
				CourseID:           course.ID,
				CanvasAssignmentID: a.IDString(),
				Name:               a.Name,
				Description:        a.Description,
				DueDate:            due.TimePtr(),
			})
			if err != nil {
				return nil, err
			}
			result.AssignmentsUpserted++
		}
	}

	log.Info("fetch cycle completed",
		zap.Int("courses", result.CoursesProcessed),
		zap.Int("assignments", result.AssignmentsUpserted),
		zap.Int("failed_courses", len(result.FailedCourses)))

	return result, nil
}

func (p *FetchProcessor) listPendingCourses(ctx context.Context, token string) ([]canvas.Course, ListOutcome) {
	courses, err := p.canvas.ListCourses(ctx, token, canvas.EnrollmentInvitedOrPending)
	if err != nil {
		return nil, ListOutcome{Err: err}
	}
	return courses, ListOutcome{Count: len(courses)}
}

// mergeCourses appends extra courses not already present in base.
func mergeCourses(base, extra []canvas.Course) []canvas.Course {
	seen := make(map[int64]bool, len(base))
	for _, c := range base {
		seen[c.ID] = true
	}
	for _, c := range extra {
		if !seen[c.ID] {
			seen[c.ID] = true
			base = append(base, c)
		}
	}
	return base
}
