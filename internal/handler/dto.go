package handler

import (
	"time"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
)

type fetchResponse struct {
	CoursesProcessed    int      `json:"courses_processed"`
	AssignmentsUpserted int      `json:"assignments_upserted"`
	UndatedPurged       int64    `json:"undated_purged"`
	PastDuePurged       int64    `json:"past_due_purged"`
	PendingCourses      int      `json:"pending_courses"`
	PendingCoursesError string   `json:"pending_courses_error,omitempty"`
	FailedCourses       []string `json:"failed_courses"`
}

func newFetchResponse(r *service.FetchResult) *fetchResponse {
	if r == nil {
		return nil
	}
	resp := &fetchResponse{
		CoursesProcessed:    r.CoursesProcessed,
		AssignmentsUpserted: r.AssignmentsUpserted,
		UndatedPurged:       r.UndatedPurged,
		PastDuePurged:       r.PastDuePurged,
		PendingCourses:      r.PendingCourses.Count,
		FailedCourses:       r.FailedCourses,
	}
	if !r.PendingCourses.OK() {
		resp.PendingCoursesError = r.PendingCourses.Err.Error()
	}
	if resp.FailedCourses == nil {
		resp.FailedCourses = []string{}
	}
	return resp
}

type syncResponse struct {
	RunID    string `json:"run_id"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
	Relinked int    `json:"relinked"`
	Updated  int    `json:"updated"`
	Cleared  int    `json:"cleared"`
	Message  string `json:"message"`
}

func newSyncResponse(r *service.SyncResult) *syncResponse {
	if r == nil {
		return nil
	}
	return &syncResponse{
		RunID:    r.RunID,
		Created:  r.Created,
		Skipped:  r.Skipped,
		Relinked: r.Relinked,
		Updated:  r.Updated,
		Cleared:  r.Cleared,
		Message:  r.Summary(),
	}
}

type cycleResponse struct {
	Fetch *fetchResponse `json:"fetch,omitempty"`
	Sync  *syncResponse  `json:"sync,omitempty"`
	Error string         `json:"error,omitempty"`
}

func newCycleResponse(r *scheduler.CycleResult, err error) cycleResponse {
	var resp cycleResponse
	if r != nil {
		resp.Fetch = newFetchResponse(r.Fetch)
		resp.Sync = newSyncResponse(r.Sync)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

type syncRunResponse struct {
	ID         string               `json:"id"`
	Status     models.SyncRunStatus `json:"status"`
	Message    *string              `json:"message"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at"`
}

func newSyncRunResponse(r *models.SyncRun) syncRunResponse {
	return syncRunResponse{
		ID:         r.ID,
		Status:     r.Status,
		Message:    r.Message,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

type courseResponse struct {
	ID               string  `json:"id"`
	CanvasCourseID   string  `json:"canvas_course_id"`
	Name             string  `json:"name"`
	TodoistProjectID *string `json:"todoist_project_id"`
}

func newCourseResponses(courses []models.Course) []courseResponse {
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, courseResponse{
			ID:               c.ID,
			CanvasCourseID:   c.CanvasCourseID,
			Name:             c.Name,
			TodoistProjectID: c.TodoistProjectID,
		})
	}
	return out
}

type scheduleResponse struct {
	Enabled        bool                  `json:"enabled"`
	CronSpec       string                `json:"cron_spec"`
	LookAheadDays  *int                  `json:"look_ahead_days"`
	IncludeUndated bool                  `json:"include_undated"`
	Buckets        priority.BucketConfig `json:"bucket_config"`
}

func newScheduleResponse(s models.SyncSchedule) scheduleResponse {
	return scheduleResponse{
		Enabled:        s.Enabled,
		CronSpec:       s.CronSpec,
		LookAheadDays:  s.LookAheadDays,
		IncludeUndated: s.IncludeUndated,
		Buckets:        s.Buckets(),
	}
}
