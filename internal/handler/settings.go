package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

type UserReader interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

type CourseStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
	SetProject(ctx context.Context, userID, courseID string, projectID *string) error
}

type ProjectLister interface {
	ListProjects(ctx context.Context, token string) ([]todoist.Project, error)
}

// SettingsHandler manages per-user schedules and course-to-project links.
type SettingsHandler struct {
	Users     UserReader
	Schedules ScheduleStore
	Courses   CourseStore
	Projects  ProjectLister
	Logger    *zap.Logger
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/users/:userID")
	group.GET("/schedule", h.getSchedule)
	group.PUT("/schedule", h.putSchedule)
	group.GET("/courses", h.listCourses)
	group.PUT("/courses/:courseID/project", h.setCourseProject)
	group.GET("/projects", h.listProjects)
}

type scheduleRequest struct {
	Enabled        *bool                  `json:"enabled"`
	CronSpec       *string                `json:"cron_spec"`
	LookAheadDays  *int                   `json:"look_ahead_days"`
	IncludeUndated *bool                  `json:"include_undated"`
	Buckets        *priority.BucketConfig `json:"bucket_config"`
}

type courseProjectRequest struct {
	ProjectID *string `json:"project_id"`
}

func (h *SettingsHandler) getSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userID")
	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		h.fail(c, "get user failed", err)
		return
	}
	sched, err := loadSchedule(ctx, h.Schedules, userID)
	if err != nil {
		h.fail(c, "load schedule failed", err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(sched))
}

// putSchedule applies the fields present in the body on top of the stored
// schedule. Bucket configs are stored normalized.
func (h *SettingsHandler) putSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userID")

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.CronSpec != nil {
		spec := strings.TrimSpace(*req.CronSpec)
		if _, err := cron.ParseStandard(spec); err != nil {
			Error(c, http.StatusBadRequest, "invalid cron_spec: "+err.Error())
			return
		}
		req.CronSpec = &spec
	}
	if req.LookAheadDays != nil && *req.LookAheadDays < 0 {
		Error(c, http.StatusBadRequest, "look_ahead_days must not be negative")
		return
	}

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		h.fail(c, "get user failed", err)
		return
	}
	sched, err := loadSchedule(ctx, h.Schedules, userID)
	if err != nil {
		h.fail(c, "load schedule failed", err)
		return
	}

	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if req.CronSpec != nil {
		sched.CronSpec = *req.CronSpec
	}
	if req.LookAheadDays != nil {
		sched.LookAheadDays = req.LookAheadDays
	}
	if req.IncludeUndated != nil {
		sched.IncludeUndated = *req.IncludeUndated
	}
	if req.Buckets != nil {
		sched.BucketConfig = datatypes.NewJSONType(req.Buckets.Normalize())
	}

	if err := h.Schedules.Upsert(ctx, &sched); err != nil {
		h.fail(c, "store schedule failed", err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(sched))
}

func (h *SettingsHandler) listCourses(c *gin.Context) {
	courses, err := h.Courses.ListByUser(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.fail(c, "list courses failed", err)
		return
	}
	c.JSON(http.StatusOK, newCourseResponses(courses))
}

// setCourseProject links a course to a Todoist project. A null or empty
// project_id unlinks it.
func (h *SettingsHandler) setCourseProject(c *gin.Context) {
	var req courseProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	projectID := req.ProjectID
	if projectID != nil && strings.TrimSpace(*projectID) == "" {
		projectID = nil
	}

	err := h.Courses.SetProject(c.Request.Context(), c.Param("userID"), c.Param("courseID"), projectID)
	if err != nil {
		h.fail(c, "set course project failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) listProjects(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, c.Param("userID"))
	if err != nil {
		h.fail(c, "get user failed", err)
		return
	}
	if user.TodoistToken == nil || *user.TodoistToken == "" {
		Error(c, statusFor(service.ErrMissingTodoistCredentials), service.ErrMissingTodoistCredentials.Error())
		return
	}

	projects, err := h.Projects.ListProjects(ctx, *user.TodoistToken)
	if err != nil {
		h.fail(c, "list projects failed", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *SettingsHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Warn(msg, zap.String("user_id", c.Param("userID")), zap.Error(err))
	}
	Error(c, status, err.Error())
}
