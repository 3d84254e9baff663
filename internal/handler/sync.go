package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
)

type CycleRunner interface {
	RunNow(ctx context.Context, userID string) (*scheduler.CycleResult, error)
	Exclusive(userID string, fn func() error) error
}

type LinkedCourseLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
}

type SyncRunReader interface {
	Latest(ctx context.Context, userID string) (*models.SyncRun, error)
}

// SyncHandler triggers fetch and sync cycles on demand. All triggers share the
// scheduler's per-user lock.
type SyncHandler struct {
	Runner    CycleRunner
	Fetcher   scheduler.Fetcher
	Syncer    scheduler.Syncer
	Schedules ScheduleStore
	Courses   LinkedCourseLister
	Runs      SyncRunReader
	Logger    *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/users/:userID")
	group.POST("/fetch", h.fetch)
	group.POST("/sync", h.sync)
	group.POST("/run", h.run)
	group.GET("/sync-runs/latest", h.latestRun)
}

type fetchRequest struct {
	LookAheadDays  *int  `json:"look_ahead_days"`
	IncludeUndated *bool `json:"include_undated"`
}

type syncRequest struct {
	CourseIDs []string `json:"course_ids"`
}

// bindOptional binds a JSON body if one was sent.
func bindOptional(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *SyncHandler) fetch(c *gin.Context) {
	userID := c.Param("userID")
	var req fetchRequest
	if err := bindOptional(c, &req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.LookAheadDays != nil && *req.LookAheadDays < 0 {
		Error(c, http.StatusBadRequest, "look_ahead_days must not be negative")
		return
	}

	sched, err := loadSchedule(c.Request.Context(), h.Schedules, userID)
	if err != nil {
		h.fail(c, "load schedule failed", err)
		return
	}
	opts := service.FetchOptions{LookAheadDays: sched.LookAheadDays, IncludeUndated: sched.IncludeUndated}
	if req.LookAheadDays != nil {
		opts.LookAheadDays = req.LookAheadDays
	}
	if req.IncludeUndated != nil {
		opts.IncludeUndated = *req.IncludeUndated
	}

	var result *service.FetchResult
	err = h.Runner.Exclusive(userID, func() error {
		var err error
		result, err = h.Fetcher.RunFetchCycle(c.Request.Context(), userID, opts)
		return err
	})
	if err != nil {
		h.fail(c, "fetch failed", err)
		return
	}
	c.JSON(http.StatusOK, newFetchResponse(result))
}

func (h *SyncHandler) sync(c *gin.Context) {
	userID := c.Param("userID")
	var req syncRequest
	if err := bindOptional(c, &req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	sched, err := loadSchedule(ctx, h.Schedules, userID)
	if err != nil {
		h.fail(c, "load schedule failed", err)
		return
	}

	courseIDs := req.CourseIDs
	if len(courseIDs) == 0 {
		courses, err := h.Courses.ListByUser(ctx, userID)
		if err != nil {
			h.fail(c, "list courses failed", err)
			return
		}
		for _, course := range courses {
			if course.HasProject() {
				courseIDs = append(courseIDs, course.ID)
			}
		}
	}

	var result *service.SyncResult
	err = h.Runner.Exclusive(userID, func() error {
		var err error
		result, err = h.Syncer.RunSyncCycle(ctx, userID, courseIDs, sched.Buckets())
		return err
	})
	if err != nil {
		h.fail(c, "sync failed", err)
		return
	}
	c.JSON(http.StatusOK, newSyncResponse(result))
}

func (h *SyncHandler) run(c *gin.Context) {
	userID := c.Param("userID")
	result, err := h.Runner.RunNow(c.Request.Context(), userID)
	if err != nil {
		h.Logger.Warn("cycle failed", zap.String("user_id", userID), zap.Error(err))
		if result == nil {
			Error(c, statusFor(err), err.Error())
			return
		}
		c.JSON(statusFor(err), newCycleResponse(result, err))
		return
	}
	c.JSON(http.StatusOK, newCycleResponse(result, nil))
}

func (h *SyncHandler) latestRun(c *gin.Context) {
	run, err := h.Runs.Latest(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.fail(c, "get latest sync run failed", err)
		return
	}
	c.JSON(http.StatusOK, newSyncRunResponse(run))
}

func (h *SyncHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Warn(msg, zap.String("user_id", c.Param("userID")), zap.Error(err))
	}
	Error(c, status, err.Error())
}
