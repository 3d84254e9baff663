package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
)

var ErrCycleInProgress = errors.New("a cycle is already running for this user")

type ScheduleRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.SyncSchedule, error)
	ListEnabled(ctx context.Context) ([]models.SyncSchedule, error)
}

type CourseRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
}

type Fetcher interface {
	RunFetchCycle(ctx context.Context, userID string, opts service.FetchOptions) (*service.FetchResult, error)
}

type Syncer interface {
	RunSyncCycle(ctx context.Context, userID string, courseIDs []string, cfg priority.BucketConfig) (*service.SyncResult, error)
}

// CycleResult holds the outcome of one fetch-then-sync cycle. Either half may
// be nil when it did not run.
type CycleResult struct {
	Fetch *service.FetchResult
	Sync  *service.SyncResult
}

type entry struct {
	id   cron.EntryID
	spec string
}

// Scheduler runs each enabled user's cycle on that user's cron spec and keeps
// the set of cron entries in step with the stored schedules.
type Scheduler struct {
	schedules      ScheduleRepository
	courses        CourseRepository
	fetcher        Fetcher
	syncer         Syncer
	reloadInterval time.Duration
	logger         *zap.Logger
	cron           *cron.Cron

	mu       sync.Mutex
	entries  map[string]entry // by user id
	inFlight map[string]bool
}

func New(
	schedules ScheduleRepository,
	courses CourseRepository,
	fetcher Fetcher,
	syncer Syncer,
	loc *time.Location,
	reloadInterval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		schedules:      schedules,
		courses:        courses,
		fetcher:        fetcher,
		syncer:         syncer,
		reloadInterval: reloadInterval,
		logger:         logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries:  make(map[string]entry),
		inFlight: make(map[string]bool),
	}
}

// Start loads the schedules, starts the cron runner and reloads on every tick
// until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting scheduler", zap.Duration("reload_interval", s.reloadInterval))

	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("failed to load schedules on startup", zap.Error(err))
	}
	s.cron.Start()

	ticker := time.NewTicker(s.reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			<-s.cron.Stop().Done()
			return ctx.Err()
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("failed to reload schedules", zap.Error(err))
			}
		}
	}
}

// Reload adds, replaces and removes cron entries so that exactly the enabled
// schedules are registered. Jobs run with ctx.
func (s *Scheduler) Reload(ctx context.Context) error {
	schedules, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(schedules))
	for _, sched := range schedules {
		wanted[sched.UserID] = true

		if current, ok := s.entries[sched.UserID]; ok {
			if current.spec == sched.CronSpec {
				continue
			}
			s.cron.Remove(current.id)
			delete(s.entries, sched.UserID)
		}

		userID := sched.UserID
		id, err := s.cron.AddFunc(sched.CronSpec, func() {
			if _, err := s.RunNow(ctx, userID); err != nil {
				s.logger.Error("scheduled cycle failed", zap.String("user_id", userID), zap.Error(err))
			}
		})
		if err != nil {
			s.logger.Warn("invalid cron spec, schedule ignored",
				zap.String("user_id", userID), zap.String("cron_spec", sched.CronSpec), zap.Error(err))
			continue
		}
		s.entries[userID] = entry{id: id, spec: sched.CronSpec}
	}

	for userID, e := range s.entries {
		if !wanted[userID] {
			s.cron.Remove(e.id)
			delete(s.entries, userID)
		}
	}
	return nil
}

// Scheduled returns the users with a registered cron entry, sorted.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.entries))
	for userID := range s.entries {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Exclusive runs fn unless another cycle for the user is in flight, in which
// case it returns ErrCycleInProgress.
func (s *Scheduler) Exclusive(userID string, fn func() error) error {
	s.mu.Lock()
	if s.inFlight[userID] {
		s.mu.Unlock()
		return ErrCycleInProgress
	}
	s.inFlight[userID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, userID)
		s.mu.Unlock()
	}()
	return fn()
}

// RunNow runs one cycle for the user with the stored schedule, or the default
// one if none exists. A fetch failure is reported but the sync still runs on
// what is already stored.
func (s *Scheduler) RunNow(ctx context.Context, userID string) (*CycleResult, error) {
	var result *CycleResult
	err := s.Exclusive(userID, func() error {
		var err error
		result, err = s.runCycle(ctx, userID)
		return err
	})
	return result, err
}

func (s *Scheduler) runCycle(ctx context.Context, userID string) (*CycleResult, error) {
	sched, err := s.scheduleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("user_id", userID))
	result := &CycleResult{}

	fetched, fetchErr := s.fetcher.RunFetchCycle(ctx, userID, service.FetchOptions{
		LookAheadDays:  sched.LookAheadDays,
		IncludeUndated: sched.IncludeUndated,
	})
	if fetchErr != nil {
		log.Warn("fetch failed, syncing stored assignments", zap.Error(fetchErr))
		fetchErr = fmt.Errorf("fetch: %w", fetchErr)
	}
	result.Fetch = fetched

	courseIDs, err := s.linkedCourses(ctx, userID)
	if err != nil {
		return result, errors.Join(fetchErr, err)
	}

	synced, syncErr := s.syncer.RunSyncCycle(ctx, userID, courseIDs, sched.Buckets())
	if syncErr != nil {
		syncErr = fmt.Errorf("sync: %w", syncErr)
	}
	result.Sync = synced

	return result, errors.Join(fetchErr, syncErr)
}

func (s *Scheduler) scheduleFor(ctx context.Context, userID string) (models.SyncSchedule, error) {
	sched, err := s.schedules.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrScheduleNotFound) {
		return models.DefaultSchedule(userID), nil
	}
	if err != nil {
		return models.SyncSchedule{}, err
	}
	return *sched, nil
}

func (s *Scheduler) linkedCourses(ctx context.Context, userID string) ([]string, error) {
	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.HasProject() {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}
