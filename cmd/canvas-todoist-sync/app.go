package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/canvas"
	"github.com/vipul43/canvas-todoist-sync/internal/config"
	"github.com/vipul43/canvas-todoist-sync/internal/database"
	"github.com/vipul43/canvas-todoist-sync/internal/logger"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
	"github.com/vipul43/canvas-todoist-sync/internal/todoist"
)

// app holds everything a command needs, wired from the environment.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	users       *repository.UserRepository
	courses     *repository.CourseRepository
	assignments *repository.AssignmentRepository
	runs        *repository.SyncRunRepository
	schedules   *repository.ScheduleRepository

	todoist   *todoist.Client
	fetcher   *service.FetchProcessor
	syncer    *service.SyncProcessor
	scheduler *scheduler.Scheduler
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Info("database connected")

	a := &app{
		cfg:         cfg,
		logger:      log,
		db:          db,
		users:       repository.NewUserRepository(db.Gorm),
		courses:     repository.NewCourseRepository(db.Gorm),
		assignments: repository.NewAssignmentRepository(db.Gorm),
		runs:        repository.NewSyncRunRepository(db.Gorm),
		schedules:   repository.NewScheduleRepository(db.Gorm),
		todoist:     todoist.NewClient(cfg.TodoistBaseURL, cfg.HTTPTimeout),
	}

	canvasClient := canvas.NewClient(cfg.CanvasBaseURL, cfg.HTTPTimeout)
	a.fetcher = service.NewFetchProcessor(a.users, a.courses, a.assignments, canvasClient, cfg.Timezone, log)
	a.syncer = service.NewSyncProcessor(a.users, a.courses, a.assignments, a.runs, a.todoist, cfg.Timezone, log)
	a.scheduler = scheduler.New(
		a.schedules,
		a.courses,
		a.fetcher,
		a.syncer,
		cfg.Timezone,
		time.Duration(cfg.PollInterval)*time.Second,
		log,
	)
	return a, nil
}

func (a *app) migrate() error {
	a.logger.Info("running database migrations")
	if err := database.RunMigrations(a.db); err != nil {
		return err
	}
	a.logger.Info("migrations completed")
	return nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
