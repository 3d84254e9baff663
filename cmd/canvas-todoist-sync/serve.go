package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vipul43/canvas-todoist-sync/internal/handler"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the per-user sync scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !skipMigrations {
				if err := a.migrate(); err != nil {
					return err
				}
			}
			return serve(a)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not run migrations on startup")
	return cmd
}

func serve(a *app) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	(&handler.HealthHandler{DB: a.db.Gorm}).Register(engine)
	(&handler.SyncHandler{
		Runner:    a.scheduler,
		Fetcher:   a.fetcher,
		Syncer:    a.syncer,
		Schedules: a.schedules,
		Courses:   a.courses,
		Runs:      a.runs,
		Logger:    a.logger,
	}).Register(engine)
	(&handler.SettingsHandler{
		Users:     a.users,
		Schedules: a.schedules,
		Courses:   a.courses,
		Projects:  a.todoist,
		Logger:    a.logger,
	}).Register(engine)

	srv := &http.Server{
		Addr:    a.cfg.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	schedulerDone := make(chan struct{})

	go func() {
		defer close(schedulerDone)
		if err := a.scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	go func() {
		a.logger.Info("http server starting", zap.String("addr", a.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("server error", zap.Error(runErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown failed", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		a.logger.Warn("shutdown timeout exceeded")
	case <-schedulerDone:
	}

	a.logger.Info("application stopped")
	return runErr
}
