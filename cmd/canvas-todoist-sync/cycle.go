package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vipul43/canvas-todoist-sync/internal/models"
	"github.com/vipul43/canvas-todoist-sync/internal/repository"
	"github.com/vipul43/canvas-todoist-sync/internal/scheduler"
	"github.com/vipul43/canvas-todoist-sync/internal/service"
)

func fetchCmd() *cobra.Command {
	var (
		userID         string
		lookAheadDays  int
		includeUndated bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull a user's Canvas courses and assignments into the database",
		Long: `Pull a user's Canvas courses and assignments into the database.

Look-ahead and undated handling default to the user's stored schedule.

Examples:
  canvas-todoist-sync fetch --user 6f1c...
  canvas-todoist-sync fetch --user 6f1c... --look-ahead 14 --include-undated`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			sched, err := storedSchedule(a, cmd, userID)
			if err != nil {
				return err
			}
			opts := service.FetchOptions{LookAheadDays: sched.LookAheadDays, IncludeUndated: sched.IncludeUndated}
			if cmd.Flags().Changed("look-ahead") {
				if lookAheadDays < 0 {
					return fmt.Errorf("--look-ahead must not be negative")
				}
				opts.LookAheadDays = &lookAheadDays
			}
			if cmd.Flags().Changed("include-undated") {
				opts.IncludeUndated = includeUndated
			}

			result, err := a.fetcher.RunFetchCycle(ctx, userID, opts)
			if err != nil {
				return err
			}
			printFetch(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().IntVar(&lookAheadDays, "look-ahead", 0, "only store assignments due within this many days")
	cmd.Flags().BoolVar(&includeUndated, "include-undated", false, "store assignments without a due date")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func syncCmd() *cobra.Command {
	var (
		userID    string
		courseIDs []string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push a user's stored assignments to Todoist",
		Long: `Push a user's stored assignments to Todoist.

Without --course every course linked to a Todoist project is synced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			sched, err := storedSchedule(a, cmd, userID)
			if err != nil {
				return err
			}
			if len(courseIDs) == 0 {
				courses, err := a.courses.ListByUser(ctx, userID)
				if err != nil {
					return err
				}
				for _, c := range courses {
					if c.HasProject() {
						courseIDs = append(courseIDs, c.ID)
					}
				}
			}

			result, err := a.syncer.RunSyncCycle(ctx, userID, courseIDs, sched.Buckets())
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringSliceVar(&courseIDs, "course", nil, "course ids to sync (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scheduled cycle (fetch then sync) for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.scheduler.RunNow(cmd.Context(), userID)
			printCycle(cmd.OutOrStdout(), result)
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func storedSchedule(a *app, cmd *cobra.Command, userID string) (models.SyncSchedule, error) {
	sched, err := a.schedules.GetByUser(cmd.Context(), userID)
	if errors.Is(err, repository.ErrScheduleNotFound) {
		return models.DefaultSchedule(userID), nil
	}
	if err != nil {
		return models.SyncSchedule{}, err
	}
	return *sched, nil
}

func printFetch(w io.Writer, r *service.FetchResult) {
	fmt.Fprintf(w, "Courses processed:    %d\n", r.CoursesProcessed)
	fmt.Fprintf(w, "Assignments upserted: %d\n", r.AssignmentsUpserted)
	fmt.Fprintf(w, "Purged undated:       %d\n", r.UndatedPurged)
	fmt.Fprintf(w, "Purged past due:      %d\n", r.PastDuePurged)
	if r.PendingCourses.OK() {
		fmt.Fprintf(w, "Pending courses:      %d\n", r.PendingCourses.Count)
	} else {
		fmt.Fprintf(w, "Pending courses:      unavailable (%v)\n", r.PendingCourses.Err)
	}
	for _, id := range r.FailedCourses {
		fmt.Fprintf(w, "Failed course:        %s\n", id)
	}
}

func printSync(w io.Writer, r *service.SyncResult) {
	fmt.Fprintf(w, "Run %s: %s\n", r.RunID, r.Summary())
	fmt.Fprintf(w, "  relinked %d, updated %d, cleared %d\n", r.Relinked, r.Updated, r.Cleared)
}

func printCycle(w io.Writer, r *scheduler.CycleResult) {
	if r == nil {
		return
	}
	if r.Fetch != nil {
		printFetch(w, r.Fetch)
	}
	if r.Sync != nil {
		printSync(w, r.Sync)
	}
}
