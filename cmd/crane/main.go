package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hardhatlabs/crane/internal/config"
	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/engine"
	"github.com/hardhatlabs/crane/internal/sqlite"
	"github.com/spf13/cobra"
)

// app holds the wired dependencies shared by all subcommands.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sqlite.DB
	engine     *engine.Engine
	recomputer *engine.Recomputer
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "crane",
		Short:         "Construction schedule network and earned value engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// Run any recompute still waiting out its debounce before the
			// process exits.
			if a.recomputer != nil {
				a.recomputer.Flush()
			}
			if a.db != nil {
				a.db.Close()
			}
		},
	}

	root.AddCommand(
		newRecomputeCmd(a),
		newConflictsCmd(a),
		newLevelCmd(a),
		newEVCmd(a),
		newBaselineCmd(a),
		newDependencyCmd(a),
		newActivityCmd(a),
		newCalendarCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg

	// Logs go to stderr so stdout stays clean for command output.
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("failed to prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	if err := ensureSchema(db); err != nil {
		return err
	}

	a.engine = engine.New(engine.Deps{
		Projects:  sqlite.NewProjectRepository(db),
		Schedules: sqlite.NewScheduleRepository(db),
		Calendars: sqlite.NewCalendarRepository(db),
		Resources: sqlite.NewResourceRepository(db),
		Snapshots: sqlite.NewSnapshotRepository(db),
		Leveling:  sqlite.NewLevelingRepository(db),
		Baselines: sqlite.NewBaselineRepository(db),
	}, engine.Options{Tolerance: cfg.Engine.Tolerance}, a.logger)

	// Edits schedule a debounced recompute so a burst of mutations costs one
	// pass per project.
	a.recomputer = engine.NewRecomputer(func(ctx context.Context, projectID string) error {
		_, err := a.engine.RecomputeCriticalPath(ctx, projectID)
		return err
	}, cfg.Engine.RecomputeDebounce, a.logger)
	a.engine.OnMutation(a.recomputer.Notify)

	return nil
}

func newRecomputeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <project-id> [project-id...]",
		Short: "Run the critical path pass and commit the computed dates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return a.engine.RecomputeAll(cmd.Context(), args)
			}
			res, err := a.engine.RecomputeCriticalPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func newConflictsCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "conflicts <project-id>",
		Short: "Report over-allocated resource-days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}
			conflicts, err := a.engine.DetectResourceConflicts(cmd.Context(), args[0], rng)
			if err != nil {
				return err
			}
			return printJSON(conflicts)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start of the scan range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end of the scan range (YYYY-MM-DD)")
	return cmd
}

func newLevelCmd(a *app) *cobra.Command {
	var apply bool
	var tolerance int
	var from, to string

	cmd := &cobra.Command{
		Use:   "level <project-id>",
		Short: "Run resource leveling (dry-run unless --apply)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}
			mode := resource.ModeDryRun
			if apply {
				mode = resource.ModeApply
			}
			session, err := a.engine.LevelResources(cmd.Context(), args[0], resource.Settings{
				Tolerance: tolerance,
				Range:     rng,
			}, mode)
			if err != nil {
				return err
			}
			return printJSON(session)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "commit the proposed delays")
	cmd.Flags().IntVar(&tolerance, "tolerance", 0, "near-critical tolerance in working days")
	cmd.Flags().StringVar(&from, "from", "", "start of the leveling range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end of the leveling range (YYYY-MM-DD)")
	return cmd
}

func newEVCmd(a *app) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "ev <project-id>",
		Short: "Calculate and record an earned value snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDate := time.Now().UTC()
			if dateStr != "" {
				var err error
				dataDate, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			snap, err := a.engine.CalculateEarnedValue(cmd.Context(), args[0], dataDate)
			if err != nil {
				return err
			}
			return printJSON(snap)
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "data date (YYYY-MM-DD, default today)")
	return cmd
}

func newBaselineCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage plan baselines",
	}

	create := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Snapshot the current plan as a new baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.engine.CreateBaseline(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			return printJSON(b)
		},
	}
	create.Flags().StringVar(&name, "name", "", "baseline name")

	activate := &cobra.Command{
		Use:   "activate <project-id> <baseline-id>",
		Short: "Mark a baseline as the project's active one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.ActivateBaseline(cmd.Context(), args[0], args[1])
		},
	}

	variance := &cobra.Command{
		Use:   "variance <project-id> <baseline-id>",
		Short: "Compare the current plan against a baseline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.engine.VarianceReport(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.AddCommand(create, activate, variance)
	return cmd
}

func newDependencyCmd(a *app) *cobra.Command {
	var depType string
	var lagValue float64
	var lagUnit string

	cmd := &cobra.Command{
		Use:   "dependency",
		Short: "Manage activity dependencies",
	}

	add := &cobra.Command{
		Use:   "add <project-id> <predecessor-id> <successor-id>",
		Short: "Add a dependency between two activities",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.AddDependency(cmd.Context(), args[0], network.Dependency{
				PredecessorID: args[1],
				SuccessorID:   args[2],
				Type:          network.DependencyType(depType),
				Lag:           network.Lag{Value: lagValue, Unit: network.LagUnit(lagUnit)},
			})
		},
	}
	add.Flags().StringVar(&depType, "type", string(network.FinishToStart), "dependency type (FS, SS, FF, SF)")
	add.Flags().Float64Var(&lagValue, "lag", 0, "lag value (negative for a lead)")
	add.Flags().StringVar(&lagUnit, "lag-unit", string(network.LagDays), "lag unit (days, percent, hours)")

	remove := &cobra.Command{
		Use:   "remove <project-id> <predecessor-id> <successor-id>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.RemoveDependency(cmd.Context(), args[0], args[1], args[2])
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func newActivityCmd(a *app) *cobra.Command {
	var percent, actualCost, actualHours float64

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
	}

	progress := &cobra.Command{
		Use:   "progress <project-id> <activity-id>",
		Short: "Record reported progress and actuals on an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.UpdateProgress(cmd.Context(), args[0], args[1], percent, actualCost, actualHours)
		},
	}
	progress.Flags().Float64Var(&percent, "percent", 0, "percent complete (0-100)")
	progress.Flags().Float64Var(&actualCost, "actual-cost", 0, "actual cost to date")
	progress.Flags().Float64Var(&actualHours, "actual-hours", 0, "actual labor hours to date")

	cmd.AddCommand(progress)
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	var name string
	var hours float64

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage working calendars",
	}

	set := &cobra.Command{
		Use:   "set <project-id> <calendar-id>",
		Short: "Create or replace a Monday-to-Friday calendar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal := calendar.StandardWeek(args[1], name, hours, nil)
			return a.engine.SaveCalendar(cmd.Context(), args[0], cal)
		},
	}
	set.Flags().StringVar(&name, "name", "Standard", "calendar name")
	set.Flags().Float64Var(&hours, "hours", 8, "working hours per weekday")

	cmd.AddCommand(set)
	return cmd
}

func parseRange(from, to string) (resource.DateRange, error) {
	var rng resource.DateRange
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return rng, fmt.Errorf("invalid --from: %w", err)
		}
		rng.Start = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return rng, fmt.Errorf("invalid --to: %w", err)
		}
		rng.End = t
	}
	return rng, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// ensureSchema runs migrations on a fresh database.
func ensureSchema(db *sqlite.DB) error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='projects'").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if count == 0 {
		return db.RunMigrations()
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
