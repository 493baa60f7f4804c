package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/baseline"
	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/project"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/hardhatlabs/crane/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Deps are the persistence collaborators the engine computes against. The
// engine itself performs no network I/O.
type Deps struct {
	Projects  project.Repository
	Schedules repository.ScheduleRepository
	Calendars repository.CalendarRepository
	Resources repository.ResourceRepository
	Snapshots repository.SnapshotRepository
	Leveling  repository.LevelingRepository
	Baselines baseline.Repository
}

// Options tune the engine's computations.
type Options struct {
	// Tolerance widens criticality for near-critical reporting, in working
	// days.
	Tolerance int
}

// Engine exposes the scheduling computations over one or more projects.
// Within a project, writers are serialized by a per-project lock so no pass
// ever observes a half-updated graph; across projects, operations are fully
// independent.
type Engine struct {
	deps   Deps
	opts   Options
	logger *slog.Logger

	notify func(Mutation)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine.
func New(deps Deps, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deps:   deps,
		opts:   opts,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// OnMutation registers the consumer of committed-mutation events, normally a
// Recomputer.
func (e *Engine) OnMutation(fn func(Mutation)) {
	e.notify = fn
}

func (e *Engine) emit(m Mutation) {
	if e.notify != nil {
		e.notify(m)
	}
}

// projectLock returns the single-writer lock for a project.
func (e *Engine) projectLock(projectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[projectID] = l
	}
	return l
}

// state is one project's scheduling inputs loaded from the collaborators.
type state struct {
	proj *project.Project
	net  *network.Network
	cals calendar.Set
}

func (e *Engine) loadState(ctx context.Context, projectID string) (*state, error) {
	proj, err := e.deps.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	net, err := e.deps.Schedules.LoadNetwork(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading network %s: %w", projectID, err)
	}
	cals, err := e.deps.Calendars.LoadSet(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading calendars %s: %w", projectID, err)
	}
	return &state{proj: proj, net: net, cals: cals}, nil
}

func (e *Engine) scheduleOptions(proj *project.Project) schedule.Options {
	return schedule.Options{
		ProjectStart: proj.StartDate,
		TargetFinish: proj.TargetFinish,
		Tolerance:    e.opts.Tolerance,
	}
}

// RecomputeCriticalPath runs a full pass and commits the computed dates.
// The pass writes nothing until it has succeeded as a whole, so a failure
// leaves the previously committed state intact.
func (e *Engine) RecomputeCriticalPath(ctx context.Context, projectID string) (*schedule.Result, error) {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res, err := schedule.NewCalculator(st.cals, e.logger).Compute(st.net, e.scheduleOptions(st.proj))
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", projectID, err)
	}
	if err := res.Apply(st.net); err != nil {
		return nil, err
	}
	if err := e.deps.Schedules.SaveComputed(ctx, projectID, res); err != nil {
		return nil, fmt.Errorf("saving computed dates %s: %w", projectID, err)
	}
	return res, nil
}

// RecomputeAll recomputes several projects in parallel; each project still
// holds its own single-writer lock.
func (e *Engine) RecomputeAll(ctx context.Context, projectIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range projectIDs {
		id := id
		g.Go(func() error {
			_, err := e.RecomputeCriticalPath(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// DetectResourceConflicts reports over-allocated resource-days in the range.
// It computes against a fresh in-memory pass and writes nothing.
func (e *Engine) DetectResourceConflicts(ctx context.Context, projectID string, rng resource.DateRange) ([]resource.Conflict, error) {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}
	res, err := schedule.NewCalculator(st.cals, e.logger).Compute(st.net, e.scheduleOptions(st.proj))
	if err != nil {
		return nil, err
	}
	if err := res.Apply(st.net); err != nil {
		return nil, err
	}

	resources, err := e.deps.Resources.Resources(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading resources %s: %w", projectID, err)
	}
	assignments, err := e.deps.Resources.Assignments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading assignments %s: %w", projectID, err)
	}

	return resource.NewLedger(st.cals, e.logger).Conflicts(st.net, resources, assignments, rng)
}

// LevelResources runs a leveling pass and records the session. A dry-run
// reads a consistent snapshot and writes only the session record; apply mode
// additionally commits the proposed delays under the project lock.
func (e *Engine) LevelResources(ctx context.Context, projectID string, settings resource.Settings, mode resource.Mode) (*resource.Session, error) {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}
	resources, err := e.deps.Resources.Resources(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading resources %s: %w", projectID, err)
	}
	assignments, err := e.deps.Resources.Assignments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading assignments %s: %w", projectID, err)
	}

	leveler := resource.NewLeveler(st.cals, e.logger)
	session, err := leveler.Level(ctx, projectID, st.net, resources, assignments, e.scheduleOptions(st.proj), settings, mode)
	if err != nil {
		return nil, err
	}

	if err := e.deps.Leveling.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("saving leveling session: %w", err)
	}

	if mode == resource.ModeApply {
		if err := e.ApplyLeveling(ctx, projectID, session.ID); err != nil {
			return nil, err
		}
		session.Applied = true
	}
	return session, nil
}

// ApplyLeveling commits a recorded session's delays and recomputes. The
// session itself is never rewritten; only its applied marker changes.
func (e *Engine) ApplyLeveling(ctx context.Context, projectID, sessionID string) error {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.deps.Leveling.GetSession(ctx, projectID, sessionID)
	if err != nil {
		return fmt.Errorf("loading leveling session: %w", err)
	}
	if session.Applied {
		return ErrSessionApplied
	}

	delays := make(map[string]int, len(session.Changes))
	for _, c := range session.Changes {
		delays[c.ActivityID] = c.PrevDelay + c.Days
	}
	if err := e.commitDelays(ctx, projectID, delays); err != nil {
		return err
	}
	if err := e.deps.Leveling.MarkApplied(ctx, projectID, sessionID, true); err != nil {
		return fmt.Errorf("marking session applied: %w", err)
	}
	return nil
}

// RevertLeveling restores the delays each activity had before the session.
func (e *Engine) RevertLeveling(ctx context.Context, projectID, sessionID string) error {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.deps.Leveling.GetSession(ctx, projectID, sessionID)
	if err != nil {
		return fmt.Errorf("loading leveling session: %w", err)
	}
	if !session.Applied {
		return ErrSessionNotApplied
	}

	delays := make(map[string]int, len(session.Changes))
	for _, c := range session.Changes {
		delays[c.ActivityID] = c.PrevDelay
	}
	if err := e.commitDelays(ctx, projectID, delays); err != nil {
		return err
	}
	if err := e.deps.Leveling.MarkApplied(ctx, projectID, sessionID, false); err != nil {
		return fmt.Errorf("marking session reverted: %w", err)
	}
	return nil
}

// commitDelays writes leveling delays and the recomputed dates they imply.
// Callers hold the project lock.
func (e *Engine) commitDelays(ctx context.Context, projectID string, delays map[string]int) error {
	if err := e.deps.Schedules.SaveLevelingDelays(ctx, projectID, delays); err != nil {
		return fmt.Errorf("saving leveling delays: %w", err)
	}

	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return err
	}
	res, err := schedule.NewCalculator(st.cals, e.logger).Compute(st.net, e.scheduleOptions(st.proj))
	if err != nil {
		return fmt.Errorf("recompute after leveling: %w", err)
	}
	if err := res.Apply(st.net); err != nil {
		return err
	}
	if err := e.deps.Schedules.SaveComputed(ctx, projectID, res); err != nil {
		return fmt.Errorf("saving computed dates: %w", err)
	}
	return nil
}

// CalculateEarnedValue produces and records an immutable snapshot as of the
// data date.
func (e *Engine) CalculateEarnedValue(ctx context.Context, projectID string, dataDate time.Time) (*earnedvalue.Snapshot, error) {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}

	snap, err := earnedvalue.NewCalculator(st.cals, e.logger).Calculate(st.net, projectID, dataDate)
	if err != nil {
		return nil, err
	}
	if err := e.deps.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	return snap, nil
}

// CreateBaseline snapshots the current plan under a new baseline number.
func (e *Engine) CreateBaseline(ctx context.Context, projectID, name string) (*baseline.Baseline, error) {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return baseline.NewManager(e.deps.Baselines, st.cals, e.logger).Create(ctx, projectID, name, st.net)
}

// ActivateBaseline marks a baseline as the project's single active one.
func (e *Engine) ActivateBaseline(ctx context.Context, projectID, baselineID string) error {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return err
	}
	return baseline.NewManager(e.deps.Baselines, st.cals, e.logger).Activate(ctx, projectID, baselineID)
}

// VarianceReport compares the current plan against a baseline.
func (e *Engine) VarianceReport(ctx context.Context, projectID, baselineID string) (*baseline.VarianceReport, error) {
	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return baseline.NewManager(e.deps.Baselines, st.cals, e.logger).Variance(ctx, projectID, baselineID, st.net)
}

// AddDependency validates and commits a dependency, then emits the mutation
// event that drives the debounced recompute.
func (e *Engine) AddDependency(ctx context.Context, projectID string, dep network.Dependency) error {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return err
	}
	if err := st.net.AddDependency(dep.PredecessorID, dep.SuccessorID, dep.Type, dep.Lag); err != nil {
		return err
	}
	if err := e.deps.Schedules.SaveDependency(ctx, projectID, dep); err != nil {
		return fmt.Errorf("saving dependency: %w", err)
	}

	e.emit(DependencyAdded{ProjectID: projectID, PredecessorID: dep.PredecessorID, SuccessorID: dep.SuccessorID})
	return nil
}

// RemoveDependency commits a dependency deletion and emits its event.
func (e *Engine) RemoveDependency(ctx context.Context, projectID, predID, succID string) error {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return err
	}
	if err := st.net.RemoveDependency(predID, succID); err != nil {
		return err
	}
	if err := e.deps.Schedules.DeleteDependency(ctx, projectID, predID, succID); err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}

	e.emit(DependencyRemoved{ProjectID: projectID, PredecessorID: predID, SuccessorID: succID})
	return nil
}

// SaveActivity commits an activity edit and emits its event.
func (e *Engine) SaveActivity(ctx context.Context, projectID string, a *network.Activity) error {
	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.deps.Schedules.SaveActivity(ctx, projectID, a); err != nil {
		return fmt.Errorf("saving activity: %w", err)
	}

	e.emit(ActivityChanged{ProjectID: projectID, ActivityID: a.ID})
	return nil
}

// UpdateProgress records reported progress and actuals on an activity and
// emits its event.
func (e *Engine) UpdateProgress(ctx context.Context, projectID, activityID string, percent, actualCost, actualHours float64) error {
	if percent < 0 || percent > 100 {
		return network.ErrInvalidInput
	}

	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.loadState(ctx, projectID)
	if err != nil {
		return err
	}
	act, err := st.net.Activity(activityID)
	if err != nil {
		return err
	}
	act.PercentComplete = percent
	act.ActualCost = actualCost
	act.ActualHours = actualHours

	if err := e.deps.Schedules.SaveActivity(ctx, projectID, act); err != nil {
		return fmt.Errorf("saving activity: %w", err)
	}

	e.emit(ActivityChanged{ProjectID: projectID, ActivityID: activityID})
	return nil
}

// SaveCalendar validates and commits a calendar edit and emits its event.
func (e *Engine) SaveCalendar(ctx context.Context, projectID string, cal *calendar.Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	lock := e.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.deps.Calendars.Save(ctx, projectID, cal); err != nil {
		return fmt.Errorf("saving calendar: %w", err)
	}

	e.emit(CalendarChanged{ProjectID: projectID, CalendarID: cal.ID})
	return nil
}
