package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/project"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/hardhatlabs/crane/internal/engine"
	"github.com/hardhatlabs/crane/internal/repository"
	"github.com/hardhatlabs/crane/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	projects  *mocks.ProjectRepository
	schedules *mocks.ScheduleRepository
	calendars *mocks.CalendarRepository
	resources *mocks.ResourceRepository
	snapshots *mocks.SnapshotRepository
	leveling  *mocks.LevelingRepository
	baselines *mocks.BaselineRepository
	engine    *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		projects:  &mocks.ProjectRepository{},
		schedules: &mocks.ScheduleRepository{},
		calendars: &mocks.CalendarRepository{},
		resources: &mocks.ResourceRepository{},
		snapshots: &mocks.SnapshotRepository{},
		leveling:  &mocks.LevelingRepository{},
		baselines: &mocks.BaselineRepository{},
	}
	f.engine = engine.New(engine.Deps{
		Projects:  f.projects,
		Schedules: f.schedules,
		Calendars: f.calendars,
		Resources: f.resources,
		Snapshots: f.snapshots,
		Leveling:  f.leveling,
		Baselines: f.baselines,
	}, engine.Options{}, nil)
	return f
}

// expectState wires the mocks so loading a project returns a two-activity
// chain a -> b on a standard calendar, starting Monday June 30 2025.
func (f *fixture) expectState(t *testing.T, projectID string) *network.Network {
	t.Helper()

	n := network.New()
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "a", Name: "a", Duration: 2, CalendarID: "cal1", DelayAllowed: true,
		PercentComplete: 50, BudgetedCost: 1000, ActualCost: 600,
	}))
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "b", Name: "b", Duration: 3, CalendarID: "cal1", DelayAllowed: true,
		BudgetedCost: 3000,
	}))
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))

	set := calendar.Set{}
	set.Add(calendar.StandardWeek("cal1", "Standard", 8, nil))

	f.projects.On("Get", mock.Anything, projectID).Return(&project.Project{
		ID:        projectID,
		StartDate: date(2025, time.June, 30),
	}, nil)
	f.schedules.On("LoadNetwork", mock.Anything, projectID).Return(n, nil)
	f.calendars.On("LoadSet", mock.Anything, projectID).Return(set, nil)
	return n
}

func TestRecomputeCriticalPath(t *testing.T) {
	f := newFixture(t)
	n := f.expectState(t, "proj1")

	var saved *schedule.Result
	f.schedules.On("SaveComputed", mock.Anything, "proj1", mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).(*schedule.Result) }).
		Return(nil)

	res, err := f.engine.RecomputeCriticalPath(context.Background(), "proj1")
	require.NoError(t, err)
	require.Same(t, saved, res)

	require.Equal(t, []string{"a", "b"}, res.CriticalPath)
	require.Equal(t, date(2025, time.July, 2), res.Dates["b"].EarlyStart)
	require.Equal(t, date(2025, time.July, 4), res.ProjectFinish)

	// The computed block was committed to the loaded network too.
	a, err := n.Activity("a")
	require.NoError(t, err)
	require.True(t, a.Computed.Critical)
}

func TestRecomputeCriticalPath_LoadError(t *testing.T) {
	f := newFixture(t)
	f.projects.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	_, err := f.engine.RecomputeCriticalPath(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	f.schedules.AssertNotCalled(t, "SaveComputed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.expectState(t, "proj2")
	f.schedules.On("SaveComputed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.engine.RecomputeAll(context.Background(), []string{"proj1", "proj2"}))
	f.schedules.AssertNumberOfCalls(t, "SaveComputed", 2)
}

func TestAddDependency_RejectsCycle(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")

	err := f.engine.AddDependency(context.Background(), "proj1", network.Dependency{
		PredecessorID: "b", SuccessorID: "a", Type: network.FinishToStart,
	})
	require.ErrorIs(t, err, network.ErrCycle)
	f.schedules.AssertNotCalled(t, "SaveDependency", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddDependency_EmitsMutation(t *testing.T) {
	f := newFixture(t)
	n := f.expectState(t, "proj1")
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "c", Name: "c", Duration: 1, CalendarID: "cal1", DelayAllowed: true,
	}))
	f.schedules.On("SaveDependency", mock.Anything, "proj1", mock.Anything).Return(nil)

	var got engine.Mutation
	f.engine.OnMutation(func(m engine.Mutation) { got = m })

	err := f.engine.AddDependency(context.Background(), "proj1", network.Dependency{
		PredecessorID: "b", SuccessorID: "c", Type: network.StartToStart,
	})
	require.NoError(t, err)

	added, ok := got.(engine.DependencyAdded)
	require.True(t, ok)
	require.Equal(t, "proj1", added.Project())
	require.Equal(t, "b", added.PredecessorID)
	require.Equal(t, "c", added.SuccessorID)
}

func TestCalculateEarnedValue(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.snapshots.On("SaveSnapshot", mock.Anything, mock.Anything).Return(nil)

	snap, err := f.engine.CalculateEarnedValue(context.Background(), "proj1", date(2025, time.July, 10))
	require.NoError(t, err)
	require.Equal(t, "proj1", snap.ProjectID)
	require.InDelta(t, 4000.0, snap.BAC, 1e-9)
	require.InDelta(t, 500.0, snap.EV, 1e-9)
	f.snapshots.AssertCalled(t, "SaveSnapshot", mock.Anything, snap)
}

func TestLevelResources_DryRunSavesSessionOnly(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.resources.On("Resources", mock.Anything, "proj1").Return(map[string]*resource.Resource{}, nil)
	f.resources.On("Assignments", mock.Anything, "proj1").Return([]*resource.Assignment{}, nil)
	f.leveling.On("SaveSession", mock.Anything, mock.Anything).Return(nil)

	session, err := f.engine.LevelResources(context.Background(), "proj1", resource.Settings{}, resource.ModeDryRun)
	require.NoError(t, err)
	require.False(t, session.Applied)
	require.Empty(t, session.ConflictsBefore)
	f.schedules.AssertNotCalled(t, "SaveLevelingDelays", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyLeveling(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.leveling.On("GetSession", mock.Anything, "proj1", "sess1").Return(&resource.Session{
		ID:        "sess1",
		ProjectID: "proj1",
		Changes: []resource.DateChange{
			{ActivityID: "b", Days: 2, PrevDelay: 1},
		},
	}, nil)

	var delays map[string]int
	f.schedules.On("SaveLevelingDelays", mock.Anything, "proj1", mock.Anything).
		Run(func(args mock.Arguments) { delays = args.Get(2).(map[string]int) }).
		Return(nil)
	f.schedules.On("SaveComputed", mock.Anything, "proj1", mock.Anything).Return(nil)
	f.leveling.On("MarkApplied", mock.Anything, "proj1", "sess1", true).Return(nil)

	require.NoError(t, f.engine.ApplyLeveling(context.Background(), "proj1", "sess1"))
	require.Equal(t, map[string]int{"b": 3}, delays)
	f.leveling.AssertCalled(t, "MarkApplied", mock.Anything, "proj1", "sess1", true)
}

func TestApplyLeveling_AlreadyApplied(t *testing.T) {
	f := newFixture(t)
	f.leveling.On("GetSession", mock.Anything, "proj1", "sess1").Return(&resource.Session{
		ID: "sess1", ProjectID: "proj1", Applied: true,
	}, nil)

	err := f.engine.ApplyLeveling(context.Background(), "proj1", "sess1")
	require.ErrorIs(t, err, engine.ErrSessionApplied)
	f.schedules.AssertNotCalled(t, "SaveLevelingDelays", mock.Anything, mock.Anything, mock.Anything)
}

func TestRevertLeveling(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.leveling.On("GetSession", mock.Anything, "proj1", "sess1").Return(&resource.Session{
		ID:        "sess1",
		ProjectID: "proj1",
		Applied:   true,
		Changes: []resource.DateChange{
			{ActivityID: "b", Days: 2, PrevDelay: 1},
		},
	}, nil)

	var delays map[string]int
	f.schedules.On("SaveLevelingDelays", mock.Anything, "proj1", mock.Anything).
		Run(func(args mock.Arguments) { delays = args.Get(2).(map[string]int) }).
		Return(nil)
	f.schedules.On("SaveComputed", mock.Anything, "proj1", mock.Anything).Return(nil)
	f.leveling.On("MarkApplied", mock.Anything, "proj1", "sess1", false).Return(nil)

	require.NoError(t, f.engine.RevertLeveling(context.Background(), "proj1", "sess1"))
	require.Equal(t, map[string]int{"b": 1}, delays)
}

func TestRevertLeveling_NotApplied(t *testing.T) {
	f := newFixture(t)
	f.leveling.On("GetSession", mock.Anything, "proj1", "sess1").Return(&resource.Session{
		ID: "sess1", ProjectID: "proj1",
	}, nil)

	err := f.engine.RevertLeveling(context.Background(), "proj1", "sess1")
	require.ErrorIs(t, err, engine.ErrSessionNotApplied)
}

func TestCreateBaseline(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")
	f.baselines.On("NextNumber", mock.Anything, "proj1").Return(1, nil)
	f.baselines.On("Create", mock.Anything, mock.Anything).Return(nil)

	b, err := f.engine.CreateBaseline(context.Background(), "proj1", "initial plan")
	require.NoError(t, err)
	require.Equal(t, 1, b.Number)
	require.Len(t, b.Activities, 2)
}

func TestRecomputer_Debounce(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var projects []string

	r := engine.NewRecomputer(func(_ context.Context, projectID string) error {
		calls.Add(1)
		mu.Lock()
		projects = append(projects, projectID)
		mu.Unlock()
		return nil
	}, 20*time.Millisecond, nil)
	defer r.Stop()

	for i := 0; i < 5; i++ {
		r.Notify(engine.ActivityChanged{ProjectID: "proj1", ActivityID: "a"})
	}
	r.Notify(engine.CalendarChanged{ProjectID: "proj2", CalendarID: "cal1"})

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(2), calls.Load())

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"proj1", "proj2"}, projects)
}

func TestUpdateProgress(t *testing.T) {
	f := newFixture(t)
	f.expectState(t, "proj1")

	var saved *network.Activity
	f.schedules.On("SaveActivity", mock.Anything, "proj1", mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).(*network.Activity) }).
		Return(nil)

	var got engine.Mutation
	f.engine.OnMutation(func(m engine.Mutation) { got = m })

	require.NoError(t, f.engine.UpdateProgress(context.Background(), "proj1", "b", 25, 700, 12))
	require.Equal(t, "b", saved.ID)
	require.Equal(t, 25.0, saved.PercentComplete)
	require.Equal(t, 700.0, saved.ActualCost)

	changed, ok := got.(engine.ActivityChanged)
	require.True(t, ok)
	require.Equal(t, "b", changed.ActivityID)
}

func TestUpdateProgress_InvalidPercent(t *testing.T) {
	f := newFixture(t)

	err := f.engine.UpdateProgress(context.Background(), "proj1", "a", 120, 0, 0)
	require.ErrorIs(t, err, network.ErrInvalidInput)
	f.schedules.AssertNotCalled(t, "SaveActivity", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecomputer_FlushRunsPending(t *testing.T) {
	var calls atomic.Int32
	r := engine.NewRecomputer(func(_ context.Context, _ string) error {
		calls.Add(1)
		return nil
	}, time.Hour, nil)
	defer r.Stop()

	r.Notify(engine.ActivityChanged{ProjectID: "proj1", ActivityID: "a"})
	r.Notify(engine.ActivityChanged{ProjectID: "proj2", ActivityID: "b"})

	r.Flush()
	require.Equal(t, int32(2), calls.Load())

	// Nothing left pending after a flush.
	r.Flush()
	require.Equal(t, int32(2), calls.Load())
}

func TestRecomputer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	r := engine.NewRecomputer(func(_ context.Context, _ string) error {
		calls.Add(1)
		return nil
	}, 50*time.Millisecond, nil)

	r.Notify(engine.ActivityChanged{ProjectID: "proj1", ActivityID: "a"})
	r.Stop()

	time.Sleep(120 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())
}
