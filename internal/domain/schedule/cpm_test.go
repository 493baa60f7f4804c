package schedule_test

import (
	"testing"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCalendars(exceptions ...calendar.Exception) calendar.Set {
	set := calendar.Set{}
	set.Add(calendar.StandardWeek("cal1", "Standard", 8, exceptions))
	return set
}

func addActivity(t *testing.T, n *network.Network, id string, duration int) {
	t.Helper()
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: id, Name: id, Duration: duration, CalendarID: "cal1", DelayAllowed: true,
	}))
}

func compute(t *testing.T, n *network.Network, cals calendar.Set, opts schedule.Options) *schedule.Result {
	t.Helper()
	calc := schedule.NewCalculator(cals, nil)
	res, err := calc.Compute(n, opts)
	require.NoError(t, err)
	return res
}

// Monday June 30 2025 is the reference project start; July 4 2025 is a Friday.
var projectStart = date(2025, time.June, 30)

func TestCompute_SingleActivity(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 3)

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	d := res.Dates["a"]
	require.Equal(t, date(2025, time.June, 30), d.EarlyStart)
	require.Equal(t, date(2025, time.July, 2), d.EarlyFinish)
	require.Equal(t, d.EarlyStart, d.LateStart)
	require.Equal(t, 0, d.TotalFloat)
	require.True(t, d.Critical)
	require.Equal(t, []string{"a"}, res.CriticalPath)
}

func TestCompute_FinishToStartWithLagSkipsHoliday(t *testing.T) {
	// Activity A runs Tue Jul 1 - Wed Jul 2. A 1-day lag lands on Thu Jul 3,
	// then Fri Jul 4 (holiday) and the weekend are skipped, so B starts
	// Mon Jul 7.
	cals := testCalendars(calendar.Exception{Date: date(2025, time.July, 4)})
	n := network.New()
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "a", Duration: 2, CalendarID: "cal1",
		Constraint:     network.ConstraintStartNoEarlier,
		ConstraintDate: timePtr(date(2025, time.July, 1)),
	}))
	addActivity(t, n, "b", 2)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{Value: 1, Unit: network.LagDays}))

	res := compute(t, n, cals, schedule.Options{ProjectStart: projectStart})

	require.Equal(t, date(2025, time.July, 2), res.Dates["a"].EarlyFinish)
	require.Equal(t, date(2025, time.July, 7), res.Dates["b"].EarlyStart)
}

func TestCompute_StartToStart(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 5)
	addActivity(t, n, "b", 2)
	require.NoError(t, n.AddDependency("a", "b", network.StartToStart, network.Lag{Value: 2, Unit: network.LagDays}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	// b starts 2 working days after a's start: Mon Jun 30 -> Wed Jul 2.
	require.Equal(t, date(2025, time.July, 2), res.Dates["b"].EarlyStart)
}

func TestCompute_FinishToFinish(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 5) // Jun 30 .. Jul 4
	addActivity(t, n, "b", 2)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToFinish, network.Lag{}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	require.Equal(t, res.Dates["a"].EarlyFinish, res.Dates["b"].EarlyFinish)
	require.Equal(t, date(2025, time.July, 3), res.Dates["b"].EarlyStart)
}

func TestCompute_PercentLag(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 10)
	addActivity(t, n, "b", 1)
	// 50% of a 10-day predecessor is a 5 working-day lag.
	require.NoError(t, n.AddDependency("a", "b", network.StartToStart, network.Lag{Value: 50, Unit: network.LagPercent}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	require.Equal(t, date(2025, time.July, 7), res.Dates["b"].EarlyStart)
}

func TestCompute_FloatOnParallelBranch(t *testing.T) {
	// a(1) -> b(5) -> d(1) is critical; a -> c(2) -> d floats 3 days.
	n := network.New()
	addActivity(t, n, "a", 1)
	addActivity(t, n, "b", 5)
	addActivity(t, n, "c", 2)
	addActivity(t, n, "d", 1)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))
	require.NoError(t, n.AddDependency("a", "c", network.FinishToStart, network.Lag{}))
	require.NoError(t, n.AddDependency("b", "d", network.FinishToStart, network.Lag{}))
	require.NoError(t, n.AddDependency("c", "d", network.FinishToStart, network.Lag{}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	require.Equal(t, []string{"a", "b", "d"}, res.CriticalPath)
	require.Equal(t, 0, res.Dates["b"].TotalFloat)
	require.Equal(t, 3, res.Dates["c"].TotalFloat)
	require.Equal(t, 3, res.Dates["c"].FreeFloat)
	require.False(t, res.Dates["c"].Critical)
}

func TestCompute_CriticalChainSpansProject(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 2)
	addActivity(t, n, "b", 3)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))

	cals := testCalendars()
	res := compute(t, n, cals, schedule.Options{ProjectStart: projectStart})

	cal, err := cals.Get("cal1")
	require.NoError(t, err)
	span := cal.CountWorkingDays(res.ProjectStart.AddDate(0, 0, -1), res.ProjectFinish)
	require.Equal(t, 5, span)
	require.Equal(t, []string{"a", "b"}, res.CriticalPath)
}

func TestCompute_NearCriticalTolerance(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 5)
	addActivity(t, n, "b", 4)

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart, Tolerance: 1})

	// b finishes one working day before the project and floats 1 day, within
	// tolerance.
	require.Equal(t, 1, res.Dates["b"].TotalFloat)
	require.True(t, res.Dates["b"].Critical)
}

func TestCompute_TargetFinishAddsFloat(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 3) // finishes Wed Jul 2

	// Finishing Wed Jul 2 against a Wed Jul 9 target leaves five working
	// days of slip: Jul 3, 4, 7, 8, 9.
	target := date(2025, time.July, 9)
	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart, TargetFinish: &target})

	require.Equal(t, 5, res.Dates["a"].TotalFloat)
	require.False(t, res.Dates["a"].Critical)
}

func TestCompute_MustStartOnConflict(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 5) // finishes Fri Jul 4
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "b", Duration: 2, CalendarID: "cal1",
		Constraint:     network.ConstraintMustStartOn,
		ConstraintDate: timePtr(date(2025, time.July, 2)),
	}))
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	// The hard constraint wins over the dependency-implied Mon Jul 7 start,
	// and the activity is flagged rather than rejected.
	d := res.Dates["b"]
	require.Equal(t, date(2025, time.July, 2), d.EarlyStart)
	require.True(t, d.ConstraintConflict)
	require.Contains(t, res.ConstraintConflicts, "b")
}

func TestCompute_StartNoEarlierDelaysActivity(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddActivity(&network.Activity{
		ID: "a", Duration: 2, CalendarID: "cal1",
		Constraint:     network.ConstraintStartNoEarlier,
		ConstraintDate: timePtr(date(2025, time.July, 9)),
	}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	require.Equal(t, date(2025, time.July, 9), res.Dates["a"].EarlyStart)
	require.False(t, res.Dates["a"].ConstraintConflict)
}

func TestCompute_Milestone(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 3)
	addActivity(t, n, "done", 0)
	require.NoError(t, n.AddDependency("a", "done", network.FinishToStart, network.Lag{}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})

	d := res.Dates["done"]
	require.Equal(t, d.EarlyStart, d.EarlyFinish)
	require.Equal(t, date(2025, time.July, 3), d.EarlyStart)
}

func TestCompute_CycleFromRebuiltNetwork(t *testing.T) {
	// AddDependency rejects cycles at insert time; TopoSort still guards
	// networks rebuilt from storage. Simulate by removing and re-adding in a
	// way the insert check allows, then force the cycle directly.
	n := network.New()
	addActivity(t, n, "a", 1)
	addActivity(t, n, "b", 1)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))
	err := n.AddDependency("b", "a", network.FinishToStart, network.Lag{})
	require.ErrorIs(t, err, network.ErrCycle)

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})
	require.Len(t, res.Order, 2)
}

func TestResult_ApplyCommitsComputedFields(t *testing.T) {
	n := network.New()
	addActivity(t, n, "a", 2)
	addActivity(t, n, "b", 2)
	require.NoError(t, n.AddDependency("a", "b", network.FinishToStart, network.Lag{}))

	res := compute(t, n, testCalendars(), schedule.Options{ProjectStart: projectStart})
	require.NoError(t, res.Apply(n))

	a, err := n.Activity("a")
	require.NoError(t, err)
	require.Equal(t, res.Dates["a"].EarlyStart, a.Computed.EarlyStart)
	require.True(t, a.Computed.Critical)
}

func timePtr(t time.Time) *time.Time { return &t }
