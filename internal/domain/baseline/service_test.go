package baseline_test

import (
	"context"
	"testing"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/baseline"
	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/repository"
	"github.com/hardhatlabs/crane/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCalendars() calendar.Set {
	set := calendar.Set{}
	set.Add(calendar.StandardWeek("cal1", "Standard", 8, nil))
	return set
}

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	n := network.New()
	require.NoError(t, n.AddActivity(&network.Activity{
		ID:            "a",
		Name:          "Excavation",
		PlannedStart:  date(2025, time.June, 30),
		PlannedFinish: date(2025, time.July, 4),
		Duration:      5,
		BudgetedCost:  20000,
		BudgetedHours: 200,
		CalendarID:    "cal1",
	}))
	return n
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BaselineRepository{}
	repo.On("NextNumber", ctx, "proj1").Return(3, nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	mgr := baseline.NewManager(repo, testCalendars(), nil)
	b, err := mgr.Create(ctx, "proj1", "pre-monsoon plan", testNetwork(t))
	require.NoError(t, err)
	require.Equal(t, 3, b.Number)
	require.Len(t, b.Activities, 1)
	require.Equal(t, 20000.0, b.Activities[0].BudgetedCost)
	require.False(t, b.Active)
}

func TestManager_Create_EmptyName(t *testing.T) {
	mgr := baseline.NewManager(&mocks.BaselineRepository{}, testCalendars(), nil)
	_, err := mgr.Create(context.Background(), "proj1", "  ", testNetwork(t))
	require.ErrorIs(t, err, baseline.ErrInvalidInput)
}

func TestManager_Activate_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BaselineRepository{}
	repo.On("Get", ctx, "proj1", "missing").Return(nil, repository.ErrNotFound)

	mgr := baseline.NewManager(repo, testCalendars(), nil)
	err := mgr.Activate(ctx, "proj1", "missing")
	require.ErrorIs(t, err, baseline.ErrBaselineNotFound)
}

func TestManager_Activate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BaselineRepository{}
	repo.On("Get", ctx, "proj1", "b1").Return(&baseline.Baseline{ID: "b1", ProjectID: "proj1"}, nil)
	repo.On("SetActive", ctx, "proj1", "b1").Return(nil)

	mgr := baseline.NewManager(repo, testCalendars(), nil)
	require.NoError(t, mgr.Activate(ctx, "proj1", "b1"))
	repo.AssertCalled(t, "SetActive", ctx, "proj1", "b1")
}

func TestManager_Variance(t *testing.T) {
	ctx := context.Background()
	captured := &baseline.Baseline{
		ID:        "b1",
		ProjectID: "proj1",
		Number:    1,
		Activities: []baseline.ActivityBaseline{
			{
				ActivityID:    "a",
				PlannedStart:  date(2025, time.June, 30),
				PlannedFinish: date(2025, time.July, 4),
				Duration:      5,
				BudgetedCost:  18000,
				BudgetedHours: 180,
			},
			{
				ActivityID:   "gone",
				PlannedStart: date(2025, time.June, 30),
			},
		},
	}
	repo := &mocks.BaselineRepository{}
	repo.On("Get", ctx, "proj1", "b1").Return(captured, nil)

	n := testNetwork(t)
	// Slip the plan by two working days: Jul 2 .. Jul 8.
	a, err := n.Activity("a")
	require.NoError(t, err)
	a.PlannedStart = date(2025, time.July, 2)
	a.PlannedFinish = date(2025, time.July, 8)
	require.NoError(t, n.AddActivity(&network.Activity{ID: "new", Duration: 1, CalendarID: "cal1"}))

	mgr := baseline.NewManager(repo, testCalendars(), nil)
	report, err := mgr.Variance(ctx, "proj1", "b1", n)
	require.NoError(t, err)

	require.Len(t, report.Activities, 2)
	require.Equal(t, 2, report.Activities[0].StartVarianceDays)
	require.Equal(t, 2, report.Activities[0].FinishVarianceDays)
	require.InDelta(t, 2000, report.Activities[0].CostVariance, 1e-9)
	require.InDelta(t, 20, report.Activities[0].HoursVariance, 1e-9)
	require.True(t, report.Activities[1].Removed)
	require.Equal(t, []string{"new"}, report.NewActivities)
	require.InDelta(t, 2000, report.TotalCostVariance, 1e-9)
}

func TestManager_Variance_UsesActualDates(t *testing.T) {
	ctx := context.Background()
	captured := &baseline.Baseline{
		ID:        "b1",
		ProjectID: "proj1",
		Activities: []baseline.ActivityBaseline{
			{
				ActivityID:    "a",
				PlannedStart:  date(2025, time.June, 30),
				PlannedFinish: date(2025, time.July, 4),
				BudgetedCost:  20000,
				BudgetedHours: 200,
			},
		},
	}
	repo := &mocks.BaselineRepository{}
	repo.On("Get", ctx, "proj1", "b1").Return(captured, nil)

	n := testNetwork(t)
	a, err := n.Activity("a")
	require.NoError(t, err)
	started := date(2025, time.July, 1)
	a.ActualStart = &started

	mgr := baseline.NewManager(repo, testCalendars(), nil)
	report, err := mgr.Variance(ctx, "proj1", "b1", n)
	require.NoError(t, err)
	require.Equal(t, 1, report.Activities[0].StartVarianceDays)
	require.Equal(t, 0, report.Activities[0].FinishVarianceDays)
}
