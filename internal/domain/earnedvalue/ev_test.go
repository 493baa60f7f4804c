package earnedvalue_test

import (
	"testing"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/domain/network"
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

// tenDayActivity plans Mon Jun 30 through Fri Jul 11 2025, ten working days.
func tenDayActivity(id string, budget float64) *network.Activity {
	return &network.Activity{
		ID:            id,
		Name:          id,
		PlannedStart:  date(2025, time.June, 30),
		PlannedFinish: date(2025, time.July, 11),
		Duration:      10,
		BudgetedCost:  budget,
		CalendarID:    "cal1",
	}
}

func TestCalculate_CostOverrunScenario(t *testing.T) {
	n := network.New()
	a := tenDayActivity("a", 100000)
	a.PercentComplete = 40
	a.ActualCost = 50000
	require.NoError(t, n.AddActivity(a))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)
	snap, err := calc.Calculate(n, "proj1", date(2025, time.July, 18))
	require.NoError(t, err)

	require.InDelta(t, 100000, snap.BAC, 1e-9)
	require.InDelta(t, 40000, snap.EV, 1e-9)
	require.InDelta(t, 50000, snap.AC, 1e-9)
	require.InDelta(t, -10000, snap.CV, 1e-9)
	require.InDelta(t, 0.8, snap.CPI, 1e-9)
	require.InDelta(t, 125000, snap.EAC, 1e-9)
	require.InDelta(t, -25000, snap.VAC, 1e-9)
	require.InDelta(t, 75000, snap.ETC, 1e-9)
	require.InDelta(t, 1.2, snap.TCPI, 1e-9)
}

func TestCalculate_PlannedValueInterpolation(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddActivity(tenDayActivity("a", 10000)))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)

	// Before the planned start nothing is planned.
	snap, err := calc.Calculate(n, "proj1", date(2025, time.June, 27))
	require.NoError(t, err)
	require.InDelta(t, 0, snap.PV, 1e-9)

	// Five of ten working days elapsed.
	snap, err = calc.Calculate(n, "proj1", date(2025, time.July, 4))
	require.NoError(t, err)
	require.InDelta(t, 5000, snap.PV, 1e-9)

	// A weekend day earns nothing beyond the previous working day.
	snap, err = calc.Calculate(n, "proj1", date(2025, time.July, 5))
	require.NoError(t, err)
	require.InDelta(t, 5000, snap.PV, 1e-9)

	// At and past the planned finish the full budget is planned.
	snap, err = calc.Calculate(n, "proj1", date(2025, time.July, 11))
	require.NoError(t, err)
	require.InDelta(t, 10000, snap.PV, 1e-9)
}

func TestCalculate_OnPlanIdentities(t *testing.T) {
	n := network.New()
	a := tenDayActivity("a", 10000)
	a.PercentComplete = 50
	a.ActualCost = 5000
	require.NoError(t, n.AddActivity(a))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)
	snap, err := calc.Calculate(n, "proj1", date(2025, time.July, 4))
	require.NoError(t, err)

	require.InDelta(t, snap.PV, snap.EV, 1e-9)
	require.InDelta(t, snap.AC, snap.EV, 1e-9)
	require.InDelta(t, 1.0, snap.SPI, 1e-9)
	require.InDelta(t, 1.0, snap.CPI, 1e-9)
	require.InDelta(t, 0, snap.SV, 1e-9)
	require.InDelta(t, 0, snap.CV, 1e-9)
}

func TestCalculate_ZeroDenominatorConventions(t *testing.T) {
	n := network.New()
	a := tenDayActivity("a", 10000)
	require.NoError(t, n.AddActivity(a))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)
	snap, err := calc.Calculate(n, "proj1", date(2025, time.June, 27))
	require.NoError(t, err)

	// PV and AC are both zero before work begins.
	require.InDelta(t, 1.0, snap.SPI, 1e-9)
	require.InDelta(t, 1.0, snap.CPI, 1e-9)
}

func TestCalculate_TCPIWhenBudgetFullySpent(t *testing.T) {
	n := network.New()
	a := tenDayActivity("a", 10000)
	a.PercentComplete = 80
	a.ActualCost = 10000
	require.NoError(t, n.AddActivity(a))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)
	snap, err := calc.Calculate(n, "proj1", date(2025, time.July, 18))
	require.NoError(t, err)
	require.InDelta(t, 1.0, snap.TCPI, 1e-9)
}

func TestCalculate_MultipleActivitiesAggregate(t *testing.T) {
	n := network.New()
	a := tenDayActivity("a", 60000)
	a.PercentComplete = 100
	a.ActualCost = 55000
	b := tenDayActivity("b", 40000)
	b.PercentComplete = 25
	b.ActualCost = 15000
	require.NoError(t, n.AddActivity(a))
	require.NoError(t, n.AddActivity(b))

	calc := earnedvalue.NewCalculator(testCalendars(), nil)
	snap, err := calc.Calculate(n, "proj1", date(2025, time.July, 18))
	require.NoError(t, err)

	require.InDelta(t, 100000, snap.BAC, 1e-9)
	require.InDelta(t, 70000, snap.EV, 1e-9)
	require.InDelta(t, 70000, snap.AC, 1e-9)
	require.InDelta(t, 1.0, snap.CPI, 1e-9)
}
