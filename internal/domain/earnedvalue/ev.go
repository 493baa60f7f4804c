package earnedvalue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/google/uuid"
)

// Calculator derives earned-value metrics from a project network and its
// recorded actuals.
type Calculator struct {
	calendars calendar.Set
	logger    *slog.Logger
}

// NewCalculator creates a calculator over a project's calendars.
func NewCalculator(calendars calendar.Set, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{calendars: calendars, logger: logger}
}

// Calculate produces a snapshot as of the data date. Planned value
// interpolates linearly by working days elapsed between each activity's
// planned start and finish; earned value comes from reported percent
// complete; actual cost sums recorded actuals.
func (c *Calculator) Calculate(n *network.Network, projectID string, dataDate time.Time) (*Snapshot, error) {
	d := calendar.Day(dataDate)

	var bac, pv, ev, ac float64
	for _, a := range n.Activities() {
		bac += a.BudgetedCost
		ac += a.ActualCost
		ev += a.BudgetedCost * a.PercentComplete / 100

		frac, err := c.plannedFraction(a, d)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		pv += a.BudgetedCost * frac
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		DataDate:  d,
		BAC:       bac,
		PV:        pv,
		EV:        ev,
		AC:        ac,
		SV:        ev - pv,
		CV:        ev - ac,
		SPI:       ratio(ev, pv),
		CPI:       ratio(ev, ac),
		CreatedAt: time.Now(),
	}

	snap.EAC = bac
	if snap.CPI != 0 {
		snap.EAC = bac / snap.CPI
	}
	snap.ETC = snap.EAC - ac
	snap.VAC = bac - snap.EAC
	if bac == ac {
		snap.TCPI = 1
	} else {
		snap.TCPI = (bac - ev) / (bac - ac)
	}

	c.logger.Debug("earned value calculated",
		"project_id", projectID,
		"data_date", d.Format("2006-01-02"),
		"spi", snap.SPI,
		"cpi", snap.CPI)
	return snap, nil
}

// ratio is num/den with the earned-value convention that an empty
// denominator means on-plan performance, index 1.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 1
	}
	return num / den
}

// plannedFraction is 0 before the activity's planned start, 1 at or after its
// planned finish, and linear in working days elapsed in between.
func (c *Calculator) plannedFraction(a *network.Activity, dataDate time.Time) (float64, error) {
	start := calendar.Day(a.PlannedStart)
	finish := calendar.Day(a.PlannedFinish)
	if start.IsZero() || dataDate.Before(start) {
		return 0, nil
	}
	if !dataDate.Before(finish) {
		return 1, nil
	}

	cal, err := c.calendars.Get(a.CalendarID)
	if err != nil {
		return 0, err
	}

	// Working days counted inclusive of the start day, so an activity is
	// partly earned on the day it begins.
	total := cal.CountWorkingDays(start.AddDate(0, 0, -1), finish)
	if total <= 0 {
		return 1, nil
	}
	elapsed := cal.CountWorkingDays(start.AddDate(0, 0, -1), dataDate)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	return float64(elapsed) / float64(total), nil
}
