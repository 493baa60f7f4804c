package resource

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
)

// demandEpsilon absorbs float64 noise when comparing hour totals.
const demandEpsilon = 1e-9

// Ledger aggregates resource demand per calendar day and detects
// over-allocation against resource capacity.
type Ledger struct {
	calendars calendar.Set
	logger    *slog.Logger
}

// NewLedger creates a ledger over a project's calendars.
func NewLedger(calendars calendar.Set, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{calendars: calendars, logger: logger}
}

// DailyDemand distributes each assignment's planned work hours evenly across
// the working days of its window and sums them per resource per day. The
// window is the assignment's own start/finish when set, otherwise the
// activity's computed early dates, falling back to planned dates before any
// recompute has run.
func (l *Ledger) DailyDemand(n *network.Network, assignments []*Assignment) (map[string]map[time.Time]float64, error) {
	demand := make(map[string]map[time.Time]float64)

	for _, asg := range assignments {
		if asg.PlannedHours <= 0 {
			continue
		}
		a, err := n.Activity(asg.ActivityID)
		if err != nil {
			return nil, fmt.Errorf("assignment %s: %w", asg.ID, err)
		}
		cal, err := l.calendars.Get(a.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("assignment %s: %w", asg.ID, err)
		}

		start, end := assignmentWindow(a, asg)
		days := workingDaysIn(cal, start, end)
		if len(days) == 0 {
			continue
		}

		perDay := asg.PlannedHours / float64(len(days))
		byDay := demand[asg.ResourceID]
		if byDay == nil {
			byDay = make(map[time.Time]float64)
			demand[asg.ResourceID] = byDay
		}
		for _, d := range days {
			byDay[d] += perDay
		}
	}

	return demand, nil
}

// Conflicts returns every resource-day whose summed demand exceeds the
// resource's capacity for that day, ordered by resource then date.
func (l *Ledger) Conflicts(n *network.Network, resources map[string]*Resource, assignments []*Assignment, rng DateRange) ([]Conflict, error) {
	demand, err := l.DailyDemand(n, assignments)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for resID, byDay := range demand {
		res, ok := resources[resID]
		if !ok {
			return nil, fmt.Errorf("resource %s: %w", resID, ErrResourceNotFound)
		}
		rescal, err := l.calendars.Get(res.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", resID, err)
		}
		for day, hours := range byDay {
			if !rng.Contains(day) {
				continue
			}
			capacity := res.MaxUnits * rescal.HoursOn(day)
			if hours > capacity+demandEpsilon {
				conflicts = append(conflicts, Conflict{
					ResourceID:    resID,
					Date:          day,
					DemandHours:   hours,
					CapacityHours: capacity,
				})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].ResourceID != conflicts[j].ResourceID {
			return conflicts[i].ResourceID < conflicts[j].ResourceID
		}
		return conflicts[i].Date.Before(conflicts[j].Date)
	})
	return conflicts, nil
}

// assignmentWindow resolves the date span an assignment occupies.
func assignmentWindow(a *network.Activity, asg *Assignment) (time.Time, time.Time) {
	start := a.Computed.EarlyStart
	end := a.Computed.EarlyFinish
	if start.IsZero() {
		start = a.PlannedStart
	}
	if end.IsZero() {
		end = a.PlannedFinish
	}
	if asg.Start != nil {
		start = *asg.Start
	}
	if asg.Finish != nil {
		end = *asg.Finish
	}
	return calendar.Day(start), calendar.Day(end)
}

func workingDaysIn(cal *calendar.Calendar, start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if cal.IsWorkingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
