package calendar

import (
	"sync"
	"time"
)

// Calendar defines working-day availability: weekly hours per weekday plus
// exceptions that override individual dates.
type Calendar struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// WeeklyHours holds working hours per weekday, indexed by time.Weekday
	// (Sunday = 0). Zero hours means a non-working day.
	WeeklyHours [7]float64 `json:"weekly_hours"`

	Exceptions []Exception `json:"exceptions,omitempty"`

	mu        sync.Mutex
	yearCache map[int]map[string]float64
}

// Exception overrides availability for a date. Either Date is set (exact
// override) or Recurrence is non-nil (annual rule). Hours of zero marks a
// holiday.
type Exception struct {
	Name       string      `json:"name,omitempty"`
	Date       time.Time   `json:"date,omitzero"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Hours      float64     `json:"hours"`
}

// Recurrence is an annual rule in one of two forms: a fixed month+day
// (Day > 0), or the Nth weekday of a month (Day == 0), e.g. the 4th Thursday
// of November. Nth of -1 selects the last such weekday of the month.
type Recurrence struct {
	Month   time.Month   `json:"month"`
	Day     int          `json:"day,omitempty"`
	Weekday time.Weekday `json:"weekday,omitempty"`
	Nth     int          `json:"nth,omitempty"`
}

// Exact reports whether the exception is a single-date override rather than a
// recurring rule.
func (e Exception) Exact() bool {
	return e.Recurrence == nil
}

// New creates a validated calendar.
func New(id, name string, weeklyHours [7]float64, exceptions []Exception) (*Calendar, error) {
	c := &Calendar{
		ID:          id,
		Name:        name,
		WeeklyHours: weeklyHours,
		Exceptions:  exceptions,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// StandardWeek returns a Monday-to-Friday calendar with the given hours per
// working day.
func StandardWeek(id, name string, hoursPerDay float64, exceptions []Exception) *Calendar {
	var weekly [7]float64
	for wd := time.Monday; wd <= time.Friday; wd++ {
		weekly[wd] = hoursPerDay
	}
	return &Calendar{ID: id, Name: name, WeeklyHours: weekly, Exceptions: exceptions}
}

// Validate rejects degenerate calendars that have no working weekday at all.
func (c *Calendar) Validate() error {
	for _, h := range c.WeeklyHours {
		if h > 0 {
			return nil
		}
	}
	return ErrDegenerateCalendar
}

// DayLength returns the longest configured weekday in hours, used to convert
// hour-denominated lags into working days.
func (c *Calendar) DayLength() float64 {
	max := 0.0
	for _, h := range c.WeeklyHours {
		if h > max {
			max = h
		}
	}
	return max
}
