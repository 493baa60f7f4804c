package calendar

import (
	"fmt"
	"time"
)

// maxWalkDays bounds every working-day walk. A non-degenerate calendar has at
// least 52 working days per year, so any walk that crosses five years of
// calendar days without satisfying its request is misconfigured.
const maxWalkDays = 366 * 5

// Day truncates a time to its calendar date in UTC. All calendar arithmetic
// operates on these normalized dates.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// HoursOn returns the working hours available on a date. Exact-date
// exceptions take precedence over recurring rules; among matching recurring
// rules the lowest hours value wins, so any zero-hours match makes the day a
// holiday.
func (c *Calendar) HoursOn(date time.Time) float64 {
	d := Day(date)

	for _, ex := range c.Exceptions {
		if ex.Exact() && Day(ex.Date).Equal(d) {
			return ex.Hours
		}
	}

	if hours, ok := c.resolvedYear(d.Year())[dayKey(d)]; ok {
		return hours
	}

	return c.WeeklyHours[d.Weekday()]
}

// IsWorkingDay reports whether the date has non-zero working hours.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	return c.HoursOn(date) > 0
}

// NextWorkingDay returns date itself when it is a working day, otherwise the
// first working day after it.
func (c *Calendar) NextWorkingDay(date time.Time) (time.Time, error) {
	d := Day(date)
	for i := 0; i <= maxWalkDays; i++ {
		if c.IsWorkingDay(d) {
			return d, nil
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("next working day from %s: %w", dayKey(date), ErrResolution)
}

// PrevWorkingDay returns date itself when it is a working day, otherwise the
// nearest working day before it.
func (c *Calendar) PrevWorkingDay(date time.Time) (time.Time, error) {
	d := Day(date)
	for i := 0; i <= maxWalkDays; i++ {
		if c.IsWorkingDay(d) {
			return d, nil
		}
		d = d.AddDate(0, 0, -1)
	}
	return time.Time{}, fmt.Errorf("previous working day from %s: %w", dayKey(date), ErrResolution)
}

// AddWorkingDays walks one calendar day at a time in the sign of n, counting
// working days, until |n| of them have been crossed. n of zero returns the
// input date unchanged.
func (c *Calendar) AddWorkingDays(date time.Time, n int) (time.Time, error) {
	d := Day(date)
	if n == 0 {
		return d, nil
	}

	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	crossed := 0
	for i := 0; i < maxWalkDays; i++ {
		d = d.AddDate(0, 0, step)
		if c.IsWorkingDay(d) {
			crossed++
			if crossed == n {
				return d, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("add %d working days from %s: %w", n*step, dayKey(date), ErrResolution)
}

// CountWorkingDays counts working days over the half-open interval a forward
// or backward walk crosses: (start, end] going forward, [end, start) negated
// going backward. The intervals mirror AddWorkingDays exactly, so
// CountWorkingDays(d, AddWorkingDays(d, n)) == n for every n, including
// negative n from a non-working start.
func (c *Calendar) CountWorkingDays(start, end time.Time) int {
	s, e := Day(start), Day(end)

	count := 0
	if e.Before(s) {
		for d := e; d.Before(s); d = d.AddDate(0, 0, 1) {
			if c.IsWorkingDay(d) {
				count--
			}
		}
		return count
	}

	for d := s.AddDate(0, 0, 1); !d.After(e); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// resolvedYear resolves the calendar's recurring exceptions to concrete dates
// for one year, computed once and cached.
func (c *Calendar) resolvedYear(year int) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resolved, ok := c.yearCache[year]; ok {
		return resolved
	}

	resolved := make(map[string]float64)
	for _, ex := range c.Exceptions {
		if ex.Exact() {
			continue
		}
		d, ok := ex.Recurrence.resolve(year)
		if !ok {
			continue
		}
		key := dayKey(d)
		if prev, seen := resolved[key]; !seen || ex.Hours < prev {
			resolved[key] = ex.Hours
		}
	}

	if c.yearCache == nil {
		c.yearCache = make(map[int]map[string]float64)
	}
	c.yearCache[year] = resolved
	return resolved
}

// resolve computes the rule's concrete date within a year. It reports false
// when the rule does not occur that year, e.g. a 5th Thursday of a month with
// only four.
func (r *Recurrence) resolve(year int) (time.Time, bool) {
	if r.Day > 0 {
		d := time.Date(year, r.Month, r.Day, 0, 0, 0, 0, time.UTC)
		if d.Month() != r.Month {
			// Day overflowed the month, e.g. Feb 30.
			return time.Time{}, false
		}
		return d, true
	}

	if r.Nth == -1 {
		last := time.Date(year, r.Month+1, 0, 0, 0, 0, 0, time.UTC)
		offset := (int(last.Weekday()) - int(r.Weekday) + 7) % 7
		return last.AddDate(0, 0, -offset), true
	}

	first := time.Date(year, r.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(r.Weekday) - int(first.Weekday()) + 7) % 7
	d := first.AddDate(0, 0, offset+(r.Nth-1)*7)
	if d.Month() != r.Month {
		return time.Time{}, false
	}
	return d, true
}
