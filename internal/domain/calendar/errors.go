package calendar

import "errors"

var (
	// ErrDegenerateCalendar indicates a calendar with no working weekday.
	ErrDegenerateCalendar = errors.New("calendar has no working weekday")
	// ErrResolution indicates working-day arithmetic walked past its bounded
	// span without satisfying the request, which means the calendar is
	// misconfigured rather than the request being large.
	ErrResolution = errors.New("calendar resolution exceeded bounded span")
)
