package calendar

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an unknown calendar identifier.
var ErrNotFound = errors.New("calendar not found")

// Set is a lookup of calendars by identifier, as loaded for one project.
type Set map[string]*Calendar

// Get returns the calendar for an identifier.
func (s Set) Get(id string) (*Calendar, error) {
	cal, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("calendar %s: %w", id, ErrNotFound)
	}
	return cal, nil
}

// Add indexes a calendar by its ID.
func (s Set) Add(cal *Calendar) {
	s[cal.ID] = cal
}
