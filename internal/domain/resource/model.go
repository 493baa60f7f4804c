package resource

import "time"

// Resource is a pool of labor or equipment with a daily capacity.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// MaxUnits is the capacity in full-time units; 1.0 is one full-time
	// resource, 0.5 a half-time one.
	MaxUnits     float64 `json:"max_units"`
	StandardRate float64 `json:"standard_rate"`
	OvertimeRate float64 `json:"overtime_rate"`
	CalendarID   string  `json:"calendar_id"`
}

// Assignment links an activity to a resource. Start and Finish, when set,
// narrow the assignment to a window inside the activity's span.
type Assignment struct {
	ID         string `json:"id"`
	ActivityID string `json:"activity_id"`
	ResourceID string `json:"resource_id"`

	Units          float64 `json:"units"`
	PlannedHours   float64 `json:"planned_hours"`
	ActualHours    float64 `json:"actual_hours"`
	RemainingHours float64 `json:"remaining_hours"`

	Start  *time.Time `json:"start,omitempty"`
	Finish *time.Time `json:"finish,omitempty"`
}

// Conflict reports one over-allocated resource-day.
type Conflict struct {
	ResourceID    string    `json:"resource_id"`
	Date          time.Time `json:"date"`
	DemandHours   float64   `json:"demand_hours"`
	CapacityHours float64   `json:"capacity_hours"`
}

// DateRange bounds a conflict scan. Zero values leave the side unbounded.
type DateRange struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Contains reports whether the date falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}
