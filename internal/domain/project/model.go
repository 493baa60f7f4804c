package project

import "time"

// Project is the scheduling container: every activity, calendar, resource,
// baseline, and snapshot belongs to exactly one project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// StartDate seeds the forward pass for activities with no predecessors.
	StartDate time.Time `json:"start_date"`
	// TargetFinish, when set, seeds the backward pass; otherwise the computed
	// project early finish does.
	TargetFinish *time.Time `json:"target_finish,omitempty"`
	// DefaultCalendarID is assigned to activities and resources created
	// without an explicit calendar.
	DefaultCalendarID string `json:"default_calendar_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartDate     time.Time `json:"start_date"`
	ActivityCount int       `json:"activity_count"`
	CreatedAt     time.Time `json:"created_at"`
}
