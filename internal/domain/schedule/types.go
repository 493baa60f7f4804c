package schedule

import "time"

// Options configures one critical-path computation.
type Options struct {
	// ProjectStart seeds the forward pass. Activities without predecessors
	// start at the first working day of their calendar on or after it.
	ProjectStart time.Time
	// TargetFinish, when set, seeds the backward pass instead of the computed
	// project early finish.
	TargetFinish *time.Time
	// Tolerance widens criticality to activities whose total float is within
	// this many working days of zero, for near-critical reporting.
	Tolerance int
}

// ActivityDates is the computed schedule of one activity. Float values are in
// working days of the activity's calendar.
type ActivityDates struct {
	ActivityID         string    `json:"activity_id"`
	EarlyStart         time.Time `json:"early_start"`
	EarlyFinish        time.Time `json:"early_finish"`
	LateStart          time.Time `json:"late_start"`
	LateFinish         time.Time `json:"late_finish"`
	TotalFloat         int       `json:"total_float"`
	FreeFloat          int       `json:"free_float"`
	Critical           bool      `json:"critical"`
	ConstraintConflict bool      `json:"constraint_conflict"`
}

// Result is the complete output of one computation pass. It is built fresh
// on every recompute and committed to the network as a whole, never patched.
type Result struct {
	Dates         map[string]*ActivityDates `json:"dates"`
	Order         []string                  `json:"order"`
	ProjectStart  time.Time                 `json:"project_start"`
	ProjectFinish time.Time                 `json:"project_finish"`
	// CriticalPath lists critical activities in topological order. It is
	// generally a chain but may branch when several zero-float chains exist.
	CriticalPath []string `json:"critical_path"`
	// ConstraintConflicts lists activities whose hard constraint disagreed
	// with their dependency-implied window. The hard constraint won.
	ConstraintConflicts []string `json:"constraint_conflicts,omitempty"`
}
