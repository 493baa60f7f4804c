package network

import (
	"math"
	"time"
)

// ConstraintType bounds an activity's schedule window independently of its
// dependencies.
type ConstraintType string

const (
	ConstraintASAP            ConstraintType = "ASAP"
	ConstraintALAP            ConstraintType = "ALAP"
	ConstraintMustStartOn     ConstraintType = "MUST_START_ON"
	ConstraintMustFinishOn    ConstraintType = "MUST_FINISH_ON"
	ConstraintStartNoEarlier  ConstraintType = "START_NO_EARLIER_THAN"
	ConstraintStartNoLater    ConstraintType = "START_NO_LATER_THAN"
	ConstraintFinishNoEarlier ConstraintType = "FINISH_NO_EARLIER_THAN"
	ConstraintFinishNoLater   ConstraintType = "FINISH_NO_LATER_THAN"
)

// NeedsDate reports whether the constraint type requires a constraint date.
func (c ConstraintType) NeedsDate() bool {
	return c != ConstraintASAP && c != ConstraintALAP && c != ""
}

// DependencyType is the precedence relationship between two activities.
type DependencyType string

const (
	FinishToStart  DependencyType = "FS"
	StartToStart   DependencyType = "SS"
	FinishToFinish DependencyType = "FF"
	StartToFinish  DependencyType = "SF"
)

// LagUnit denominates a dependency lag.
type LagUnit string

const (
	LagDays    LagUnit = "days"
	LagPercent LagUnit = "percent"
	LagHours   LagUnit = "hours"
)

// Lag is an offset applied at a dependency. Percent lags are relative to the
// predecessor's duration; hour lags are converted using the successor
// calendar's day length. Both normalize to whole working days before use.
type Lag struct {
	Value float64 `json:"value"`
	Unit  LagUnit `json:"unit"`
}

// WorkingDays normalizes the lag to working days given the predecessor's
// duration and the successor calendar's day length in hours. Negative values
// are leads and round the same way.
func (l Lag) WorkingDays(predDuration int, dayLength float64) int {
	switch l.Unit {
	case LagPercent:
		return int(math.Round(l.Value * float64(predDuration) / 100))
	case LagHours:
		if dayLength <= 0 {
			return 0
		}
		return int(math.Round(l.Value / dayLength))
	default:
		return int(math.Round(l.Value))
	}
}

// Activity is a schedulable unit of work. The Computed block is owned by the
// critical path calculator and replaced as a whole on each recompute.
type Activity struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	ParentID      *string    `json:"parent_id,omitempty"`
	Name          string     `json:"name"`
	PlannedStart  time.Time  `json:"planned_start"`
	PlannedFinish time.Time  `json:"planned_finish"`
	ActualStart   *time.Time `json:"actual_start,omitempty"`
	ActualFinish  *time.Time `json:"actual_finish,omitempty"`

	// Duration is in working days of the activity's calendar. Zero marks a
	// milestone.
	Duration        int     `json:"duration"`
	PercentComplete float64 `json:"percent_complete"`
	BudgetedCost    float64 `json:"budgeted_cost"`
	ActualCost      float64 `json:"actual_cost"`
	BudgetedHours   float64 `json:"budgeted_hours"`
	ActualHours     float64 `json:"actual_hours"`

	Constraint     ConstraintType `json:"constraint,omitempty"`
	ConstraintDate *time.Time     `json:"constraint_date,omitempty"`
	CalendarID     string         `json:"calendar_id"`
	DelayAllowed   bool           `json:"delay_allowed"`

	// LevelingDelay shifts the activity's dependency-implied early start by
	// this many working days. It is written only when a leveling session is
	// applied, so a recompute is always reproducible from stored state.
	LevelingDelay int `json:"leveling_delay,omitempty"`

	Computed Computed `json:"computed"`
}

// Computed holds the calculator's output for one activity. Float values are
// working days of the activity's calendar.
type Computed struct {
	EarlyStart         time.Time `json:"early_start,omitzero"`
	EarlyFinish        time.Time `json:"early_finish,omitzero"`
	LateStart          time.Time `json:"late_start,omitzero"`
	LateFinish         time.Time `json:"late_finish,omitzero"`
	TotalFloat         int       `json:"total_float"`
	FreeFloat          int       `json:"free_float"`
	Critical           bool      `json:"critical"`
	ConstraintConflict bool      `json:"constraint_conflict"`
}

// Dependency is a typed, lagged edge from a predecessor to a successor.
type Dependency struct {
	PredecessorID string         `json:"predecessor_id"`
	SuccessorID   string         `json:"successor_id"`
	Type          DependencyType `json:"type"`
	Lag           Lag            `json:"lag"`
}
