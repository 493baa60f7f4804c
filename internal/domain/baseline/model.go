package baseline

import "time"

// Baseline is an immutable, sequentially numbered snapshot of every
// activity's plan at a point in time. Prior baselines are retained forever;
// at most one is active per project.
type Baseline struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	Activities []ActivityBaseline `json:"activities"`
}

// ActivityBaseline captures one activity's planned dates, cost, and hours.
type ActivityBaseline struct {
	ActivityID    string    `json:"activity_id"`
	PlannedStart  time.Time `json:"planned_start"`
	PlannedFinish time.Time `json:"planned_finish"`
	Duration      int       `json:"duration"`
	BudgetedCost  float64   `json:"budgeted_cost"`
	BudgetedHours float64   `json:"budgeted_hours"`
}

// VarianceReport compares the current plan against a baseline.
type VarianceReport struct {
	BaselineID     string             `json:"baseline_id"`
	BaselineNumber int                `json:"baseline_number"`
	Activities     []ActivityVariance `json:"activities"`
	// NewActivities lists activities added since the baseline was taken.
	NewActivities []string `json:"new_activities,omitempty"`

	TotalStartVarianceDays  int     `json:"total_start_variance_days"`
	TotalFinishVarianceDays int     `json:"total_finish_variance_days"`
	TotalCostVariance       float64 `json:"total_cost_variance"`
	TotalHoursVariance      float64 `json:"total_hours_variance"`
}

// ActivityVariance is one activity's drift from the baseline. Day variances
// are working days of the activity's calendar; positive means late. Removed
// marks activities that existed in the baseline but are gone from the plan.
type ActivityVariance struct {
	ActivityID         string  `json:"activity_id"`
	StartVarianceDays  int     `json:"start_variance_days"`
	FinishVarianceDays int     `json:"finish_variance_days"`
	CostVariance       float64 `json:"cost_variance"`
	HoursVariance      float64 `json:"hours_variance"`
	Removed            bool    `json:"removed,omitempty"`
}
