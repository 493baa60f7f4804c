package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/hardhatlabs/crane/internal/repository"
)

// ScheduleRepository implements repository.ScheduleRepository for SQLite
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// nullTime converts a possibly-zero time into a nullable column value.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeValue(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// LoadNetwork rebuilds a project's full activity graph
func (r *ScheduleRepository) LoadNetwork(ctx context.Context, projectID string) (*network.Network, error) {
	query := `
		SELECT id, parent_id, name, planned_start, planned_finish, actual_start, actual_finish,
		       duration, percent_complete, budgeted_cost, actual_cost, budgeted_hours, actual_hours,
		       constraint_type, constraint_date, calendar_id, delay_allowed, leveling_delay,
		       early_start, early_finish, late_start, late_finish,
		       total_float, free_float, critical, constraint_conflict
		FROM activities
		WHERE project_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	defer rows.Close()

	n := network.New()
	for rows.Next() {
		var a network.Activity
		var parentID sql.NullString
		var plannedStart, plannedFinish, actualStart, actualFinish sql.NullTime
		var constraintDate sql.NullTime
		var earlyStart, earlyFinish, lateStart, lateFinish sql.NullTime

		err := rows.Scan(
			&a.ID, &parentID, &a.Name, &plannedStart, &plannedFinish, &actualStart, &actualFinish,
			&a.Duration, &a.PercentComplete, &a.BudgetedCost, &a.ActualCost, &a.BudgetedHours, &a.ActualHours,
			&a.Constraint, &constraintDate, &a.CalendarID, &a.DelayAllowed, &a.LevelingDelay,
			&earlyStart, &earlyFinish, &lateStart, &lateFinish,
			&a.Computed.TotalFloat, &a.Computed.FreeFloat, &a.Computed.Critical, &a.Computed.ConstraintConflict,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		a.ProjectID = projectID
		if parentID.Valid {
			a.ParentID = &parentID.String
		}
		a.PlannedStart = timeValue(plannedStart)
		a.PlannedFinish = timeValue(plannedFinish)
		a.ActualStart = timePtr(actualStart)
		a.ActualFinish = timePtr(actualFinish)
		a.ConstraintDate = timePtr(constraintDate)
		a.Computed.EarlyStart = timeValue(earlyStart)
		a.Computed.EarlyFinish = timeValue(earlyFinish)
		a.Computed.LateStart = timeValue(lateStart)
		a.Computed.LateFinish = timeValue(lateFinish)

		if err := n.AddActivity(&a); err != nil {
			return nil, fmt.Errorf("failed to add activity %s: %w", a.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}

	depQuery := `
		SELECT predecessor_id, successor_id, type, lag_value, lag_unit
		FROM dependencies
		WHERE project_id = ?
		ORDER BY predecessor_id, successor_id
	`

	depRows, err := r.db.QueryContext(ctx, depQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var predID, succID string
		var typ network.DependencyType
		var lag network.Lag
		if err := depRows.Scan(&predID, &succID, &typ, &lag.Value, &lag.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		if err := n.AddDependency(predID, succID, typ, lag); err != nil {
			return nil, fmt.Errorf("failed to add dependency %s->%s: %w", predID, succID, err)
		}
	}
	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}

	return n, nil
}

// SaveActivity inserts or replaces an activity
func (r *ScheduleRepository) SaveActivity(ctx context.Context, projectID string, a *network.Activity) error {
	query := `
		INSERT INTO activities (
			project_id, id, parent_id, name, planned_start, planned_finish, actual_start, actual_finish,
			duration, percent_complete, budgeted_cost, actual_cost, budgeted_hours, actual_hours,
			constraint_type, constraint_date, calendar_id, delay_allowed, leveling_delay
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			name = excluded.name,
			planned_start = excluded.planned_start,
			planned_finish = excluded.planned_finish,
			actual_start = excluded.actual_start,
			actual_finish = excluded.actual_finish,
			duration = excluded.duration,
			percent_complete = excluded.percent_complete,
			budgeted_cost = excluded.budgeted_cost,
			actual_cost = excluded.actual_cost,
			budgeted_hours = excluded.budgeted_hours,
			actual_hours = excluded.actual_hours,
			constraint_type = excluded.constraint_type,
			constraint_date = excluded.constraint_date,
			calendar_id = excluded.calendar_id,
			delay_allowed = excluded.delay_allowed,
			leveling_delay = excluded.leveling_delay
	`

	var parentID sql.NullString
	if a.ParentID != nil {
		parentID = sql.NullString{String: *a.ParentID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		projectID, a.ID, parentID, a.Name,
		nullTime(a.PlannedStart), nullTime(a.PlannedFinish),
		nullTimePtr(a.ActualStart), nullTimePtr(a.ActualFinish),
		a.Duration, a.PercentComplete, a.BudgetedCost, a.ActualCost, a.BudgetedHours, a.ActualHours,
		string(a.Constraint), nullTimePtr(a.ConstraintDate), a.CalendarID, a.DelayAllowed, a.LevelingDelay,
	)

	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	return nil
}

// SaveDependency inserts a dependency
func (r *ScheduleRepository) SaveDependency(ctx context.Context, projectID string, dep network.Dependency) error {
	query := `
		INSERT INTO dependencies (project_id, predecessor_id, successor_id, type, lag_value, lag_unit)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	unit := dep.Lag.Unit
	if unit == "" {
		unit = network.LagDays
	}

	_, err := r.db.ExecContext(ctx, query,
		projectID, dep.PredecessorID, dep.SuccessorID, string(dep.Type), dep.Lag.Value, string(unit),
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save dependency: %w", err)
	}

	return nil
}

// DeleteDependency removes a dependency
func (r *ScheduleRepository) DeleteDependency(ctx context.Context, projectID, predID, succID string) error {
	query := `
		DELETE FROM dependencies
		WHERE project_id = ? AND predecessor_id = ? AND successor_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, projectID, predID, succID)
	if err != nil {
		return fmt.Errorf("failed to delete dependency: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SaveComputed writes every activity's computed dates in one transaction
func (r *ScheduleRepository) SaveComputed(ctx context.Context, projectID string, res *schedule.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE activities
		SET early_start = ?, early_finish = ?, late_start = ?, late_finish = ?,
		    total_float = ?, free_float = ?, critical = ?, constraint_conflict = ?
		WHERE project_id = ? AND id = ?
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for id, d := range res.Dates {
		_, err := stmt.ExecContext(ctx,
			nullTime(d.EarlyStart), nullTime(d.EarlyFinish),
			nullTime(d.LateStart), nullTime(d.LateFinish),
			d.TotalFloat, d.FreeFloat, d.Critical, d.ConstraintConflict,
			projectID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to save computed dates for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit computed dates: %w", err)
	}

	return nil
}

// SaveLevelingDelays writes leveling delays in one transaction
func (r *ScheduleRepository) SaveLevelingDelays(ctx context.Context, projectID string, delays map[string]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE activities
		SET leveling_delay = ?
		WHERE project_id = ? AND id = ?
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for id, delay := range delays {
		if _, err := stmt.ExecContext(ctx, delay, projectID, id); err != nil {
			return fmt.Errorf("failed to save leveling delay for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leveling delays: %w", err)
	}

	return nil
}
