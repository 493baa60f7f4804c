package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/baseline"
	"github.com/hardhatlabs/crane/internal/repository"
)

// BaselineRepository implements baseline.Repository for SQLite
type BaselineRepository struct {
	db *DB
}

// NewBaselineRepository creates a new BaselineRepository
func NewBaselineRepository(db *DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// Create stores a baseline and its activity snapshots in one transaction
func (r *BaselineRepository) Create(ctx context.Context, b *baseline.Baseline) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO baselines (id, project_id, number, name, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query, b.ID, b.ProjectID, b.Number, b.Name, b.Active, b.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create baseline: %w", err)
	}

	actQuery := `
		INSERT INTO baseline_activities (
			baseline_id, activity_id, planned_start, planned_finish,
			duration, budgeted_cost, budgeted_hours
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, actQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range b.Activities {
		_, err := stmt.ExecContext(ctx,
			b.ID, a.ActivityID, a.PlannedStart, a.PlannedFinish,
			a.Duration, a.BudgetedCost, a.BudgetedHours,
		)
		if err != nil {
			return fmt.Errorf("failed to store baseline activity %s: %w", a.ActivityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit baseline: %w", err)
	}

	return nil
}

// Get retrieves a baseline with its activity snapshots
func (r *BaselineRepository) Get(ctx context.Context, projectID, id string) (*baseline.Baseline, error) {
	query := `
		SELECT id, project_id, number, name, active, created_at
		FROM baselines
		WHERE project_id = ? AND id = ?
	`

	var b baseline.Baseline
	err := r.db.QueryRowContext(ctx, query, projectID, id).Scan(
		&b.ID, &b.ProjectID, &b.Number, &b.Name, &b.Active, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline: %w", err)
	}

	actQuery := `
		SELECT activity_id, planned_start, planned_finish, duration, budgeted_cost, budgeted_hours
		FROM baseline_activities
		WHERE baseline_id = ?
		ORDER BY activity_id
	`

	rows, err := r.db.QueryContext(ctx, actQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a baseline.ActivityBaseline
		err := rows.Scan(&a.ActivityID, &a.PlannedStart, &a.PlannedFinish, &a.Duration, &a.BudgetedCost, &a.BudgetedHours)
		if err != nil {
			return nil, fmt.Errorf("failed to scan baseline activity: %w", err)
		}
		b.Activities = append(b.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load baseline activities: %w", err)
	}

	return &b, nil
}

// List returns a project's baselines without activity snapshots, newest first
func (r *BaselineRepository) List(ctx context.Context, projectID string) ([]*baseline.Baseline, error) {
	query := `
		SELECT id, project_id, number, name, active, created_at
		FROM baselines
		WHERE project_id = ?
		ORDER BY number DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	defer rows.Close()

	var baselines []*baseline.Baseline
	for rows.Next() {
		var b baseline.Baseline
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Number, &b.Name, &b.Active, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan baseline: %w", err)
		}
		baselines = append(baselines, &b)
	}

	return baselines, rows.Err()
}

// NextNumber returns the next baseline number for a project
func (r *BaselineRepository) NextNumber(ctx context.Context, projectID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(number), 0) + 1
		FROM baselines
		WHERE project_id = ?
	`

	var next int
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to get next baseline number: %w", err)
	}

	return next, nil
}

// SetActive marks the baseline active and deactivates any other baseline of
// the project in the same transaction
func (r *BaselineRepository) SetActive(ctx context.Context, projectID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE baselines SET active = 1 WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to activate baseline: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE baselines SET active = 0 WHERE project_id = ? AND id != ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate baselines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}

	return nil
}
