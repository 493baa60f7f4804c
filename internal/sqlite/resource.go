package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/repository"
)

// ResourceRepository implements repository.ResourceRepository for SQLite
type ResourceRepository struct {
	db *DB
}

// NewResourceRepository creates a new ResourceRepository
func NewResourceRepository(db *DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Resources loads a project's resources keyed by ID
func (r *ResourceRepository) Resources(ctx context.Context, projectID string) (map[string]*resource.Resource, error) {
	query := `
		SELECT id, name, max_units, standard_rate, overtime_rate, calendar_id
		FROM resources
		WHERE project_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}
	defer rows.Close()

	resources := make(map[string]*resource.Resource)
	for rows.Next() {
		var res resource.Resource
		err := rows.Scan(&res.ID, &res.Name, &res.MaxUnits, &res.StandardRate, &res.OvertimeRate, &res.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources[res.ID] = &res
	}

	return resources, rows.Err()
}

// Assignments loads a project's assignments
func (r *ResourceRepository) Assignments(ctx context.Context, projectID string) ([]*resource.Assignment, error) {
	query := `
		SELECT id, activity_id, resource_id, units, planned_hours, actual_hours, remaining_hours,
		       start_date, finish_date
		FROM assignments
		WHERE project_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*resource.Assignment
	for rows.Next() {
		var asg resource.Assignment
		var start, finish sql.NullTime
		err := rows.Scan(
			&asg.ID, &asg.ActivityID, &asg.ResourceID,
			&asg.Units, &asg.PlannedHours, &asg.ActualHours, &asg.RemainingHours,
			&start, &finish,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		asg.Start = timePtr(start)
		asg.Finish = timePtr(finish)
		assignments = append(assignments, &asg)
	}

	return assignments, rows.Err()
}

// SaveResource inserts or replaces a resource
func (r *ResourceRepository) SaveResource(ctx context.Context, projectID string, res *resource.Resource) error {
	query := `
		INSERT INTO resources (project_id, id, name, max_units, standard_rate, overtime_rate, calendar_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, id) DO UPDATE SET
			name = excluded.name,
			max_units = excluded.max_units,
			standard_rate = excluded.standard_rate,
			overtime_rate = excluded.overtime_rate,
			calendar_id = excluded.calendar_id
	`

	_, err := r.db.ExecContext(ctx, query,
		projectID, res.ID, res.Name, res.MaxUnits, res.StandardRate, res.OvertimeRate, res.CalendarID,
	)

	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}

	return nil
}

// SaveAssignment inserts or replaces an assignment
func (r *ResourceRepository) SaveAssignment(ctx context.Context, projectID string, asg *resource.Assignment) error {
	query := `
		INSERT INTO assignments (
			project_id, id, activity_id, resource_id, units,
			planned_hours, actual_hours, remaining_hours, start_date, finish_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, id) DO UPDATE SET
			activity_id = excluded.activity_id,
			resource_id = excluded.resource_id,
			units = excluded.units,
			planned_hours = excluded.planned_hours,
			actual_hours = excluded.actual_hours,
			remaining_hours = excluded.remaining_hours,
			start_date = excluded.start_date,
			finish_date = excluded.finish_date
	`

	_, err := r.db.ExecContext(ctx, query,
		projectID, asg.ID, asg.ActivityID, asg.ResourceID, asg.Units,
		asg.PlannedHours, asg.ActualHours, asg.RemainingHours,
		nullTimePtr(asg.Start), nullTimePtr(asg.Finish),
	)

	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	return nil
}
