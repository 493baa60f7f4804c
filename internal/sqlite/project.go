package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/project"
	"github.com/hardhatlabs/crane/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, name, start_date, target_finish, default_calendar_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.StartDate,
		proj.TargetFinish,
		proj.DefaultCalendarID,
		proj.CreatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, name, start_date, target_finish, default_calendar_id, created_at
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Name,
		&proj.StartDate,
		&proj.TargetFinish,
		&proj.DefaultCalendarID,
		&proj.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}

// List returns all projects with summary information
func (r *ProjectRepository) List(ctx context.Context) ([]project.Summary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.start_date,
			p.created_at,
			COUNT(a.id) as activity_count
		FROM projects p
		LEFT JOIN activities a ON a.project_id = p.id
		GROUP BY p.id, p.name, p.start_date, p.created_at
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.Summary
	for rows.Next() {
		var s project.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.CreatedAt, &s.ActivityCount); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Update updates a project's mutable fields
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	query := `
		UPDATE projects
		SET name = ?, start_date = ?, target_finish = ?, default_calendar_id = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Name,
		proj.StartDate,
		proj.TargetFinish,
		proj.DefaultCalendarID,
		proj.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
