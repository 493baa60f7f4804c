package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/repository"
)

// LevelingRepository implements repository.LevelingRepository for SQLite
type LevelingRepository struct {
	db *DB
}

// NewLevelingRepository creates a new LevelingRepository
func NewLevelingRepository(db *DB) *LevelingRepository {
	return &LevelingRepository{db: db}
}

func encodeJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeJSON(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}

// SaveSession records a leveling run
func (r *LevelingRepository) SaveSession(ctx context.Context, s *resource.Session) error {
	settings, err := encodeJSON(s.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	before, err := encodeJSON(s.ConflictsBefore)
	if err != nil {
		return fmt.Errorf("failed to encode conflicts: %w", err)
	}
	after, err := encodeJSON(s.ConflictsAfter)
	if err != nil {
		return fmt.Errorf("failed to encode conflicts: %w", err)
	}
	unresolved, err := encodeJSON(s.Unresolved)
	if err != nil {
		return fmt.Errorf("failed to encode conflicts: %w", err)
	}
	changes, err := encodeJSON(s.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode changes: %w", err)
	}

	query := `
		INSERT INTO leveling_sessions (
			id, project_id, mode, settings, conflicts_before, conflicts_after,
			unresolved, changes, applied, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.ProjectID, string(s.Mode), settings, before, after,
		unresolved, changes, s.Applied, s.CreatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (r *LevelingRepository) GetSession(ctx context.Context, projectID, id string) (*resource.Session, error) {
	query := `
		SELECT id, project_id, mode, settings, conflicts_before, conflicts_after,
		       unresolved, changes, applied, created_at
		FROM leveling_sessions
		WHERE project_id = ? AND id = ?
	`

	return r.scanSession(r.db.QueryRowContext(ctx, query, projectID, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LevelingRepository) scanSession(row rowScanner) (*resource.Session, error) {
	var s resource.Session
	var settings, before, after, unresolved, changes sql.NullString

	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Mode, &settings, &before, &after,
		&unresolved, &changes, &s.Applied, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := decodeJSON(settings, &s.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := decodeJSON(before, &s.ConflictsBefore); err != nil {
		return nil, fmt.Errorf("failed to decode conflicts: %w", err)
	}
	if err := decodeJSON(after, &s.ConflictsAfter); err != nil {
		return nil, fmt.Errorf("failed to decode conflicts: %w", err)
	}
	if err := decodeJSON(unresolved, &s.Unresolved); err != nil {
		return nil, fmt.Errorf("failed to decode conflicts: %w", err)
	}
	if err := decodeJSON(changes, &s.Changes); err != nil {
		return nil, fmt.Errorf("failed to decode changes: %w", err)
	}

	return &s, nil
}

// ListSessions returns a project's sessions newest first
func (r *LevelingRepository) ListSessions(ctx context.Context, projectID string) ([]*resource.Session, error) {
	query := `
		SELECT id, project_id, mode, settings, conflicts_before, conflicts_after,
		       unresolved, changes, applied, created_at
		FROM leveling_sessions
		WHERE project_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*resource.Session
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// MarkApplied flips a session's applied flag
func (r *LevelingRepository) MarkApplied(ctx context.Context, projectID, id string, applied bool) error {
	query := `
		UPDATE leveling_sessions
		SET applied = ?
		WHERE project_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, query, applied, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to mark session: %w", err)
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
