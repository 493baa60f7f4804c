package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
)

// CalendarRepository implements repository.CalendarRepository for SQLite
type CalendarRepository struct {
	db *DB
}

// NewCalendarRepository creates a new CalendarRepository
func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// LoadSet loads all of a project's calendars
func (r *CalendarRepository) LoadSet(ctx context.Context, projectID string) (calendar.Set, error) {
	query := `
		SELECT id, name, weekly_hours, exceptions
		FROM calendars
		WHERE project_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendars: %w", err)
	}
	defer rows.Close()

	set := calendar.Set{}
	for rows.Next() {
		var id, name string
		var weeklyJSON string
		var exceptionsJSON sql.NullString

		if err := rows.Scan(&id, &name, &weeklyJSON, &exceptionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}

		var weekly [7]float64
		if err := json.Unmarshal([]byte(weeklyJSON), &weekly); err != nil {
			return nil, fmt.Errorf("failed to decode weekly hours for %s: %w", id, err)
		}

		var exceptions []calendar.Exception
		if exceptionsJSON.Valid && exceptionsJSON.String != "" {
			if err := json.Unmarshal([]byte(exceptionsJSON.String), &exceptions); err != nil {
				return nil, fmt.Errorf("failed to decode exceptions for %s: %w", id, err)
			}
		}

		cal, err := calendar.New(id, name, weekly, exceptions)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild calendar %s: %w", id, err)
		}
		set.Add(cal)
	}

	return set, rows.Err()
}

// Save inserts or replaces a calendar
func (r *CalendarRepository) Save(ctx context.Context, projectID string, cal *calendar.Calendar) error {
	weeklyJSON, err := json.Marshal(cal.WeeklyHours)
	if err != nil {
		return fmt.Errorf("failed to encode weekly hours: %w", err)
	}

	var exceptionsJSON sql.NullString
	if len(cal.Exceptions) > 0 {
		data, err := json.Marshal(cal.Exceptions)
		if err != nil {
			return fmt.Errorf("failed to encode exceptions: %w", err)
		}
		exceptionsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO calendars (project_id, id, name, weekly_hours, exceptions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project_id, id) DO UPDATE SET
			name = excluded.name,
			weekly_hours = excluded.weekly_hours,
			exceptions = excluded.exceptions
	`

	_, err = r.db.ExecContext(ctx, query, projectID, cal.ID, cal.Name, string(weeklyJSON), exceptionsJSON)
	if err != nil {
		return fmt.Errorf("failed to save calendar: %w", err)
	}

	return nil
}
