package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The database is a single-writer embedded
// store, so the schema is applied in one statement batch.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    target_finish TIMESTAMP,
    default_calendar_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Calendars table. Weekly hours and exceptions are stored as JSON; the
-- calendar is always loaded whole, never queried by weekday or exception.
CREATE TABLE calendars (
    project_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    weekly_hours TEXT NOT NULL,
    exceptions TEXT,
    PRIMARY KEY (project_id, id),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Activities table. Computed columns are owned by the critical path pass
-- and rewritten as a whole on each recompute.
CREATE TABLE activities (
    project_id TEXT NOT NULL,
    id TEXT NOT NULL,
    parent_id TEXT,
    name TEXT NOT NULL,
    planned_start TIMESTAMP,
    planned_finish TIMESTAMP,
    actual_start TIMESTAMP,
    actual_finish TIMESTAMP,
    duration INTEGER NOT NULL DEFAULT 0,
    percent_complete REAL NOT NULL DEFAULT 0,
    budgeted_cost REAL NOT NULL DEFAULT 0,
    actual_cost REAL NOT NULL DEFAULT 0,
    budgeted_hours REAL NOT NULL DEFAULT 0,
    actual_hours REAL NOT NULL DEFAULT 0,
    constraint_type TEXT NOT NULL DEFAULT '',
    constraint_date TIMESTAMP,
    calendar_id TEXT NOT NULL,
    delay_allowed INTEGER NOT NULL DEFAULT 1,
    leveling_delay INTEGER NOT NULL DEFAULT 0,
    early_start TIMESTAMP,
    early_finish TIMESTAMP,
    late_start TIMESTAMP,
    late_finish TIMESTAMP,
    total_float INTEGER NOT NULL DEFAULT 0,
    free_float INTEGER NOT NULL DEFAULT 0,
    critical INTEGER NOT NULL DEFAULT 0,
    constraint_conflict INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project_id, id),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_project_activities ON activities(project_id);

-- Dependencies table
CREATE TABLE dependencies (
    project_id TEXT NOT NULL,
    predecessor_id TEXT NOT NULL,
    successor_id TEXT NOT NULL,
    type TEXT NOT NULL,
    lag_value REAL NOT NULL DEFAULT 0,
    lag_unit TEXT NOT NULL DEFAULT 'days',
    PRIMARY KEY (project_id, predecessor_id, successor_id),
    FOREIGN KEY (project_id, predecessor_id) REFERENCES activities(project_id, id),
    FOREIGN KEY (project_id, successor_id) REFERENCES activities(project_id, id)
);
CREATE INDEX idx_project_dependencies ON dependencies(project_id);

-- Resources table
CREATE TABLE resources (
    project_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    max_units REAL NOT NULL DEFAULT 1,
    standard_rate REAL NOT NULL DEFAULT 0,
    overtime_rate REAL NOT NULL DEFAULT 0,
    calendar_id TEXT NOT NULL,
    PRIMARY KEY (project_id, id),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Assignments table
CREATE TABLE assignments (
    project_id TEXT NOT NULL,
    id TEXT NOT NULL,
    activity_id TEXT NOT NULL,
    resource_id TEXT NOT NULL,
    units REAL NOT NULL DEFAULT 1,
    planned_hours REAL NOT NULL DEFAULT 0,
    actual_hours REAL NOT NULL DEFAULT 0,
    remaining_hours REAL NOT NULL DEFAULT 0,
    start_date TIMESTAMP,
    finish_date TIMESTAMP,
    PRIMARY KEY (project_id, id),
    FOREIGN KEY (project_id, activity_id) REFERENCES activities(project_id, id),
    FOREIGN KEY (project_id, resource_id) REFERENCES resources(project_id, id)
);
CREATE INDEX idx_activity_assignments ON assignments(project_id, activity_id);
CREATE INDEX idx_resource_assignments ON assignments(project_id, resource_id);

-- Earned value snapshots. Append-only; a snapshot is never updated.
CREATE TABLE ev_snapshots (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    data_date TIMESTAMP NOT NULL,
    bac REAL NOT NULL,
    pv REAL NOT NULL,
    ev REAL NOT NULL,
    ac REAL NOT NULL,
    sv REAL NOT NULL,
    cv REAL NOT NULL,
    spi REAL NOT NULL,
    cpi REAL NOT NULL,
    eac REAL NOT NULL,
    etc REAL NOT NULL,
    vac REAL NOT NULL,
    tcpi REAL NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_project_snapshots ON ev_snapshots(project_id, data_date);

-- Baselines. Snapshots are retained forever; number is unique per project.
CREATE TABLE baselines (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    name TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (project_id, number),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE TABLE baseline_activities (
    baseline_id TEXT NOT NULL,
    activity_id TEXT NOT NULL,
    planned_start TIMESTAMP NOT NULL,
    planned_finish TIMESTAMP NOT NULL,
    duration INTEGER NOT NULL,
    budgeted_cost REAL NOT NULL,
    budgeted_hours REAL NOT NULL,
    PRIMARY KEY (baseline_id, activity_id),
    FOREIGN KEY (baseline_id) REFERENCES baselines(id)
);

-- Leveling sessions. The recorded run is immutable; only the applied flag
-- flips when a session is applied or reverted.
CREATE TABLE leveling_sessions (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    mode TEXT NOT NULL,
    settings TEXT NOT NULL,
    conflicts_before TEXT,
    conflicts_after TEXT,
    unresolved TEXT,
    changes TEXT,
    applied INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_project_sessions ON leveling_sessions(project_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
