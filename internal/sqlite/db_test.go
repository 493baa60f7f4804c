package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hardhatlabs/crane/internal/domain/project"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestProject inserts a project row for tests that need one
func createTestProject(t *testing.T, db *DB) *project.Project {
	t.Helper()

	proj := &project.Project{
		ID:                uuid.NewString(),
		Name:              "Test Project",
		StartDate:         time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		DefaultCalendarID: "standard",
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), proj))
	return proj
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"projects",
		"calendars",
		"activities",
		"dependencies",
		"resources",
		"assignments",
		"ev_snapshots",
		"baselines",
		"baseline_activities",
		"leveling_sessions",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}
