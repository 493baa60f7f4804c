package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestLevelingRepository_RoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLevelingRepository(db)
	ctx := context.Background()
	proj := createTestProject(t, db)

	session := &resource.Session{
		ID:        "sess1",
		ProjectID: proj.ID,
		Mode:      resource.ModeDryRun,
		Settings:  resource.Settings{Tolerance: 1},
		ConflictsBefore: []resource.Conflict{
			{ResourceID: "crew1", Date: time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC), DemandHours: 16, CapacityHours: 8},
		},
		Changes: []resource.DateChange{
			{ActivityID: "b", Days: 2, PrevDelay: 0},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSession(ctx, session))

	got, err := repo.GetSession(ctx, proj.ID, "sess1")
	require.NoError(t, err)
	require.Equal(t, resource.ModeDryRun, got.Mode)
	require.Equal(t, 1, got.Settings.Tolerance)
	require.Len(t, got.ConflictsBefore, 1)
	require.Equal(t, 16.0, got.ConflictsBefore[0].DemandHours)
	require.Len(t, got.Changes, 1)
	require.Equal(t, "b", got.Changes[0].ActivityID)
	require.Equal(t, 2, got.Changes[0].Days)
	require.False(t, got.Applied)
}

func TestLevelingRepository_MarkApplied(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLevelingRepository(db)
	ctx := context.Background()
	proj := createTestProject(t, db)

	session := &resource.Session{
		ID: "sess1", ProjectID: proj.ID, Mode: resource.ModeApply, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSession(ctx, session))

	require.NoError(t, repo.MarkApplied(ctx, proj.ID, "sess1", true))
	got, err := repo.GetSession(ctx, proj.ID, "sess1")
	require.NoError(t, err)
	require.True(t, got.Applied)

	require.NoError(t, repo.MarkApplied(ctx, proj.ID, "sess1", false))
	got, err = repo.GetSession(ctx, proj.ID, "sess1")
	require.NoError(t, err)
	require.False(t, got.Applied)
}

func TestLevelingRepository_GetSessionNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLevelingRepository(db)
	proj := createTestProject(t, db)

	_, err := repo.GetSession(context.Background(), proj.ID, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLevelingRepository_ListSessions(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLevelingRepository(db)
	ctx := context.Background()
	proj := createTestProject(t, db)

	for i, id := range []string{"sess1", "sess2"} {
		require.NoError(t, repo.SaveSession(ctx, &resource.Session{
			ID: id, ProjectID: proj.ID, Mode: resource.ModeDryRun,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	sessions, err := repo.ListSessions(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "sess2", sessions[0].ID)
}

func TestSnapshotRepository_RoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()
	proj := createTestProject(t, db)

	snap := &earnedvalue.Snapshot{
		ID:        "snap1",
		ProjectID: proj.ID,
		DataDate:  time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		BAC:       100000, PV: 50000, EV: 40000, AC: 50000,
		SV: -10000, CV: -10000, SPI: 0.8, CPI: 0.8,
		EAC: 125000, ETC: 75000, VAC: -25000, TCPI: 1.2,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	list, err := repo.ListSnapshots(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 100000.0, list[0].BAC)
	require.Equal(t, 0.8, list[0].CPI)
	require.Equal(t, -25000.0, list[0].VAC)
	require.True(t, list[0].DataDate.Equal(snap.DataDate))
}
