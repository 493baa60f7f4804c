package sqlite

import (
	"context"
	"fmt"

	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/repository"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot appends an earned value snapshot
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snap *earnedvalue.Snapshot) error {
	query := `
		INSERT INTO ev_snapshots (
			id, project_id, data_date, bac, pv, ev, ac,
			sv, cv, spi, cpi, eac, etc, vac, tcpi, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		snap.ID, snap.ProjectID, snap.DataDate, snap.BAC, snap.PV, snap.EV, snap.AC,
		snap.SV, snap.CV, snap.SPI, snap.CPI, snap.EAC, snap.ETC, snap.VAC, snap.TCPI,
		snap.CreatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// ListSnapshots returns a project's snapshots in data date order
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, projectID string) ([]*earnedvalue.Snapshot, error) {
	query := `
		SELECT id, project_id, data_date, bac, pv, ev, ac,
		       sv, cv, spi, cpi, eac, etc, vac, tcpi, created_at
		FROM ev_snapshots
		WHERE project_id = ?
		ORDER BY data_date ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*earnedvalue.Snapshot
	for rows.Next() {
		var snap earnedvalue.Snapshot
		err := rows.Scan(
			&snap.ID, &snap.ProjectID, &snap.DataDate, &snap.BAC, &snap.PV, &snap.EV, &snap.AC,
			&snap.SV, &snap.CV, &snap.SPI, &snap.CPI, &snap.EAC, &snap.ETC, &snap.VAC, &snap.TCPI,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}

	return snapshots, rows.Err()
}
