package repository

import (
	"context"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
)

// ScheduleRepository persists a project's activity graph.
type ScheduleRepository interface {
	// LoadNetwork rebuilds the full network (activities and dependencies)
	// for a project.
	LoadNetwork(ctx context.Context, projectID string) (*network.Network, error)
	SaveActivity(ctx context.Context, projectID string, a *network.Activity) error
	SaveDependency(ctx context.Context, projectID string, dep network.Dependency) error
	DeleteDependency(ctx context.Context, projectID, predID, succID string) error
	// SaveComputed writes every activity's computed dates in one
	// transaction; a failure writes nothing.
	SaveComputed(ctx context.Context, projectID string, res *schedule.Result) error
	// SaveLevelingDelays writes leveling delays in one transaction.
	SaveLevelingDelays(ctx context.Context, projectID string, delays map[string]int) error
}

// CalendarRepository persists working calendars.
type CalendarRepository interface {
	LoadSet(ctx context.Context, projectID string) (calendar.Set, error)
	Save(ctx context.Context, projectID string, cal *calendar.Calendar) error
}

// ResourceRepository persists resources and assignments.
type ResourceRepository interface {
	Resources(ctx context.Context, projectID string) (map[string]*resource.Resource, error)
	Assignments(ctx context.Context, projectID string) ([]*resource.Assignment, error)
	SaveResource(ctx context.Context, projectID string, res *resource.Resource) error
	SaveAssignment(ctx context.Context, projectID string, asg *resource.Assignment) error
}

// SnapshotRepository persists immutable earned-value snapshots.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap *earnedvalue.Snapshot) error
	ListSnapshots(ctx context.Context, projectID string) ([]*earnedvalue.Snapshot, error)
}

// LevelingRepository persists immutable leveling sessions. Applied state is
// tracked next to the session, never by rewriting its recorded changes.
type LevelingRepository interface {
	SaveSession(ctx context.Context, s *resource.Session) error
	GetSession(ctx context.Context, projectID, id string) (*resource.Session, error)
	ListSessions(ctx context.Context, projectID string) ([]*resource.Session, error)
	MarkApplied(ctx context.Context, projectID, id string, applied bool) error
}
