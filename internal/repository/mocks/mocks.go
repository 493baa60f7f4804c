package mocks

import (
	"context"

	"github.com/hardhatlabs/crane/internal/domain/baseline"
	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/earnedvalue"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/project"
	"github.com/hardhatlabs/crane/internal/domain/resource"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Summary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

// ScheduleRepository is a mock for repository.ScheduleRepository.
type ScheduleRepository struct {
	mock.Mock
}

func (m *ScheduleRepository) LoadNetwork(ctx context.Context, projectID string) (*network.Network, error) {
	args := m.Called(ctx, projectID)
	if n, ok := args.Get(0).(*network.Network); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScheduleRepository) SaveActivity(ctx context.Context, projectID string, a *network.Activity) error {
	args := m.Called(ctx, projectID, a)
	return args.Error(0)
}

func (m *ScheduleRepository) SaveDependency(ctx context.Context, projectID string, dep network.Dependency) error {
	args := m.Called(ctx, projectID, dep)
	return args.Error(0)
}

func (m *ScheduleRepository) DeleteDependency(ctx context.Context, projectID, predID, succID string) error {
	args := m.Called(ctx, projectID, predID, succID)
	return args.Error(0)
}

func (m *ScheduleRepository) SaveComputed(ctx context.Context, projectID string, res *schedule.Result) error {
	args := m.Called(ctx, projectID, res)
	return args.Error(0)
}

func (m *ScheduleRepository) SaveLevelingDelays(ctx context.Context, projectID string, delays map[string]int) error {
	args := m.Called(ctx, projectID, delays)
	return args.Error(0)
}

// CalendarRepository is a mock for repository.CalendarRepository.
type CalendarRepository struct {
	mock.Mock
}

func (m *CalendarRepository) LoadSet(ctx context.Context, projectID string) (calendar.Set, error) {
	args := m.Called(ctx, projectID)
	if set, ok := args.Get(0).(calendar.Set); ok {
		return set, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CalendarRepository) Save(ctx context.Context, projectID string, cal *calendar.Calendar) error {
	args := m.Called(ctx, projectID, cal)
	return args.Error(0)
}

// ResourceRepository is a mock for repository.ResourceRepository.
type ResourceRepository struct {
	mock.Mock
}

func (m *ResourceRepository) Resources(ctx context.Context, projectID string) (map[string]*resource.Resource, error) {
	args := m.Called(ctx, projectID)
	if res, ok := args.Get(0).(map[string]*resource.Resource); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResourceRepository) Assignments(ctx context.Context, projectID string) ([]*resource.Assignment, error) {
	args := m.Called(ctx, projectID)
	if asgs, ok := args.Get(0).([]*resource.Assignment); ok {
		return asgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResourceRepository) SaveResource(ctx context.Context, projectID string, res *resource.Resource) error {
	args := m.Called(ctx, projectID, res)
	return args.Error(0)
}

func (m *ResourceRepository) SaveAssignment(ctx context.Context, projectID string, asg *resource.Assignment) error {
	args := m.Called(ctx, projectID, asg)
	return args.Error(0)
}

// SnapshotRepository is a mock for repository.SnapshotRepository.
type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) SaveSnapshot(ctx context.Context, snap *earnedvalue.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *SnapshotRepository) ListSnapshots(ctx context.Context, projectID string) ([]*earnedvalue.Snapshot, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]*earnedvalue.Snapshot); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// LevelingRepository is a mock for repository.LevelingRepository.
type LevelingRepository struct {
	mock.Mock
}

func (m *LevelingRepository) SaveSession(ctx context.Context, s *resource.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *LevelingRepository) GetSession(ctx context.Context, projectID, id string) (*resource.Session, error) {
	args := m.Called(ctx, projectID, id)
	if s, ok := args.Get(0).(*resource.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LevelingRepository) ListSessions(ctx context.Context, projectID string) ([]*resource.Session, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]*resource.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LevelingRepository) MarkApplied(ctx context.Context, projectID, id string, applied bool) error {
	args := m.Called(ctx, projectID, id, applied)
	return args.Error(0)
}

// BaselineRepository is a mock for baseline.Repository.
type BaselineRepository struct {
	mock.Mock
}

func (m *BaselineRepository) Create(ctx context.Context, b *baseline.Baseline) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *BaselineRepository) Get(ctx context.Context, projectID, id string) (*baseline.Baseline, error) {
	args := m.Called(ctx, projectID, id)
	if b, ok := args.Get(0).(*baseline.Baseline); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BaselineRepository) List(ctx context.Context, projectID string) ([]*baseline.Baseline, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]*baseline.Baseline); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BaselineRepository) NextNumber(ctx context.Context, projectID string) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *BaselineRepository) SetActive(ctx context.Context, projectID, id string) error {
	args := m.Called(ctx, projectID, id)
	return args.Error(0)
}
