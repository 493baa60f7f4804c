package baseline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/repository"
	"github.com/google/uuid"
)

// Manager creates, activates, and compares baselines.
type Manager struct {
	repo      Repository
	calendars calendar.Set
	logger    *slog.Logger
}

// NewManager creates a baseline manager.
func NewManager(repo Repository, calendars calendar.Set, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, calendars: calendars, logger: logger}
}

// Create snapshots every activity's current planned dates, cost, and hours
// into a new numbered baseline.
func (m *Manager) Create(ctx context.Context, projectID, name string, n *network.Network) (*Baseline, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}

	number, err := m.repo.NextNumber(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("numbering baseline: %w", err)
	}

	b := &Baseline{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Number:    number,
		Name:      name,
		CreatedAt: time.Now(),
	}
	for _, a := range n.Activities() {
		b.Activities = append(b.Activities, ActivityBaseline{
			ActivityID:    a.ID,
			PlannedStart:  a.PlannedStart,
			PlannedFinish: a.PlannedFinish,
			Duration:      a.Duration,
			BudgetedCost:  a.BudgetedCost,
			BudgetedHours: a.BudgetedHours,
		})
	}

	if err := m.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("creating baseline: %w", err)
	}

	m.logger.Info("baseline created", "project_id", projectID, "number", number, "name", name)
	return b, nil
}

// Activate marks the baseline active, deactivating any previous one without
// deleting it.
func (m *Manager) Activate(ctx context.Context, projectID, id string) error {
	if _, err := m.Get(ctx, projectID, id); err != nil {
		return err
	}
	if err := m.repo.SetActive(ctx, projectID, id); err != nil {
		return fmt.Errorf("activating baseline: %w", err)
	}
	return nil
}

// Get fetches a baseline by ID.
func (m *Manager) Get(ctx context.Context, projectID, id string) (*Baseline, error) {
	b, err := m.repo.Get(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBaselineNotFound
		}
		return nil, fmt.Errorf("getting baseline: %w", err)
	}
	return b, nil
}

// List returns a project's baselines in creation order.
func (m *Manager) List(ctx context.Context, projectID string) ([]*Baseline, error) {
	return m.repo.List(ctx, projectID)
}

// Variance compares the current network against a baseline. Start and finish
// drift use actual dates where recorded, planned dates otherwise, measured in
// working days of each activity's calendar.
func (m *Manager) Variance(ctx context.Context, projectID, baselineID string, n *network.Network) (*VarianceReport, error) {
	b, err := m.Get(ctx, projectID, baselineID)
	if err != nil {
		return nil, err
	}

	report := &VarianceReport{
		BaselineID:     b.ID,
		BaselineNumber: b.Number,
	}

	baselined := make(map[string]bool, len(b.Activities))
	for _, ab := range b.Activities {
		baselined[ab.ActivityID] = true

		a, err := n.Activity(ab.ActivityID)
		if err != nil {
			report.Activities = append(report.Activities, ActivityVariance{
				ActivityID: ab.ActivityID,
				Removed:    true,
			})
			continue
		}

		cal, err := m.calendars.Get(a.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}

		start := a.PlannedStart
		if a.ActualStart != nil {
			start = *a.ActualStart
		}
		finish := a.PlannedFinish
		if a.ActualFinish != nil {
			finish = *a.ActualFinish
		}

		v := ActivityVariance{
			ActivityID:         a.ID,
			StartVarianceDays:  cal.CountWorkingDays(ab.PlannedStart, start),
			FinishVarianceDays: cal.CountWorkingDays(ab.PlannedFinish, finish),
			CostVariance:       a.BudgetedCost - ab.BudgetedCost,
			HoursVariance:      a.BudgetedHours - ab.BudgetedHours,
		}
		report.Activities = append(report.Activities, v)
		report.TotalStartVarianceDays += v.StartVarianceDays
		report.TotalFinishVarianceDays += v.FinishVarianceDays
		report.TotalCostVariance += v.CostVariance
		report.TotalHoursVariance += v.HoursVariance
	}

	for _, a := range n.Activities() {
		if !baselined[a.ID] {
			report.NewActivities = append(report.NewActivities, a.ID)
		}
	}

	return report, nil
}
