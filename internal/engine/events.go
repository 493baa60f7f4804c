package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Mutation is a committed change to a project's scheduling inputs. Each kind
// carries its own typed payload; consumers switch on the concrete type
// instead of resolving a (kind, id) pair at runtime.
type Mutation interface {
	Project() string
	mutation()
}

// ActivityChanged records a committed activity edit.
type ActivityChanged struct {
	ProjectID  string
	ActivityID string
}

// DependencyAdded records a committed dependency insertion.
type DependencyAdded struct {
	ProjectID     string
	PredecessorID string
	SuccessorID   string
}

// DependencyRemoved records a committed dependency deletion.
type DependencyRemoved struct {
	ProjectID     string
	PredecessorID string
	SuccessorID   string
}

// CalendarChanged records a committed calendar edit, which can move every
// activity using the calendar.
type CalendarChanged struct {
	ProjectID  string
	CalendarID string
}

func (m ActivityChanged) Project() string   { return m.ProjectID }
func (m DependencyAdded) Project() string   { return m.ProjectID }
func (m DependencyRemoved) Project() string { return m.ProjectID }
func (m CalendarChanged) Project() string   { return m.ProjectID }

func (ActivityChanged) mutation()   {}
func (DependencyAdded) mutation()   {}
func (DependencyRemoved) mutation() {}
func (CalendarChanged) mutation()   {}

// Recomputer consumes mutation events and schedules a debounced full
// recompute per project, so a burst of edits costs one pass instead of one
// per edit.
type Recomputer struct {
	recompute func(ctx context.Context, projectID string) error
	delay     time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewRecomputer creates a recomputer that invokes the given function after
// the debounce delay has passed without further events for the project.
func NewRecomputer(recompute func(ctx context.Context, projectID string) error, delay time.Duration, logger *slog.Logger) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recomputer{
		recompute: recompute,
		delay:     delay,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
}

// Notify registers a committed mutation. It never blocks the write path.
func (r *Recomputer) Notify(m Mutation) {
	projectID := m.Project()

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[projectID]; ok {
		t.Reset(r.delay)
		return
	}
	r.timers[projectID] = time.AfterFunc(r.delay, func() {
		r.run(projectID)
	})
}

func (r *Recomputer) run(projectID string) {
	r.mu.Lock()
	delete(r.timers, projectID)
	r.mu.Unlock()

	if err := r.recompute(context.Background(), projectID); err != nil {
		r.logger.Error("debounced recompute failed", "project_id", projectID, "error", err)
	}
}

// Flush runs every pending recompute immediately instead of waiting out the
// debounce delay. Short-lived processes call it before exiting.
func (r *Recomputer) Flush() {
	r.mu.Lock()
	pending := make([]string, 0, len(r.timers))
	for id, t := range r.timers {
		if t.Stop() {
			pending = append(pending, id)
		}
		delete(r.timers, id)
	}
	r.mu.Unlock()

	for _, id := range pending {
		if err := r.recompute(context.Background(), id); err != nil {
			r.logger.Error("flushed recompute failed", "project_id", id, "error", err)
		}
	}
}

// Stop cancels all pending recomputes.
func (r *Recomputer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
