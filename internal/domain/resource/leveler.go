package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
	"github.com/hardhatlabs/crane/internal/domain/schedule"
	"github.com/google/uuid"
)

// Mode records whether a leveling session was a proposal or was applied.
type Mode string

const (
	ModeDryRun Mode = "dry_run"
	ModeApply  Mode = "apply"
)

// Settings configures a leveling run.
type Settings struct {
	// Tolerance is the near-critical tolerance: activities whose total float
	// is within it are treated as critical and never moved.
	Tolerance int `json:"tolerance"`
	// Range bounds which conflict days the run tries to resolve.
	Range DateRange `json:"range"`
}

// DateChange is one proposed delay. Days is the leveling delay added on top
// of PrevDelay, in working days of the activity's calendar.
type DateChange struct {
	ActivityID string    `json:"activity_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Days       int       `json:"days"`
	PrevDelay  int       `json:"prev_delay"`
}

// Session is the immutable record of one leveling run. Applying or reverting
// it is a separate, explicit step that never rewrites the session itself.
type Session struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"project_id"`
	Mode            Mode         `json:"mode"`
	Settings        Settings     `json:"settings"`
	ConflictsBefore []Conflict   `json:"conflicts_before"`
	ConflictsAfter  []Conflict   `json:"conflicts_after"`
	Unresolved      []Conflict   `json:"unresolved"`
	Changes         []DateChange `json:"changes"`
	Applied         bool         `json:"applied"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Leveler resolves resource over-allocation by delaying non-critical
// activities within their float. It works on a clone of the network, so a
// dry-run can execute concurrently with readers of the real graph.
type Leveler struct {
	calendars calendar.Set
	ledger    *Ledger
	logger    *slog.Logger
}

// NewLeveler creates a leveler over a project's calendars.
func NewLeveler(calendars calendar.Set, logger *slog.Logger) *Leveler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Leveler{
		calendars: calendars,
		ledger:    NewLedger(calendars, logger),
		logger:    logger,
	}
}

// Level runs one greedy leveling pass: conflicting, delay-eligible activities
// ordered by descending total float (ties by earliest early start) are each
// delayed within their pre-leveling float until their demand clears or the
// float is exhausted. The critical path is recomputed after every delay so an
// activity that turns critical mid-run is not pushed further. Cancellation is
// checked between activities and abandons the run without side effects.
func (lv *Leveler) Level(ctx context.Context, projectID string, n *network.Network, resources map[string]*Resource, assignments []*Assignment, schedOpts schedule.Options, settings Settings, mode Mode) (*Session, error) {
	if mode != ModeDryRun && mode != ModeApply {
		return nil, fmt.Errorf("leveling mode %q: %w", mode, ErrInvalidInput)
	}
	if settings.Tolerance < 0 {
		return nil, fmt.Errorf("leveling tolerance %d: %w", settings.Tolerance, ErrInvalidInput)
	}

	work := n.Clone()
	calc := schedule.NewCalculator(lv.calendars, lv.logger)

	res, err := calc.Compute(work, schedOpts)
	if err != nil {
		return nil, fmt.Errorf("leveling precompute: %w", err)
	}
	if err := res.Apply(work); err != nil {
		return nil, err
	}

	before, err := lv.ledger.Conflicts(work, resources, assignments, settings.Range)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Mode:            mode,
		Settings:        settings,
		ConflictsBefore: before,
		CreatedAt:       time.Now(),
	}
	if len(before) == 0 {
		return session, nil
	}

	preFloat := make(map[string]int, len(res.Dates))
	for id, d := range res.Dates {
		preFloat[id] = d.TotalFloat
	}

	candidates := lv.candidates(work, res, assignments, before, settings.Tolerance)

	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		act, err := work.Activity(id)
		if err != nil {
			return nil, err
		}
		prevDelay := act.LevelingDelay
		origStart := res.Dates[id].EarlyStart
		moved := 0

		for moved < preFloat[id] {
			conflicts, err := lv.ledger.Conflicts(work, resources, assignments, settings.Range)
			if err != nil {
				return nil, err
			}
			if !lv.activityConflicts(work, conflicts, assignments, id) {
				break
			}
			if res.Dates[id].TotalFloat <= settings.Tolerance {
				// Became critical since the candidate list was built.
				break
			}

			act.LevelingDelay++
			moved++
			res, err = calc.Compute(work, schedOpts)
			if err != nil {
				return nil, fmt.Errorf("leveling recompute: %w", err)
			}
			if err := res.Apply(work); err != nil {
				return nil, err
			}
		}

		if moved > 0 {
			session.Changes = append(session.Changes, DateChange{
				ActivityID: id,
				From:       origStart,
				To:         res.Dates[id].EarlyStart,
				Days:       moved,
				PrevDelay:  prevDelay,
			})
		}
	}

	after, err := lv.ledger.Conflicts(work, resources, assignments, settings.Range)
	if err != nil {
		return nil, err
	}
	session.ConflictsAfter = after
	session.Unresolved = after

	lv.logger.Info("leveling pass finished",
		"project_id", projectID,
		"mode", string(mode),
		"conflicts_before", len(before),
		"conflicts_after", len(after),
		"changes", len(session.Changes))
	return session, nil
}

// candidates returns conflicting, delay-eligible activity IDs ordered by
// descending total float, ties broken by earliest early start then ID.
func (lv *Leveler) candidates(work *network.Network, res *schedule.Result, assignments []*Assignment, conflicts []Conflict, tolerance int) []string {
	var out []string
	for _, a := range work.Activities() {
		d, ok := res.Dates[a.ID]
		if !ok || d.Critical || d.TotalFloat <= tolerance || !a.DelayAllowed {
			continue
		}
		if lv.activityConflicts(work, conflicts, assignments, a.ID) {
			out = append(out, a.ID)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := res.Dates[out[i]], res.Dates[out[j]]
		if di.TotalFloat != dj.TotalFloat {
			return di.TotalFloat > dj.TotalFloat
		}
		if !di.EarlyStart.Equal(dj.EarlyStart) {
			return di.EarlyStart.Before(dj.EarlyStart)
		}
		return out[i] < out[j]
	})
	return out
}

// activityConflicts reports whether any of the activity's assignments occupy
// a conflicted resource-day under the network's current computed dates.
func (lv *Leveler) activityConflicts(work *network.Network, conflicts []Conflict, assignments []*Assignment, id string) bool {
	if len(conflicts) == 0 {
		return false
	}

	conflictDays := make(map[string]map[time.Time]bool)
	for _, c := range conflicts {
		byDay := conflictDays[c.ResourceID]
		if byDay == nil {
			byDay = make(map[time.Time]bool)
			conflictDays[c.ResourceID] = byDay
		}
		byDay[c.Date] = true
	}

	for _, asg := range assignments {
		if asg.ActivityID != id {
			continue
		}
		byDay := conflictDays[asg.ResourceID]
		if byDay == nil {
			continue
		}
		a, err := work.Activity(id)
		if err != nil {
			continue
		}
		cal, err := lv.calendars.Get(a.CalendarID)
		if err != nil {
			continue
		}
		start, end := assignmentWindow(a, asg)
		for _, day := range workingDaysIn(cal, start, end) {
			if byDay[day] {
				return true
			}
		}
	}
	return false
}
