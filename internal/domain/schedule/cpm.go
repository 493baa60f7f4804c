package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hardhatlabs/crane/internal/domain/calendar"
	"github.com/hardhatlabs/crane/internal/domain/network"
)

// Calculator runs calendar-aware forward and backward passes over an activity
// network. A full recompute is O(V+E) and cheap at construction-project
// scale, so no incremental algorithm exists.
type Calculator struct {
	calendars calendar.Set
	logger    *slog.Logger
}

// NewCalculator creates a calculator over a project's calendars.
func NewCalculator(calendars calendar.Set, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{calendars: calendars, logger: logger}
}

// farFuture is the backward-pass seed before successor bounds apply.
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Compute runs both passes and derives float and criticality. The network is
// not touched; callers commit the result with Result.Apply once it is known
// to be complete.
func (c *Calculator) Compute(n *network.Network, opts Options) (*Result, error) {
	order, err := n.TopoSort()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dates: make(map[string]*ActivityDates, len(order)),
		Order: order,
	}

	if err := c.forwardPass(n, order, opts, res); err != nil {
		return nil, err
	}
	if err := c.backwardPass(n, order, opts, res); err != nil {
		return nil, err
	}
	if err := c.deriveFloat(n, order, opts, res); err != nil {
		return nil, err
	}

	c.logger.Debug("critical path computed",
		"activities", len(order),
		"critical", len(res.CriticalPath),
		"project_finish", res.ProjectFinish.Format("2006-01-02"))
	return res, nil
}

func (c *Calculator) forwardPass(n *network.Network, order []string, opts Options, res *Result) error {
	for _, id := range order {
		a, err := n.Activity(id)
		if err != nil {
			return err
		}
		cal, err := c.calendars.Get(a.CalendarID)
		if err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}

		es, err := cal.NextWorkingDay(opts.ProjectStart)
		if err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}

		preds, err := n.Predecessors(id)
		if err != nil {
			return err
		}
		for _, dep := range preds {
			cand, err := c.earlyBound(n, dep, cal, a, res)
			if err != nil {
				return err
			}
			if cand.After(es) {
				es = cand
			}
		}

		if a.LevelingDelay > 0 {
			es, err = cal.AddWorkingDays(es, a.LevelingDelay)
			if err != nil {
				return fmt.Errorf("activity %s: %w", id, err)
			}
		}

		d := res.ensure(id)
		if err := c.applyConstraints(a, cal, es, d); err != nil {
			return err
		}

		if res.ProjectFinish.IsZero() || d.EarlyFinish.After(res.ProjectFinish) {
			res.ProjectFinish = d.EarlyFinish
		}
		if res.ProjectStart.IsZero() || d.EarlyStart.Before(res.ProjectStart) {
			res.ProjectStart = d.EarlyStart
		}
	}
	return nil
}

// earlyBound computes the earliest start the given dependency allows for its
// successor. The lag is normalized to the successor calendar's working days.
func (c *Calculator) earlyBound(n *network.Network, dep network.Dependency, cal *calendar.Calendar, succ *network.Activity, res *Result) (time.Time, error) {
	pred, err := n.Activity(dep.PredecessorID)
	if err != nil {
		return time.Time{}, err
	}
	pd, ok := res.Dates[pred.ID]
	if !ok {
		return time.Time{}, fmt.Errorf("predecessor %s not yet scheduled: %w", pred.ID, network.ErrCycle)
	}
	lag := dep.Lag.WorkingDays(pred.Duration, cal.DayLength())

	var (
		bound   time.Time
		onStart bool
	)
	switch dep.Type {
	case network.FinishToStart:
		bound, err = cal.AddWorkingDays(pd.EarlyFinish, lag+1)
		onStart = true
	case network.StartToStart:
		bound, err = cal.AddWorkingDays(pd.EarlyStart, lag)
		onStart = true
	case network.FinishToFinish:
		bound, err = cal.AddWorkingDays(pd.EarlyFinish, lag)
	case network.StartToFinish:
		bound, err = cal.AddWorkingDays(pd.EarlyStart, lag)
	default:
		return time.Time{}, fmt.Errorf("dependency type %q: %w", dep.Type, network.ErrInvalidInput)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("dependency %s -> %s: %w", dep.PredecessorID, dep.SuccessorID, err)
	}

	if onStart {
		return cal.NextWorkingDay(bound)
	}
	// The bound constrains the successor's finish; translate it to a start.
	finish, err := cal.NextWorkingDay(bound)
	if err != nil {
		return time.Time{}, err
	}
	return startForFinish(cal, succ.Duration, finish)
}

// applyConstraints settles an activity's early start and finish from the
// dependency-implied start, honoring hard date constraints. When a hard
// constraint disagrees with the dependency-implied window, the constraint
// wins and the activity is flagged rather than failing the pass.
func (c *Calculator) applyConstraints(a *network.Activity, cal *calendar.Calendar, impliedES time.Time, d *ActivityDates) error {
	es := impliedES
	conflict := false

	if a.ConstraintDate != nil {
		cd := calendar.Day(*a.ConstraintDate)
		switch a.Constraint {
		case network.ConstraintMustStartOn:
			want, err := cal.NextWorkingDay(cd)
			if err != nil {
				return err
			}
			if want.Before(impliedES) {
				conflict = true
			}
			es = want
		case network.ConstraintStartNoEarlier:
			floor, err := cal.NextWorkingDay(cd)
			if err != nil {
				return err
			}
			if floor.After(es) {
				es = floor
			}
		case network.ConstraintStartNoLater:
			limit, err := cal.PrevWorkingDay(cd)
			if err != nil {
				return err
			}
			if es.After(limit) {
				conflict = true
				es = limit
			}
		}
	}

	ef, err := finishForStart(cal, a.Duration, es)
	if err != nil {
		return err
	}

	if a.ConstraintDate != nil {
		cd := calendar.Day(*a.ConstraintDate)
		switch a.Constraint {
		case network.ConstraintMustFinishOn:
			want, err := cal.PrevWorkingDay(cd)
			if err != nil {
				return err
			}
			if want.Before(ef) {
				conflict = true
			}
			ef = want
			es, err = startForFinish(cal, a.Duration, ef)
			if err != nil {
				return err
			}
		case network.ConstraintFinishNoEarlier:
			floor, err := cal.NextWorkingDay(cd)
			if err != nil {
				return err
			}
			// The activity waits without moving its start.
			if floor.After(ef) {
				ef = floor
			}
		case network.ConstraintFinishNoLater:
			limit, err := cal.PrevWorkingDay(cd)
			if err != nil {
				return err
			}
			if ef.After(limit) {
				conflict = true
				ef = limit
				es, err = startForFinish(cal, a.Duration, ef)
				if err != nil {
					return err
				}
			}
		}
	}

	d.EarlyStart = es
	d.EarlyFinish = ef
	d.ConstraintConflict = conflict
	return nil
}

func (c *Calculator) backwardPass(n *network.Network, order []string, opts Options, res *Result) error {
	finish := res.ProjectFinish
	if opts.TargetFinish != nil {
		finish = calendar.Day(*opts.TargetFinish)
	}

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		a, err := n.Activity(id)
		if err != nil {
			return err
		}
		cal, err := c.calendars.Get(a.CalendarID)
		if err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}

		lf := farFuture
		succs, err := n.Successors(id)
		if err != nil {
			return err
		}
		if len(succs) == 0 {
			lf, err = cal.PrevWorkingDay(finish)
			if err != nil {
				return fmt.Errorf("activity %s: %w", id, err)
			}
		}
		for _, dep := range succs {
			cand, err := c.lateBound(n, dep, cal, a, res)
			if err != nil {
				return err
			}
			if cand.Before(lf) {
				lf = cand
			}
		}

		// Hard date constraints pin late dates the same way they pin early
		// ones, so constrained activities show zero float.
		d := res.Dates[id]
		if a.ConstraintDate != nil {
			switch a.Constraint {
			case network.ConstraintMustStartOn:
				cand, err := finishForStart(cal, a.Duration, d.EarlyStart)
				if err != nil {
					return err
				}
				if cand.Before(lf) {
					lf = cand
				}
			case network.ConstraintMustFinishOn, network.ConstraintFinishNoLater:
				limit, err := cal.PrevWorkingDay(calendar.Day(*a.ConstraintDate))
				if err != nil {
					return err
				}
				if limit.Before(lf) {
					lf = limit
				}
			}
		}

		ls, err := startForFinish(cal, a.Duration, lf)
		if err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}
		d.LateStart = ls
		d.LateFinish = lf
	}
	return nil
}

// lateBound computes the latest finish the given dependency allows for its
// predecessor.
func (c *Calculator) lateBound(n *network.Network, dep network.Dependency, cal *calendar.Calendar, pred *network.Activity, res *Result) (time.Time, error) {
	succ, err := n.Activity(dep.SuccessorID)
	if err != nil {
		return time.Time{}, err
	}
	sd, ok := res.Dates[succ.ID]
	if !ok || sd.LateStart.IsZero() {
		return time.Time{}, fmt.Errorf("successor %s not yet scheduled: %w", succ.ID, network.ErrCycle)
	}
	scal, err := c.calendars.Get(succ.CalendarID)
	if err != nil {
		return time.Time{}, fmt.Errorf("activity %s: %w", succ.ID, err)
	}
	lag := dep.Lag.WorkingDays(pred.Duration, scal.DayLength())

	var (
		bound   time.Time
		onStart bool
	)
	switch dep.Type {
	case network.FinishToStart:
		bound, err = scal.AddWorkingDays(sd.LateStart, -(lag + 1))
	case network.StartToStart:
		bound, err = scal.AddWorkingDays(sd.LateStart, -lag)
		onStart = true
	case network.FinishToFinish:
		bound, err = scal.AddWorkingDays(sd.LateFinish, -lag)
	case network.StartToFinish:
		bound, err = scal.AddWorkingDays(sd.LateFinish, -lag)
		onStart = true
	default:
		return time.Time{}, fmt.Errorf("dependency type %q: %w", dep.Type, network.ErrInvalidInput)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("dependency %s -> %s: %w", dep.PredecessorID, dep.SuccessorID, err)
	}

	if !onStart {
		return cal.PrevWorkingDay(bound)
	}
	// The bound constrains the predecessor's start; translate it to a finish.
	start, err := cal.PrevWorkingDay(bound)
	if err != nil {
		return time.Time{}, err
	}
	return finishForStart(cal, pred.Duration, start)
}

func (c *Calculator) deriveFloat(n *network.Network, order []string, opts Options, res *Result) error {
	for _, id := range order {
		a, err := n.Activity(id)
		if err != nil {
			return err
		}
		cal, err := c.calendars.Get(a.CalendarID)
		if err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}
		d := res.Dates[id]
		d.TotalFloat = cal.CountWorkingDays(d.EarlyStart, d.LateStart)

		succs, err := n.Successors(id)
		if err != nil {
			return err
		}
		if len(succs) == 0 {
			d.FreeFloat = d.TotalFloat
		} else {
			minSuccES := farFuture
			for _, dep := range succs {
				sd := res.Dates[dep.SuccessorID]
				if sd.EarlyStart.Before(minSuccES) {
					minSuccES = sd.EarlyStart
				}
			}
			free := cal.CountWorkingDays(d.EarlyFinish, minSuccES) - 1
			if free < 0 {
				free = 0
			}
			d.FreeFloat = free
		}

		d.Critical = d.TotalFloat <= opts.Tolerance
		if d.Critical {
			res.CriticalPath = append(res.CriticalPath, id)
		}
		if d.ConstraintConflict {
			res.ConstraintConflicts = append(res.ConstraintConflicts, id)
		}

		// ALAP activities are reported at their late dates; float is kept so
		// leveling still knows the true room.
		if a.Constraint == network.ConstraintALAP {
			d.EarlyStart = d.LateStart
			d.EarlyFinish = d.LateFinish
		}
	}
	return nil
}

// Apply commits the result onto the network's activities, replacing every
// computed block as a whole.
func (r *Result) Apply(n *network.Network) error {
	for id, d := range r.Dates {
		a, err := n.Activity(id)
		if err != nil {
			return err
		}
		a.Computed = network.Computed{
			EarlyStart:         d.EarlyStart,
			EarlyFinish:        d.EarlyFinish,
			LateStart:          d.LateStart,
			LateFinish:         d.LateFinish,
			TotalFloat:         d.TotalFloat,
			FreeFloat:          d.FreeFloat,
			Critical:           d.Critical,
			ConstraintConflict: d.ConstraintConflict,
		}
	}
	return nil
}

func (r *Result) ensure(id string) *ActivityDates {
	d, ok := r.Dates[id]
	if !ok {
		d = &ActivityDates{ActivityID: id}
		r.Dates[id] = d
	}
	return d
}

// finishForStart returns the finish of an activity starting on the given
// working day. Milestones finish the day they start.
func finishForStart(cal *calendar.Calendar, duration int, start time.Time) (time.Time, error) {
	if duration <= 0 {
		return start, nil
	}
	return cal.AddWorkingDays(start, duration-1)
}

// startForFinish is the inverse of finishForStart.
func startForFinish(cal *calendar.Calendar, duration int, finish time.Time) (time.Time, error) {
	if duration <= 0 {
		return finish, nil
	}
	return cal.AddWorkingDays(finish, -(duration - 1))
}
