// internal/job/taskset.go

package job

import (
	"errors"
	"fmt"
	"math"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/ledgerwatch/log/v3"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrUnknownTask  = errors.New("unknown task id")
	ErrNonMonotonic = errors.New("release time of job is not monotonic")
	ErrUnderSpaced  = errors.New("release times are not separated by period")
)

// TaskSet owns every Task of a simulation, ordered by task id.
type TaskSet struct {
	tasks *treemap.Map // int(TaskID) -> *Task
}

func NewTaskSet() *TaskSet {
	return &TaskSet{tasks: treemap.NewWithIntComparator()}
}

// Add inserts t unless a task with the same id is already present.
func (ts *TaskSet) Add(t *Task) error {
	if _, dup := ts.tasks.Get(int(t.ID)); dup {
		return fmt.Errorf("task %d: %w", t.ID, ErrDuplicateTask)
	}
	ts.tasks.Put(int(t.ID), t)
	return nil
}

func (ts *TaskSet) Get(id TaskID) (*Task, bool) {
	v, ok := ts.tasks.Get(int(id))
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

func (ts *TaskSet) Len() int { return ts.tasks.Size() }

// Tasks returns the tasks in ascending id order.
func (ts *TaskSet) Tasks() []*Task {
	out := make([]*Task, 0, ts.tasks.Size())
	ts.Each(func(t *Task) { out = append(out, t) })
	return out
}

func (ts *TaskSet) Each(fn func(t *Task)) {
	ts.tasks.Each(func(_, v interface{}) { fn(v.(*Task)) })
}

// Utilization is the sum of wcet/period over the periodic tasks.
func (ts *TaskSet) Utilization() float64 {
	us := make([]float64, 0, ts.Len())
	ts.Each(func(t *Task) { us = append(us, t.Utilization()) })
	return floats.Sum(us)
}

// Ceiling is the highest base priority among the tasks that use r, or -Inf
// when none does.
func (ts *TaskSet) Ceiling(r ResourceID) float64 {
	ceil := math.Inf(-1)
	ts.Each(func(t *Task) {
		if t.Uses(r) && t.BasePriority > ceil {
			ceil = t.BasePriority
		}
	})
	return ceil
}

// Resources lists every resource used by the set, in first-use order by task id.
func (ts *TaskSet) Resources() []ResourceID {
	var out []ResourceID
	seen := make(map[ResourceID]bool)
	ts.Each(func(t *Task) {
		for _, r := range t.Resources() {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	})
	return out
}

// Release asks for a job of Task at time At.
type Release struct {
	At   Tick
	Task TaskID
}

// Window is the half-open schedule interval [Start, End).
type Window struct {
	Start, End Tick
}

// Expand derives the periodic and aperiodic releases inside w.
func (ts *TaskSet) Expand(w Window) []Release {
	var out []Release
	ts.Each(func(t *Task) {
		at := max(t.Offset, w.Start)
		for at < w.End {
			out = append(out, Release{At: at, Task: t.ID})
			if !t.Periodic() || t.Period == 0 {
				break
			}
			at += t.Period
		}
	})
	return out
}

// Plan is a validated release schedule. Every call to Jobs spawns a fresh,
// independent set of jobs from it.
type Plan struct {
	tasks    *TaskSet
	releases []Release
	ids      []int
}

// releaseMark tracks the last accepted release of a task.
type releaseMark struct {
	lastID  int
	last    Tick
	started bool
}

// Admit applies the sporadic admission rule to every release: releases of a
// task must be strictly increasing and separated by at least one period.
// Rejected releases are logged and skipped; their errors are returned joined
// alongside the plan of accepted ones.
func (ts *TaskSet) Admit(releases []Release, logger log.Logger) (Plan, error) {
	plan := Plan{tasks: ts}
	marks := make(map[TaskID]*releaseMark)
	var errs []error

	for _, rel := range releases {
		id, err := ts.spawn(marks, rel)
		if err != nil {
			logger.Warn("Rejected job release", "task", rel.Task, "at", rel.At, "err", err)
			errs = append(errs, err)
			continue
		}
		plan.releases = append(plan.releases, rel)
		plan.ids = append(plan.ids, id)
	}
	return plan, errors.Join(errs...)
}

func (ts *TaskSet) spawn(marks map[TaskID]*releaseMark, rel Release) (int, error) {
	t, ok := ts.Get(rel.Task)
	if !ok {
		return 0, fmt.Errorf("release at %d: task %d: %w", rel.At, rel.Task, ErrUnknownTask)
	}

	m := marks[t.ID]
	if m == nil {
		m = &releaseMark{}
		marks[t.ID] = m
	}
	if m.started {
		if rel.At <= m.last {
			return 0, fmt.Errorf("task %d: release %d after %d: %w", t.ID, rel.At, m.last, ErrNonMonotonic)
		}
		if t.Periodic() && rel.At < m.last+t.Period {
			return 0, fmt.Errorf("task %d: release %d after %d with period %d: %w", t.ID, rel.At, m.last, t.Period, ErrUnderSpaced)
		}
	}

	m.started = true
	m.last = rel.At
	m.lastID++
	return m.lastID, nil
}

func (p Plan) Tasks() *TaskSet { return p.tasks }

func (p Plan) Releases() []Release { return append([]Release(nil), p.releases...) }

func (p Plan) Len() int { return len(p.releases) }

// Jobs spawns one job per accepted release.
func (p Plan) Jobs() []*Job {
	out := make([]*Job, 0, len(p.releases))
	for i, rel := range p.releases {
		t, _ := p.tasks.Get(rel.Task)
		out = append(out, newJob(t, p.ids[i], rel.At))
	}
	return out
}
