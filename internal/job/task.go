// internal/job/task.go

package job

import (
	"errors"
	"fmt"
)

// Tick is one unit of simulated processor time.
type Tick int64

// TaskID uniquely identifies a task in a task set.
type TaskID int

// ResourceID names a shared resource. NoResource marks a non-critical section.
type ResourceID int

const NoResource ResourceID = 0

var (
	ErrDuplicateTask     = errors.New("duplicate task id")
	ErrAperiodicDeadline = errors.New("aperiodic task must have a positive relative deadline")
	ErrBadSection        = errors.New("invalid section list")
	ErrBadTiming         = errors.New("invalid task timing")
)

// Section is a contiguous run of execution, holding Resource for Length ticks.
type Section struct {
	Resource ResourceID
	Length   Tick
}

// Task is an immutable periodic or aperiodic task descriptor.
type Task struct {
	ID               TaskID
	Period           Tick // negative for aperiodic tasks
	WCET             Tick
	RelativeDeadline Tick
	Offset           Tick
	Sections         []Section
	BasePriority     float64 // deadline monotonic: 1 / RelativeDeadline
}

// NewTask validates the descriptor and derives its base priority.
// A non-positive deadline on a periodic task defaults to the period.
func NewTask(id TaskID, period, wcet, deadline, offset Tick, sections []Section) (*Task, error) {
	if period == 0 {
		return nil, fmt.Errorf("task %d: zero period: %w", id, ErrBadTiming)
	}
	if deadline <= 0 {
		if period < 0 {
			return nil, fmt.Errorf("task %d: %w", id, ErrAperiodicDeadline)
		}
		deadline = period
	}
	if deadline <= 0 {
		return nil, fmt.Errorf("task %d: relative deadline %d: %w", id, deadline, ErrBadTiming)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("task %d: no sections: %w", id, ErrBadSection)
	}

	var sum Tick
	for i, sec := range sections {
		if sec.Length <= 0 {
			return nil, fmt.Errorf("task %d: section %d has length %d: %w", id, i, sec.Length, ErrBadSection)
		}
		sum += sec.Length
	}
	if sum != wcet {
		return nil, fmt.Errorf("task %d: sections sum to %d, wcet is %d: %w", id, sum, wcet, ErrBadSection)
	}

	return &Task{
		ID:               id,
		Period:           period,
		WCET:             wcet,
		RelativeDeadline: deadline,
		Offset:           offset,
		Sections:         append([]Section(nil), sections...),
		BasePriority:     1 / float64(deadline),
	}, nil
}

func (t *Task) Periodic() bool { return t.Period >= 0 }

// Utilization is wcet/period for periodic tasks and zero otherwise.
func (t *Task) Utilization() float64 {
	if !t.Periodic() || t.Period == 0 {
		return 0
	}
	return float64(t.WCET) / float64(t.Period)
}

// Uses reports whether any section of the task holds r.
func (t *Task) Uses(r ResourceID) bool {
	if r == NoResource {
		return false
	}
	for _, sec := range t.Sections {
		if sec.Resource == r {
			return true
		}
	}
	return false
}

// Resources lists the distinct resources the task locks, in section order.
func (t *Task) Resources() []ResourceID {
	var out []ResourceID
	seen := make(map[ResourceID]bool)
	for _, sec := range t.Sections {
		if sec.Resource == NoResource || seen[sec.Resource] {
			continue
		}
		seen[sec.Resource] = true
		out = append(out, sec.Resource)
	}
	return out
}

func (t *Task) String() string {
	return fmt.Sprintf("task %d: (O,T,C,D) = (%d, %d, %d, %d) %v",
		t.ID, t.Offset, t.Period, t.WCET, t.RelativeDeadline, t.Sections)
}
