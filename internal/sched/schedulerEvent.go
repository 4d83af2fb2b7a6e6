// internal/sched/schedulerEvent.go

package sched

import "dmsched/internal/job"

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusRelease
	StatusDispatch
	StatusPreempt
	StatusInherit
	StatusBoost
	StatusTick
	StatusComplete
	StatusMiss
)

// StatusEvent is emitted every tick or on key actions
type StatusEvent struct {
	Tick     job.Tick
	Kind     StatusKind
	TaskID   job.TaskID
	JobID    int
	Resource job.ResourceID
	Priority float64
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusRelease:
		return "Release"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusInherit:
		return "Inherit"
	case StatusBoost:
		return "Boost"
	case StatusTick:
		return "Tick"
	case StatusComplete:
		return "Complete"
	case StatusMiss:
		return "Miss"
	default:
		return "Unknown"
	}
}

// ExecEvent is one tick of execution on the processor.
type ExecEvent struct {
	Task     job.TaskID
	Job      int
	Resource job.ResourceID
	Start    job.Tick
	Duration job.Tick
}

// Marker carries the release and absolute deadline of a job for timelines.
type Marker struct {
	Task     job.TaskID
	Job      int
	Release  job.Tick
	Deadline job.Tick
}
