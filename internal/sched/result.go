package sched

import "dmsched/internal/job"

// Result is the outcome of one protocol run.
type Result struct {
	Protocol    Protocol
	Horizon     job.Tick
	End         job.Tick // clock value when the run stopped
	Utilization float64
	Overloaded  bool // utilization above one, infeasible before simulating

	OnTime  []*job.Job
	Missed  []*job.Job
	Pending []*job.Job // unfinished with a deadline beyond End, or never released

	Timeline []ExecEvent
	Markers  []Marker

	MaxStackDepth int // deepest preemption stack, PIP only

	// Violations counts protocol invariant breaks that were skipped over.
	Violations int
}

// Feasible reports whether the task set met every deadline.
func (r *Result) Feasible() bool {
	return !r.Overloaded && len(r.Missed) == 0
}
