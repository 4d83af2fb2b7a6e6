// internal/sched/protocol.go

package sched

import (
	"fmt"
	"strings"

	"dmsched/internal/job"
)

// Protocol names a resource access protocol.
type Protocol string

const (
	NPP Protocol = "NPP" // non-preemptive critical sections
	HLP Protocol = "HLP" // highest locker priority
	PIP Protocol = "PIP" // priority inheritance
)

// Protocols lists every supported protocol.
var Protocols = []Protocol{NPP, HLP, PIP}

func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case NPP, HLP, PIP:
		return p, nil
	default:
		return "", fmt.Errorf("unknown protocol %q", s)
	}
}

// Policy holds the preemption and priority adjustment rules of a protocol.
type Policy interface {
	Protocol() Protocol
	// BeforeTick runs after release admission and before the running job
	// executes its next tick. Returning true makes the job yield.
	BeforeTick(s *Simulation, j *job.Job) bool
	// AfterTick runs once the tick has been executed under held; released
	// is set when the tick ended the job's section.
	AfterTick(s *Simulation, j *job.Job, held job.ResourceID, released bool)
}

func NewPolicy(p Protocol) (Policy, error) {
	switch p {
	case NPP:
		return nppPolicy{}, nil
	case HLP:
		return hlpPolicy{}, nil
	case PIP:
		return pipPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", p)
	}
}

// nppPolicy never interrupts a job inside a critical section it has begun.
type nppPolicy struct{}

func (nppPolicy) Protocol() Protocol { return NPP }

func (nppPolicy) BeforeTick(s *Simulation, j *job.Job) bool {
	if j.Holding() {
		return false
	}
	return j.Priority < s.ready.MaxPriority()
}

func (nppPolicy) AfterTick(*Simulation, *job.Job, job.ResourceID, bool) {}

// hlpPolicy raises a lock holder above every task that may ever use the lock.
type hlpPolicy struct{}

func (hlpPolicy) Protocol() Protocol { return HLP }

func (hlpPolicy) BeforeTick(s *Simulation, j *job.Job) bool {
	if j.Priority < s.ready.MaxPriority() {
		return true
	}
	if r := j.Resource(); r != job.NoResource {
		boosted := max(s.tasks.Ceiling(r), j.BasePriority) + s.cfg.Epsilon
		if boosted != j.Priority {
			j.Priority = boosted
			s.emit(StatusBoost, j, r)
		}
	}
	return false
}

func (hlpPolicy) AfterTick(*Simulation, *job.Job, job.ResourceID, bool) {}

// pipPolicy lends the priority of a blocked job to the preempted holder of
// the lock it wants.
type pipPolicy struct{}

func (pipPolicy) Protocol() Protocol { return PIP }

func (pipPolicy) BeforeTick(s *Simulation, j *job.Job) bool {
	if r := j.Resource(); j.Entering() {
		for {
			holder, ok := s.stack.Take(r)
			if !ok {
				break
			}
			if !holder.Holding() || holder.Resource() != r {
				s.violation("Stale preemption entry", holder, r)
				continue
			}
			// the holder keeps the lock until it releases it, so it stays
			// on top of the stack for the next contender
			holder.Priority = max(j.Priority, holder.Priority) + s.cfg.Epsilon
			s.stack.Push(r, holder)
			s.ready.Resort()
			s.emit(StatusInherit, holder, r)
			return true
		}
	}
	if j.Priority < s.ready.MaxPriority() {
		if j.Holding() {
			s.stack.Push(j.Resource(), j)
		}
		return true
	}
	return false
}

func (pipPolicy) AfterTick(s *Simulation, j *job.Job, held job.ResourceID, released bool) {
	switch {
	case j.Completed():
		s.stack.Drop(job.NoResource, j)
	case released && held != job.NoResource:
		s.stack.Drop(held, j)
	}
}
