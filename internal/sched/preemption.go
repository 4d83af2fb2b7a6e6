package sched

import (
	"github.com/emirpasic/gods/lists/arraylist"

	"dmsched/internal/job"
)

// preempted records a job that lost the processor while holding resource.
type preempted struct {
	resource job.ResourceID
	job      *job.Job
}

// PreemptionStack keeps preempted lock holders, most recent on top, so that
// inheritance unwinds in the reverse order of lock acquisition.
type PreemptionStack struct {
	list     *arraylist.List
	maxDepth int
}

func NewPreemptionStack() *PreemptionStack {
	return &PreemptionStack{list: arraylist.New()}
}

// Push records that j was preempted while holding r. A pair already on the
// stack is not recorded twice.
func (s *PreemptionStack) Push(r job.ResourceID, j *job.Job) {
	if s.list.IndexOf(preempted{r, j}) >= 0 {
		return
	}
	s.list.Add(preempted{r, j})
	s.maxDepth = max(s.maxDepth, s.list.Size())
}

// Take removes and returns the most recent holder of r.
func (s *PreemptionStack) Take(r job.ResourceID) (*job.Job, bool) {
	for i := s.list.Size() - 1; i >= 0; i-- {
		v, _ := s.list.Get(i)
		if p := v.(preempted); p.resource == r {
			s.list.Remove(i)
			return p.job, true
		}
	}
	return nil, false
}

// Drop forgets every entry of j holding r, or of j holding anything when r is
// NoResource, and reports whether there was one.
func (s *PreemptionStack) Drop(r job.ResourceID, j *job.Job) bool {
	dropped := false
	for i := s.list.Size() - 1; i >= 0; i-- {
		v, _ := s.list.Get(i)
		if p := v.(preempted); p.job == j && (r == job.NoResource || p.resource == r) {
			s.list.Remove(i)
			dropped = true
		}
	}
	return dropped
}

func (s *PreemptionStack) Depth() int { return s.list.Size() }

// MaxDepth is the deepest the stack has been.
func (s *PreemptionStack) MaxDepth() int { return s.maxDepth }
