package sched

import (
	"math"

	"github.com/emirpasic/gods/trees/redblacktree"

	"dmsched/internal/job"
)

// ReadyQueue holds released, unfinished jobs ordered by dynamic priority,
// highest first. The order key is captured when a job is pushed, so after
// changing the Priority of a queued job callers must Resort before the next
// Pop, Peek or MaxPriority.
type ReadyQueue struct {
	rbt *redblacktree.Tree
}

func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{rbt: redblacktree.NewWith(readyCmp)}
}

func (q *ReadyQueue) Push(j *job.Job) {
	q.rbt.Put(readyKeyOf(j), j)
}

// Pop removes and returns the highest priority job, or nil.
func (q *ReadyQueue) Pop() *job.Job {
	node := q.rbt.Left()
	if node == nil {
		return nil
	}
	q.rbt.Remove(node.Key)
	return node.Value.(*job.Job)
}

func (q *ReadyQueue) Peek() *job.Job {
	node := q.rbt.Left()
	if node == nil {
		return nil
	}
	return node.Value.(*job.Job)
}

// MaxPriority is the priority of the head job, or -Inf if the queue is empty.
func (q *ReadyQueue) MaxPriority() float64 {
	node := q.rbt.Left()
	if node == nil {
		return math.Inf(-1)
	}
	return node.Key.(readyKey).priority
}

// Resort rebuilds the order from the jobs' current priorities.
func (q *ReadyQueue) Resort() {
	jobs := q.Jobs()
	q.rbt.Clear()
	for _, j := range jobs {
		q.Push(j)
	}
}

// Jobs returns the queued jobs in queue order.
func (q *ReadyQueue) Jobs() []*job.Job {
	out := make([]*job.Job, 0, q.rbt.Size())
	for _, v := range q.rbt.Values() {
		out = append(out, v.(*job.Job))
	}
	return out
}

func (q *ReadyQueue) Len() int { return q.rbt.Size() }

func (q *ReadyQueue) Empty() bool { return q.rbt.Empty() }

// readyKey orders by priority descending, then release, task and job ascending.
type readyKey struct {
	priority float64
	release  job.Tick
	task     job.TaskID
	id       int
}

func readyKeyOf(j *job.Job) readyKey {
	return readyKey{priority: j.Priority, release: j.Release, task: j.Task, id: j.ID}
}

func readyCmp(a, b any) int {
	ka, kb := a.(readyKey), b.(readyKey)
	switch {
	case ka.priority > kb.priority:
		return -1
	case ka.priority < kb.priority:
		return 1
	case ka.release < kb.release:
		return -1
	case ka.release > kb.release:
		return 1
	case ka.task < kb.task:
		return -1
	case ka.task > kb.task:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
