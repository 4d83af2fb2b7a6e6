package sched

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"dmsched/internal/job"
)

func TestReadyQueueOrder(t *testing.T) {
	p := plan(t, job.Window{Start: 0, End: 1},
		task(t, 1, 20, 0, 0, job.Section{Length: 1}),
		task(t, 2, 10, 0, 0, job.Section{Length: 1}),
		task(t, 3, 20, 0, 0, job.Section{Length: 1}),
	)
	q := NewReadyQueue()
	require.True(t, q.Empty())
	require.Nil(t, q.Pop())
	require.Nil(t, q.Peek())
	require.True(t, math.IsInf(q.MaxPriority(), -1))

	for _, j := range p.Jobs() {
		q.Push(j)
	}
	require.Equal(t, 3, q.Len())
	require.InDelta(t, 0.1, q.MaxPriority(), 1e-12)

	var order []job.TaskID
	for !q.Empty() {
		order = append(order, q.Pop().Task)
	}
	// equal priorities fall back to task id
	require.Equal(t, []job.TaskID{2, 1, 3}, order)
}

func TestReadyQueueResortAfterMutation(t *testing.T) {
	p := plan(t, job.Window{Start: 0, End: 1},
		task(t, 1, 10, 0, 0, job.Section{Length: 1}),
		task(t, 2, 40, 0, 0, job.Section{Length: 1}),
	)
	jobs := p.Jobs()
	q := NewReadyQueue()
	for _, j := range jobs {
		q.Push(j)
	}
	require.Equal(t, job.TaskID(1), q.Peek().Task)

	low := jobs[1]
	low.Priority = 0.5
	// the stale key still decides until the queue is resorted
	require.Equal(t, job.TaskID(1), q.Peek().Task)

	q.Resort()
	require.Equal(t, job.TaskID(2), q.Peek().Task)
	require.Equal(t, 0.5, q.MaxPriority())
	require.Equal(t, 2, q.Len())
	require.Equal(t, low, q.Pop())
}

func TestPreemptionStackLIFO(t *testing.T) {
	p := plan(t, job.Window{Start: 0, End: 1},
		task(t, 1, 10, 0, 0, job.Section{Resource: 1, Length: 2}),
		task(t, 2, 20, 0, 0, job.Section{Resource: 1, Length: 2}),
		task(t, 3, 30, 0, 0, job.Section{Resource: 2, Length: 2}),
	)
	jobs := p.Jobs()
	s := NewPreemptionStack()

	s.Push(1, jobs[0])
	s.Push(2, jobs[2])
	s.Push(1, jobs[1])
	s.Push(1, jobs[1])
	require.Equal(t, 3, s.Depth())
	require.Equal(t, 3, s.MaxDepth())

	got, ok := s.Take(1)
	require.True(t, ok)
	require.Equal(t, jobs[1], got)

	_, ok = s.Take(3)
	require.False(t, ok)

	require.True(t, s.Drop(2, jobs[2]))
	require.False(t, s.Drop(2, jobs[2]))
	require.True(t, s.Drop(job.NoResource, jobs[0]))
	require.Zero(t, s.Depth())
	require.Equal(t, 3, s.MaxDepth())
}
