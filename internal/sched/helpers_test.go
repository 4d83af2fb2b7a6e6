package sched

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"dmsched/internal/job"
)

func quiet() log.Logger {
	l := log.New()
	l.SetHandler(log.DiscardHandler())
	return l
}

func task(t *testing.T, id job.TaskID, period, deadline, offset job.Tick, sections ...job.Section) *job.Task {
	t.Helper()
	var wcet job.Tick
	for _, sec := range sections {
		wcet += sec.Length
	}
	tk, err := job.NewTask(id, period, wcet, deadline, offset, sections)
	require.NoError(t, err)
	return tk
}

func plan(t *testing.T, w job.Window, tasks ...*job.Task) job.Plan {
	t.Helper()
	ts := job.NewTaskSet()
	for _, tk := range tasks {
		require.NoError(t, ts.Add(tk))
	}
	p, err := ts.Admit(ts.Expand(w), quiet())
	require.NoError(t, err)
	return p
}

// simulate runs p under protocol and returns the result with every status
// event that was emitted.
func simulate(t *testing.T, protocol Protocol, p job.Plan, horizon int64) (*Result, []StatusEvent) {
	t.Helper()
	policy, err := NewPolicy(protocol)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Horizon = horizon
	sim := New(cfg, policy, p)
	sim.SetLogger(quiet())

	var events []StatusEvent
	sim.Subscribe(func(ev StatusEvent) { events = append(events, ev) })

	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.Violations)
	return res, events
}

// ticksOf lists the start ticks at which the task executed while holding r.
// Any resource matches when r is negative.
func ticksOf(res *Result, id job.TaskID, r job.ResourceID) []job.Tick {
	var out []job.Tick
	for _, ev := range res.Timeline {
		if ev.Task == id && (r < 0 || ev.Resource == r) {
			out = append(out, ev.Start)
		}
	}
	return out
}

func finishedAt(t *testing.T, res *Result, id job.TaskID, seq int) job.Tick {
	t.Helper()
	for _, j := range append(append([]*job.Job{}, res.OnTime...), res.Missed...) {
		if j.Task == id && j.ID == seq {
			return j.Finished
		}
	}
	require.Failf(t, "job not finished", "[%d:%d]", id, seq)
	return 0
}

func requireContiguous(t *testing.T, ticks []job.Tick) {
	t.Helper()
	for i := 1; i < len(ticks); i++ {
		require.Equal(t, ticks[i-1]+1, ticks[i], "ticks %v are not contiguous", ticks)
	}
}
