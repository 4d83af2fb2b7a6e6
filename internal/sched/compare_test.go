package sched

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"dmsched/internal/job"
)

func TestCompareRunsEveryProtocol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 100

	var sims atomic.Int32
	results, err := Compare(context.Background(), cfg, blockingPlan(t, 5), func(s *Simulation) {
		s.SetLogger(quiet())
		sims.Add(1)
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), sims.Load())
	require.Len(t, results, 3)

	for _, p := range Protocols {
		res, ok := results[p]
		require.True(t, ok, p)
		require.Equal(t, p, res.Protocol)
		require.True(t, res.Feasible(), p)
		require.Len(t, res.OnTime, 7, p)
	}
	// the ceiling and inheritance produce the same schedule here
	require.Equal(t, results[PIP].Timeline, results[HLP].Timeline)
}

func TestCompareSubset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 100
	cfg.Workers = 1

	results, err := Compare(context.Background(), cfg, blockingPlan(t, 8), func(s *Simulation) { s.SetLogger(quiet()) }, NPP)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[NPP].Feasible())
	require.Equal(t, job.TaskID(1), results[NPP].Missed[0].Task)
}

func TestCompareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compare(ctx, DefaultConfig(), blockingPlan(t, 5), func(s *Simulation) { s.SetLogger(quiet()) })
	require.ErrorIs(t, err, context.Canceled)
}
