package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/panjf2000/ants/v2"

	"dmsched/internal/job"
)

type compareRun struct {
	protocol Protocol
	sim      *Simulation
}

// Compare runs the plan under each protocol concurrently, each on its own
// fresh set of jobs. With no protocols given every supported one is run.
// The observe hook, when set, is called for each simulation before it starts.
func Compare(ctx context.Context, cfg Config, plan job.Plan, observe func(*Simulation), protocols ...Protocol) (map[Protocol]*Result, error) {
	cfg = cfg.sanitize()
	if len(protocols) == 0 {
		protocols = Protocols
	}

	results := haxmap.New[Protocol, *Result]()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	pool, err := ants.NewPoolWithFunc(min(cfg.Workers, len(protocols)), func(input interface{}) {
		defer wg.Done()
		run := input.(*compareRun)
		res, err := run.sim.Run(ctx)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", run.protocol, err))
			mu.Unlock()
			return
		}
		results.Set(run.protocol, res)
	})
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	for _, p := range protocols {
		policy, err := NewPolicy(p)
		if err != nil {
			return nil, err
		}
		sim := New(cfg, policy, plan)
		if observe != nil {
			observe(sim)
		}
		wg.Add(1)
		if err := pool.Invoke(&compareRun{protocol: p, sim: sim}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	out := make(map[Protocol]*Result, len(protocols))
	results.ForEach(func(p Protocol, r *Result) bool {
		out[p] = r
		return true
	})
	return out, nil
}
