// internal/sched/scheduler.go

package sched

import (
	"context"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/ledgerwatch/log/v3"

	"dmsched/internal/job"
)

// Simulation is the discrete-time scheduling context of one protocol run.
type Simulation struct {
	cfg     Config
	policy  Policy
	tasks   *job.TaskSet
	horizon job.Tick
	log     log.Logger

	clock  *TickClock         // simulated time
	future *redblacktree.Tree // not yet released jobs, ordered by release
	ready  *ReadyQueue        // released, unfinished jobs
	stack  *PreemptionStack   // preempted lock holders (PIP)

	onTime     []*job.Job
	missed     []*job.Job
	timeline   []ExecEvent
	markers    []Marker
	violations int

	observers []func(StatusEvent)
}

// New creates a simulation of the plan's jobs under policy.
func New(cfg Config, policy Policy, plan job.Plan) *Simulation {
	cfg = cfg.sanitize()
	s := &Simulation{
		cfg:     cfg,
		policy:  policy,
		tasks:   plan.Tasks(),
		horizon: job.Tick(cfg.Horizon),
		log:     log.New("protocol", policy.Protocol()),
		clock:   NewTickClock(256),
		future:  redblacktree.NewWith(futureCmp),
		ready:   NewReadyQueue(),
		stack:   NewPreemptionStack(),
	}
	if s.tasks == nil {
		s.tasks = job.NewTaskSet()
	}
	for _, j := range plan.Jobs() {
		s.future.Put(futureKeyOf(j), j)
		s.markers = append(s.markers, Marker{Task: j.Task, Job: j.ID, Release: j.Release, Deadline: j.Deadline})
	}
	return s
}

// Subscribe registers fn to receive every status event. Must be called
// before Run().
func (s *Simulation) Subscribe(fn func(StatusEvent)) {
	s.observers = append(s.observers, fn)
}

func (s *Simulation) Protocol() Protocol { return s.policy.Protocol() }

// SetLogger replaces the simulation's logger.
func (s *Simulation) SetLogger(l log.Logger) { s.log = l }

// Run simulates until the horizon or until every job is disposed of.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.cfg.TickMS > 0 {
		s.clock.Start(time.Duration(s.cfg.TickMS) * time.Millisecond)
	}
	defer s.clock.Stop()

	util := s.tasks.Utilization()
	overloaded := util > 1
	if overloaded {
		s.log.Warn("Task set is not feasible", "utilization", util)
	}
	s.log.Info("Validating the schedule", "jobs", s.future.Size(), "horizon", s.horizon)

	if err := s.loop(ctx); err != nil {
		return nil, err
	}

	res := s.result(util, overloaded)
	if res.Feasible() {
		s.log.Info("No deadlines are missed, the schedule is feasible", "completed", len(res.OnTime), "pending", len(res.Pending))
	} else {
		s.log.Info("The schedule is not feasible", "missed", len(res.Missed), "overloaded", overloaded)
	}
	return res, nil
}

// loop runs the main dispatch loop, which is responsible for selecting the next job
func (s *Simulation) loop(ctx context.Context) error {
	for s.clock.Now() < s.horizon {
		// 1) check shutdown
		if err := ctx.Err(); err != nil {
			return err
		}

		// 2) release what is due, stop once everything is disposed of
		s.admitReleasedJobs()
		if s.future.Empty() && s.ready.Empty() {
			return nil
		}

		// 3) idle case: nothing ready, still spend the tick
		j := s.ready.Pop()
		if j == nil {
			s.emit(StatusIdle, nil, job.NoResource)
			if err := s.clock.Advance(ctx); err != nil {
				return err
			}
			continue
		}

		// 4) run the highest priority job until it yields or completes
		s.emit(StatusDispatch, j, j.Resource())
		if err := s.dispatch(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

// dispatch executes j tick by tick. Within a tick admission comes first,
// then the protocol's priority decision, then the execution itself.
func (s *Simulation) dispatch(ctx context.Context, j *job.Job) error {
	for s.clock.Now() < s.horizon {
		s.admitReleasedJobs()
		if s.policy.BeforeTick(s, j) {
			s.ready.Push(j)
			s.emit(StatusPreempt, j, j.Resource())
			return nil
		}

		now := s.clock.Now()
		section := j.Section()
		held, _ := j.Step()
		s.timeline = append(s.timeline, ExecEvent{Task: j.Task, Job: j.ID, Resource: held, Start: now, Duration: 1})
		s.emit(StatusTick, j, held)
		if err := s.clock.Advance(ctx); err != nil {
			return err
		}

		s.policy.AfterTick(s, j, held, j.Completed() || j.Section() != section)
		if s.checkCompletion(j) {
			return nil
		}
	}

	// horizon reached mid-dispatch; leave the job for the final classification
	s.ready.Push(j)
	return nil
}

// admitReleasedJobs moves every future job whose release time has come into
// the ready queue.
func (s *Simulation) admitReleasedJobs() {
	now := s.clock.Now()
	for {
		node := s.future.Left()
		if node == nil || node.Key.(futureKey).release > now {
			return
		}
		s.future.Remove(node.Key)
		j := node.Value.(*job.Job)
		s.ready.Push(j)
		s.emit(StatusRelease, j, job.NoResource)
	}
}

// checkCompletion classifies a completed job as on time or missed, once.
func (s *Simulation) checkCompletion(j *job.Job) bool {
	if !j.Completed() {
		return false
	}
	now := s.clock.Now()
	j.Finish(now)
	if now <= j.Deadline {
		s.onTime = append(s.onTime, j)
		s.emit(StatusComplete, j, job.NoResource)
	} else {
		s.missed = append(s.missed, j)
		s.emit(StatusMiss, j, job.NoResource)
		s.log.Debug("Deadline missed", "job", j, "deadline", j.Deadline, "finished", now)
	}
	return true
}

// violation reports a broken protocol invariant. The simulation carries on.
func (s *Simulation) violation(msg string, j *job.Job, r job.ResourceID) {
	s.violations++
	s.log.Warn(msg, "job", j, "resource", r, "tick", s.clock.Now())
}

func (s *Simulation) emit(kind StatusKind, j *job.Job, r job.ResourceID) {
	if len(s.observers) == 0 {
		return
	}
	ev := StatusEvent{Tick: s.clock.Now(), Kind: kind, Resource: r}
	if j != nil {
		ev.TaskID, ev.JobID, ev.Priority = j.Task, j.ID, j.Priority
	}
	for _, fn := range s.observers {
		fn(ev)
	}
}

func (s *Simulation) result(util float64, overloaded bool) *Result {
	res := &Result{
		Protocol:    s.policy.Protocol(),
		Horizon:     s.horizon,
		End:         s.clock.Now(),
		Utilization: util,
		Overloaded:  overloaded,
		OnTime:      s.onTime,
		Missed:      s.missed,
		Timeline:    s.timeline,
		Markers:     s.markers,
		Violations:  s.violations,

		MaxStackDepth: s.stack.MaxDepth(),
	}

	// an unfinished job whose deadline has passed can no longer make it
	for _, j := range s.ready.Jobs() {
		if j.Deadline <= res.End {
			res.Missed = append(res.Missed, j)
		} else {
			res.Pending = append(res.Pending, j)
		}
	}
	for _, v := range s.future.Values() {
		res.Pending = append(res.Pending, v.(*job.Job))
	}
	return res
}

// futureKey orders unreleased jobs by release time.
type futureKey struct {
	release job.Tick
	task    job.TaskID
	id      int
}

func futureKeyOf(j *job.Job) futureKey {
	return futureKey{release: j.Release, task: j.Task, id: j.ID}
}

func futureCmp(a, b any) int {
	ka, kb := a.(futureKey), b.(futureKey)
	switch {
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
