package job

import "fmt"

// Job is one released instance of a Task. It executes one tick per Step,
// consuming its sections front to back.
type Job struct {
	Task         TaskID
	ID           int // sequence number within the task, starting at 1
	Release      Tick
	Deadline     Tick
	BasePriority float64
	Priority     float64 // dynamic; boosted by HLP/PIP, reset when a section ends
	Finished     Tick

	current   Section // remaining length of the running section
	full      Tick    // length current started with
	section   int     // index of current in the task's section list
	pending   []Section
	completed bool
}

func newJob(t *Task, id int, release Tick) *Job {
	return &Job{
		Task:         t.ID,
		ID:           id,
		Release:      release,
		Deadline:     release + t.RelativeDeadline,
		BasePriority: t.BasePriority,
		Priority:     t.BasePriority,
		current:      t.Sections[0],
		full:         t.Sections[0].Length,
		pending:      append([]Section(nil), t.Sections[1:]...),
	}
}

// Step executes one tick and returns the resource held during it.
// Reaching the end of a section moves to the next one and drops any priority
// boost; reaching the end of the last one completes the job. A completed job
// no longer advances.
func (j *Job) Step() (ResourceID, bool) {
	if j.completed {
		return NoResource, true
	}

	held := j.current.Resource
	j.current.Length--
	if j.current.Length > 0 {
		return held, false
	}

	j.Priority = j.BasePriority
	if len(j.pending) == 0 {
		j.completed = true
		return held, true
	}
	j.current = j.pending[0]
	j.full = j.current.Length
	j.pending = j.pending[1:]
	j.section++
	return held, false
}

// Resource is the resource the next tick executes under.
func (j *Job) Resource() ResourceID {
	if j.completed {
		return NoResource
	}
	return j.current.Resource
}

// Section is the index of the running section within the task's list.
func (j *Job) Section() int { return j.section }

// Holding reports whether the job is inside a critical section it has
// already started, i.e. it owns the lock.
func (j *Job) Holding() bool {
	return j.Resource() != NoResource && j.current.Length < j.full
}

// Entering reports whether the next tick is the first one of a critical section.
func (j *Job) Entering() bool {
	return j.Resource() != NoResource && j.current.Length == j.full
}

func (j *Job) Completed() bool { return j.completed }

// Remaining is the execution time still needed.
func (j *Job) Remaining() Tick {
	if j.completed {
		return 0
	}
	left := j.current.Length
	for _, sec := range j.pending {
		left += sec.Length
	}
	return left
}

// Finish records the tick at which the job completed.
func (j *Job) Finish(at Tick) { j.Finished = at }

func (j *Job) ResponseTime() Tick { return j.Finished - j.Release }

func (j *Job) String() string {
	return fmt.Sprintf("[%d:%d]", j.Task, j.ID)
}
