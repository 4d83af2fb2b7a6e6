package report

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dmsched/internal/job"
	"dmsched/internal/sched"
)

// TaskStats summarises the finished jobs of one task.
type TaskStats struct {
	Task         job.TaskID
	Jobs         int
	Missed       int
	MeanResponse float64
	MaxResponse  float64
}

// Stats computes per-task response times over every finished job.
func Stats(res *sched.Result) []TaskStats {
	responses := make(map[job.TaskID][]float64)
	missed := make(map[job.TaskID]int)
	for _, j := range res.OnTime {
		responses[j.Task] = append(responses[j.Task], float64(j.ResponseTime()))
	}
	for _, j := range res.Missed {
		missed[j.Task]++
		if j.Completed() {
			responses[j.Task] = append(responses[j.Task], float64(j.ResponseTime()))
		}
	}

	ids := make([]job.TaskID, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	for id := range missed {
		if _, ok := responses[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	out := make([]TaskStats, 0, len(ids))
	for _, id := range ids {
		rs := responses[id]
		st := TaskStats{Task: id, Jobs: len(rs), Missed: missed[id]}
		if len(rs) > 0 {
			st.MeanResponse = stat.Mean(rs, nil)
			st.MaxResponse = floats.Max(rs)
		}
		out = append(out, st)
	}
	return out
}

// Summary writes the verdict and response time table of res.
func Summary(w io.Writer, res *sched.Result) error {
	if _, err := fmt.Fprintf(w, "%s: utilization %.3f", res.Protocol, res.Utilization); err != nil {
		return err
	}
	if res.Overloaded {
		fmt.Fprintf(w, " > 1, task set is not feasible")
	}
	fmt.Fprintln(w)

	if res.Feasible() {
		fmt.Fprintf(w, "  no deadlines are missed, this schedule is feasible (%d jobs, %d pending at tick %d)\n",
			len(res.OnTime), len(res.Pending), res.End)
	} else {
		fmt.Fprintf(w, "  this schedule is not feasible: %d of %d jobs missed\n",
			len(res.Missed), len(res.OnTime)+len(res.Missed))
		for _, j := range res.Missed {
			fmt.Fprintf(w, "    %v deadline %d finished %s\n", j, j.Deadline, finished(j))
		}
	}

	for _, st := range Stats(res) {
		fmt.Fprintf(w, "  task %d: jobs=%d missed=%d response mean=%.2f max=%.0f\n",
			st.Task, st.Jobs, st.Missed, st.MeanResponse, st.MaxResponse)
	}
	if res.Violations > 0 {
		fmt.Fprintf(w, "  %d protocol invariant violations\n", res.Violations)
	}
	return nil
}

func finished(j *job.Job) string {
	if !j.Completed() {
		return "never"
	}
	return fmt.Sprint(j.Finished)
}
