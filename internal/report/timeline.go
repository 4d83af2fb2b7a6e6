package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"dmsched/internal/job"
	"dmsched/internal/sched"
)

// WriteTimelineCSV writes one row per executed tick.
func WriteTimelineCSV(w io.Writer, res *sched.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"protocol", "task_id", "job_id", "resource", "start", "duration"}); err != nil {
		return err
	}
	for _, ev := range res.Timeline {
		rec := []string{
			string(res.Protocol),
			strconv.Itoa(int(ev.Task)),
			strconv.Itoa(ev.Job),
			strconv.Itoa(int(ev.Resource)),
			strconv.FormatInt(int64(ev.Start), 10),
			strconv.FormatInt(int64(ev.Duration), 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	tickWidth = 12
	rowHeight = 28
	barHeight = 16
	margin    = 70
)

// Bar is a run of consecutive ticks of one job under one resource.
type Bar struct {
	Task     job.TaskID
	Job      int
	Resource job.ResourceID
	Start    job.Tick
	Length   job.Tick
}

// Bars merges the per-tick timeline into bars.
func Bars(timeline []sched.ExecEvent) []Bar {
	var out []Bar
	for _, ev := range timeline {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Task == ev.Task && last.Job == ev.Job && last.Resource == ev.Resource && last.Start+last.Length == ev.Start {
				last.Length += ev.Duration
				continue
			}
		}
		out = append(out, Bar{Task: ev.Task, Job: ev.Job, Resource: ev.Resource, Start: ev.Start, Length: ev.Duration})
	}
	return out
}

// Palette assigns a colour to every resource by spreading hues evenly, so a
// task set always renders the same way. Non-critical execution is grey.
func Palette(resources []job.ResourceID) map[job.ResourceID]string {
	out := map[job.ResourceID]string{job.NoResource: "#a9a9a9"}
	for i, r := range resources {
		hue := float64(i) * 360 / float64(len(resources))
		out[r] = colorful.Hsv(hue, 0.85, 0.75).Hex()
	}
	return out
}

// WriteSVG renders the execution timeline with one row per task, release
// markers in blue and deadline markers in red.
func WriteSVG(w io.Writer, tasks *job.TaskSet, res *sched.Result) error {
	rows := make(map[job.TaskID]int)
	for i, t := range tasks.Tasks() {
		rows[t.ID] = i
	}
	colors := Palette(tasks.Resources())

	end := res.End
	for _, m := range res.Markers {
		if m.Deadline <= res.Horizon {
			end = max(end, m.Deadline)
		}
	}
	width := margin*2 + int(end)*tickWidth
	height := margin + (len(rows)+1)*rowHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="monospace" font-size="11">`+"\n", width, height)
	fmt.Fprintf(&b, `<text x="%d" y="20">%s feasible=%t</text>`+"\n", margin, res.Protocol, res.Feasible())
	for _, t := range tasks.Tasks() {
		fmt.Fprintf(&b, `<text x="4" y="%d">task_id=%d</text>`+"\n", rowY(rows[t.ID])+barHeight-3, t.ID)
	}

	for _, bar := range Bars(res.Timeline) {
		row, ok := rows[bar.Task]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>[%d:%d] resource %d</title></rect>`+"\n",
			tickX(bar.Start), rowY(row), int(bar.Length)*tickWidth, barHeight, colors[bar.Resource],
			bar.Task, bar.Job, bar.Resource)
	}

	for _, m := range res.Markers {
		row, ok := rows[m.Task]
		if !ok {
			continue
		}
		y := rowY(row)
		if m.Release <= end {
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="blue" stroke-dasharray="3,2"/>`+"\n",
				tickX(m.Release), y-4, tickX(m.Release), y+barHeight)
		}
		if m.Deadline <= end {
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="red" stroke-dasharray="3,2"/>`+"\n",
				tickX(m.Deadline), y, tickX(m.Deadline), y+barHeight+4)
		}
	}

	axis := rowY(len(rows)) + 4
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", margin, axis, tickX(end), axis)
	for tick := job.Tick(0); tick <= end; tick += 5 {
		fmt.Fprintf(&b, `<text x="%d" y="%d">%d</text>`+"\n", tickX(tick)-3, axis+14, tick)
	}
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func tickX(t job.Tick) int { return margin + int(t)*tickWidth }

func rowY(row int) int { return 30 + row*rowHeight }
