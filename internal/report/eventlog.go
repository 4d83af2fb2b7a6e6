// internal/report/eventlog.go

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"dmsched/internal/sched"
)

// EventLog prints status events to the console and, optionally, a CSV file.
// One log may observe several simulations at once.
type EventLog struct {
	mu        sync.Mutex
	console   io.Writer
	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewEventLog writes console lines to w; a nil w disables them.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{console: w}
}

// EnableCSV opens the given file path for CSV logging of events.
// Must be called before the simulation runs.
func (l *EventLog) EnableCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"protocol", "tick", "event", "task_id", "job_id", "resource", "priority"}); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	l.csvFile = f
	l.csvWriter = w
	return nil
}

// Attach subscribes the log to sim.
func (l *EventLog) Attach(sim *sched.Simulation, p sched.Protocol) {
	sim.Subscribe(func(ev sched.StatusEvent) { l.handleEvent(p, ev) })
}

// Close flushes and closes the CSV file.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.csvFile == nil {
		return nil
	}
	l.csvWriter.Flush()
	err := l.csvWriter.Error()
	if cerr := l.csvFile.Close(); err == nil {
		err = cerr
	}
	l.csvFile = nil
	l.csvWriter = nil
	return err
}

func (l *EventLog) handleEvent(p sched.Protocol, ev sched.StatusEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// per-tick execution is recorded in the timeline, keep the console short
	if l.console != nil && ev.Kind != sched.StatusTick {
		fmt.Fprintln(l.console, formatEvent(p, ev))
	}

	// CSV output
	if l.csvWriter != nil {
		rec := []string{
			string(p),
			strconv.FormatInt(int64(ev.Tick), 10),
			ev.Kind.String(),
			strconv.Itoa(int(ev.TaskID)),
			strconv.Itoa(ev.JobID),
			strconv.Itoa(int(ev.Resource)),
			strconv.FormatFloat(ev.Priority, 'g', -1, 64),
		}
		l.csvWriter.Write(rec)
	}
}

func formatEvent(p sched.Protocol, ev sched.StatusEvent) string {
	if ev.Kind == sched.StatusIdle {
		return fmt.Sprintf("%s = Tick: %07d [%s]", p, ev.Tick, center(ev.Kind.String(), 10))
	}
	return fmt.Sprintf("%s = Tick: %07d [%s] => Job: [%d:%d], resource=%d, priority=%07.4f",
		p,
		ev.Tick,
		center(ev.Kind.String(), 10),
		ev.TaskID,
		ev.JobID,
		ev.Resource,
		ev.Priority,
	)
}

// center pads str on both sides to width.
func center(str string, width int) string {
	if len(str) >= width {
		return str
	}
	spaces := (width - len(str)) / 2
	return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
}
