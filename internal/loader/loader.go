// Package loader reads task set files. JSON and YAML share one schema:
//
//	taskset:
//	  - {taskId: 1, period: 10, wcet: 4, deadline: 10, offset: 0, sections: [[1, 4]]}
//	startTime: 0
//	endTime: 40
//
// Instead of a window, releaseTimes lists explicit {timeInstant, taskId} pairs.
package loader

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	"github.com/ledgerwatch/log/v3"
	"github.com/markphelps/optional"

	"dmsched/internal/job"
)

var (
	ErrNoReleases = errors.New("task set file has neither releaseTimes nor startTime/endTime")
	ErrBadRecord  = errors.New("malformed task record")
)

type taskRecord struct {
	TaskID   int          `yaml:"taskId"`
	Period   int64        `yaml:"period"`
	WCET     int64        `yaml:"wcet"`
	Deadline optional.Int `yaml:"deadline"`
	Offset   optional.Int `yaml:"offset"`
	Sections [][]int64    `yaml:"sections"`
}

type releaseRecord struct {
	TimeInstant int64 `yaml:"timeInstant"`
	TaskID      int   `yaml:"taskId"`
}

type file struct {
	TaskSet      []any           `yaml:"taskset"` // decoded per record, see decodeRecord
	StartTime    optional.Int    `yaml:"startTime"`
	EndTime      optional.Int    `yaml:"endTime"`
	ReleaseTimes []releaseRecord `yaml:"releaseTimes"`
}

// Input is what a task set file hands to the simulator.
type Input struct {
	Tasks    *job.TaskSet
	Releases []job.Release
	Window   *job.Window // set when releases were derived from a schedule window

	// Rejected holds the diagnostics of skipped task records.
	Rejected []error
}

// Load reads and parses the file at path.
func Load(path string, logger log.Logger) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task set: %w", err)
	}
	in, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Parse decodes a task set document. Malformed task records, including ones
// with wrongly typed fields, are logged and skipped; the document itself
// failing to decode is an error.
func Parse(data []byte, logger log.Logger) (*Input, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.UseJSONUnmarshaler()); err != nil {
		return nil, fmt.Errorf("decoding task set: %w", err)
	}

	in := &Input{Tasks: job.NewTaskSet()}
	for i, raw := range f.TaskSet {
		rec, err := decodeRecord(i, raw)
		var t *job.Task
		if err == nil {
			t, err = rec.task()
		}
		if err == nil {
			err = in.Tasks.Add(t)
		}
		if err != nil {
			logger.Warn("Skipping task record", "index", i, "taskId", rec.TaskID, "err", err)
			in.Rejected = append(in.Rejected, err)
		}
	}

	switch {
	case len(f.ReleaseTimes) > 0:
		for _, r := range f.ReleaseTimes {
			in.Releases = append(in.Releases, job.Release{At: job.Tick(r.TimeInstant), Task: job.TaskID(r.TaskID)})
		}
	case f.StartTime.Present() && f.EndTime.Present():
		start, _ := f.StartTime.Get()
		end, _ := f.EndTime.Get()
		in.Window = &job.Window{Start: job.Tick(start), End: job.Tick(end)}
		in.Releases = in.Tasks.Expand(*in.Window)
	default:
		return nil, ErrNoReleases
	}
	return in, nil
}

// Plan admits the input's releases against its task set.
func (in *Input) Plan(logger log.Logger) (job.Plan, error) {
	return in.Tasks.Admit(in.Releases, logger)
}

// decodeRecord re-encodes one generic taskset entry and decodes it on its own,
// so a type error only costs that record.
func decodeRecord(i int, raw any) (taskRecord, error) {
	var rec taskRecord
	data, err := yaml.Marshal(raw)
	if err == nil {
		err = yaml.UnmarshalWithOptions(data, &rec, yaml.UseJSONUnmarshaler())
	}
	if err != nil {
		return rec, fmt.Errorf("task record %d: %w: %v", i, ErrBadRecord, err)
	}
	return rec, nil
}

func (rec taskRecord) task() (*job.Task, error) {
	sections := make([]job.Section, 0, len(rec.Sections))
	for i, pair := range rec.Sections {
		if len(pair) != 2 {
			return nil, fmt.Errorf("task %d: section %d is not a [resource, length] pair: %w", rec.TaskID, i, job.ErrBadSection)
		}
		sections = append(sections, job.Section{Resource: job.ResourceID(pair[0]), Length: job.Tick(pair[1])})
	}
	return job.NewTask(
		job.TaskID(rec.TaskID),
		job.Tick(rec.Period),
		job.Tick(rec.WCET),
		job.Tick(rec.Deadline.OrElse(0)),
		job.Tick(rec.Offset.OrElse(0)),
		sections,
	)
}
