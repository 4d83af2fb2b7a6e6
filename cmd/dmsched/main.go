package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ledgerwatch/log/v3"

	"dmsched/internal/loader"
	"dmsched/internal/report"
	"dmsched/internal/sched"
)

func main() {
	var (
		configPath = flag.String("config", "config.yml", "simulator configuration")
		protocol   = flag.String("protocol", "", "NPP, HLP, PIP or ALL (overrides config)")
		csvPath    = flag.String("csv", "", "write status events as CSV")
		timeline   = flag.String("timeline", "", "write per-tick execution CSV, one file per protocol")
		svgPath    = flag.String("svg", "", "write the execution timeline as SVG, one file per protocol")
		dotPath    = flag.String("dot", "", "write the task/resource graph in DOT format")
		verbose    = flag.Bool("v", false, "print status events")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] taskset.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	path := "taskset.json"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	// Read the configuration
	cfg := sched.Load(*configPath)
	if *protocol != "" {
		cfg.Protocol = strings.ToUpper(*protocol)
	}
	lvl, err := log.LvlFromString(cfg.LogLevel)
	if err != nil {
		lvl = log.LvlInfo
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))

	feasible, err := run(cfg, path, *csvPath, *timeline, *svgPath, *dotPath, *verbose)
	if err != nil {
		log.Error("Simulation failed", "err", err)
		os.Exit(1)
	}
	if !feasible {
		os.Exit(2)
	}
}

// run simulates the task set file at path and reports whether every
// protocol run was feasible.
func run(cfg sched.Config, path, csvPath, timelinePath, svgPath, dotPath string, verbose bool) (bool, error) {
	in, err := loader.Load(path, log.New("file", path))
	if err != nil {
		return false, err
	}
	for _, t := range in.Tasks.Tasks() {
		fmt.Println(t)
	}

	plan, err := in.Plan(log.New("file", path))
	if err != nil {
		log.Warn("Some job releases were rejected", "accepted", plan.Len(), "requested", len(in.Releases))
	}

	if dotPath != "" {
		if err := os.WriteFile(dotPath, []byte(report.ResourceGraph(in.Tasks).String()), 0o644); err != nil {
			return false, err
		}
	}

	protocols := sched.Protocols
	if cfg.Protocol != "ALL" {
		p, err := sched.ParseProtocol(cfg.Protocol)
		if err != nil {
			return false, err
		}
		protocols = []sched.Protocol{p}
	}

	var console io.Writer
	if verbose {
		console = os.Stdout
	}
	events := report.NewEventLog(console)
	if csvPath != "" {
		if err := events.EnableCSV(csvPath); err != nil {
			return false, err
		}
	}
	defer events.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := sched.Compare(ctx, cfg, plan, func(sim *sched.Simulation) {
		events.Attach(sim, sim.Protocol())
	}, protocols...)
	if err != nil {
		return false, err
	}

	feasible := true
	for _, p := range protocols {
		res := results[p]
		if err := report.Summary(os.Stdout, res); err != nil {
			return false, err
		}
		feasible = feasible && res.Feasible()

		if timelinePath != "" {
			if err := writeFile(perProtocol(timelinePath, p, len(protocols)), func(w io.Writer) error {
				return report.WriteTimelineCSV(w, res)
			}); err != nil {
				return false, err
			}
		}
		if svgPath != "" {
			if err := writeFile(perProtocol(svgPath, p, len(protocols)), func(w io.Writer) error {
				return report.WriteSVG(w, in.Tasks, res)
			}); err != nil {
				return false, err
			}
		}
	}
	return feasible, nil
}

// perProtocol suffixes path with the protocol name when several are written.
func perProtocol(path string, p sched.Protocol, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + strings.ToLower(string(p)) + ext
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
