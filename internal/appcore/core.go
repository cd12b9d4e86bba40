// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"

	"microsim-core/cea"
	"microsim-core/microsim"
	"microsim/internal/cmdutil"
	"microsim/internal/logging"
	"microsim/internal/model"
	"microsim/internal/output"
	"microsim/internal/pipeline"
	"microsim/internal/store"
	"microsim/internal/writers"
	"microsim/pkg/api"
)

// Options are the resolved run settings shared by the tools.
type Options struct {
	Threads  int    // engine workers per run (0 = all CPUs)
	Jobs     int    // runs in flight
	Strategy string // "" (per scenario), none, treatment, both
	Records  output.RecordOptions
	Store    string // SQLite path; empty disables persistence
	Quiet    bool
	Logger   *zap.Logger
}

// WriterFactory starts the output writer.
type WriterFactory interface {
	Start(out io.Writer, bufSize int) (chan<- api.RecordV1, <-chan error)
}

// Jobs expands scenarios into one job per strategy. With "both" the untreated
// run precedes the treated one and both share the scenario seed.
func Jobs(scenarios []model.Scenario, strategy string) []pipeline.Job {
	var jobs []pipeline.Job
	for _, sc := range scenarios {
		var trts []bool
		switch strategy {
		case output.StrategyNone:
			trts = []bool{false}
		case output.StrategyTreatment:
			trts = []bool{true}
		case output.StrategyBoth:
			trts = []bool{false, true}
		default:
			trts = []bool{sc.Treatment}
		}
		for _, trt := range trts {
			in := sc.Input
			in.Treatment = trt
			jobs = append(jobs, pipeline.Job{
				Scenario: sc.Name,
				Strategy: output.StrategyName(trt),
				Variant:  sc.Variant,
				Labels:   sc.Labels,
				Input:    in,
			})
		}
	}
	return jobs
}

// Run simulates every scenario, streams records to the writer, optionally
// persists each run, and returns the exit code.
func Run(
	parent context.Context,
	stdout, stderr io.Writer,
	o Options,
	scenarios []model.Scenario,
	wf WriterFactory,
) int {
	log := logging.OrNop(o.Logger)
	outw := bufio.NewWriter(stdout)

	thr := o.Threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}
	jobs := Jobs(scenarios, o.Strategy)
	if len(jobs) == 0 {
		cmdutil.Warnf(stderr, o.Quiet, "no scenarios to run")
		return ExitOK
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var db *store.Store
	if o.Store != "" {
		var err error
		if db, err = store.Open(ctx, o.Store); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitIO
		}
		defer db.Close()
	}

	eng := microsim.New(microsim.Config{Workers: thr, OnCycle: cycleLogger(log)})

	inCh, writeErr := wf.Start(outw, thr*4)

	var prev *pipeline.Outcome
	visit := func(oc pipeline.Outcome) ([]api.RecordV1, error) {
		run := output.Run{Model: oc.Job.Scenario, Labels: oc.Job.Labels, Input: oc.Job.Input, Result: oc.Result}
		if db != nil {
			id, err := db.SaveRun(ctx, output.ToAPISummary(run), oc.Result.Trace.RowSlices())
			if err != nil {
				return nil, fmt.Errorf("store: %w", err)
			}
			run.RunID = id
		}
		s := oc.Result.Summary
		log.Info("run finished",
			zap.String("model", run.Model),
			zap.String("strategy", oc.Job.Strategy),
			zap.Int64("seed", s.Seed),
			zap.Int("individuals", s.Individuals),
			zap.Int("cycles", s.Cycles),
			zap.String("run_id", run.RunID),
			zap.Float64("mean_cost", s.MeanCost),
			zap.Float64("mean_effect", s.MeanEffect),
			zap.Duration("elapsed", oc.Elapsed),
		)

		recs := output.Records(run, o.Records)
		if o.Strategy == output.StrategyBoth && oc.Job.Strategy == output.StrategyTreatment &&
			prev != nil && prev.Job.Scenario == oc.Job.Scenario && prev.Job.Strategy == output.StrategyNone {
			c, err := cea.Compare(output.StrategyNone, prev.Result.Summary, output.StrategyTreatment, s)
			if err != nil {
				return nil, err
			}
			recs = append(recs, output.ComparisonRecord(run.Model, c))
		}
		cur := oc
		prev = &cur
		return recs, nil
	}

	total, perr := cmdutil.RunStream[api.RecordV1](
		ctx,
		pipeline.Config{Jobs: o.Jobs},
		jobs,
		eng,
		visit,
		func(r api.RecordV1) error {
			select {
			case inCh <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	)

	close(inCh)

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return ExitOK
	} else if werr != nil {
		fmt.Fprintln(stderr, werr)
		return ExitIO
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return ExitOK
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return ExitIO
	}

	if perr != nil {
		code := ExitCode(perr)
		if code != ExitCancelled {
			fmt.Fprintln(stderr, perr)
		}
		return code
	}
	log.Debug("all runs finished", zap.Int("runs", len(jobs)), zap.Int("records", total))
	return ExitOK
}

func cycleLogger(log *zap.Logger) func(int, []int) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return nil
	}
	return func(t int, occ []int) {
		log.Debug("cycle done", zap.Int("cycle", t), zap.Ints("occupancy", occ))
	}
}
