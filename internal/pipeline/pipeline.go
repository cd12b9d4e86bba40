// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"microsim-core/microsim"
	"microsim-core/sicksicker"
	"microsim/internal/telemetry"
)

// Variants a Job may request on top of the generic engine.
const (
	VariantGeneric    = ""
	VariantSickSicker = "sick-sicker"
)

// Config controls the job pipeline.
type Config struct {
	Jobs int // concurrent runs (>=1)
}

// Job is one scenario run under one strategy.
type Job struct {
	Index    int    // position in the input; visit order
	Scenario string // model name
	Strategy string // "none" | "treatment"
	Variant  string
	Labels   []string
	Input    microsim.Input
}

// Outcome pairs a Job with its result.
type Outcome struct {
	Job     Job
	Result  *microsim.Result
	Elapsed time.Duration
}

// ForEachRun runs every job through sim and calls visit once per job in input
// order, whatever the completion order. It stops at the first failing job (in
// input order) or visit error and returns it; context cancellation stops
// feeding new jobs and returns ctx.Err().
func ForEachRun(
	ctx context.Context,
	cfg Config,
	jobs []Job,
	sim Simulator,
	visit func(Outcome) error,
) error {
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	tracer := telemetry.Tracer()

	type done struct {
		out Outcome
		err error
	}
	feed := make(chan Job, cfg.Jobs)
	results := make(chan done, cfg.Jobs)

	// Workers
	var wg sync.WaitGroup
	wg.Add(cfg.Jobs)
	for w := 0; w < cfg.Jobs; w++ {
		go func() {
			defer wg.Done()
			for j := range feed {
				start := time.Now()
				res, err := runOne(ctx, tracer, sim, j)
				out := Outcome{Job: j, Result: res, Elapsed: time.Since(start)}
				select {
				case results <- done{out: out, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Collector restores input order.
	var (
		cerr error
		cwg  sync.WaitGroup
	)
	stop := make(chan struct{})
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		pending := make(map[int]done, cfg.Jobs)
		next := 0
		for d := range results {
			if cerr != nil {
				continue
			}
			pending[d.out.Job.Index] = d
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				err := cur.err
				if err == nil {
					err = visit(cur.out)
				}
				if err != nil {
					cerr = err
					close(stop)
					break
				}
			}
		}
	}()

	// Feed work
send:
	for i, j := range jobs {
		j.Index = i
		select {
		case <-ctx.Done():
			break send
		case <-stop:
			break send
		case feed <- j:
		}
	}

	close(feed)
	wg.Wait()
	close(results)
	cwg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return cerr
}

func runOne(ctx context.Context, tracer trace.Tracer, sim Simulator, j Job) (*microsim.Result, error) {
	_, span := tracer.Start(ctx, "microsim.run", trace.WithAttributes(
		attribute.String("model", j.Scenario),
		attribute.String("strategy", j.Strategy),
		attribute.Int64("seed", j.Input.Seed),
		attribute.Int("individuals", len(j.Input.Initial)),
		attribute.Int("cycles", j.Input.Cycles),
	))
	defer span.End()

	res, err := simulate(sim, j)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s/%s: %w", j.Scenario, j.Strategy, err)
	}
	return res, nil
}

func simulate(sim Simulator, j Job) (*microsim.Result, error) {
	if j.Variant == VariantSickSicker {
		if err := sicksicker.CheckInput(j.Input); err != nil {
			return nil, err
		}
	}
	return sim.Run(j.Input)
}
