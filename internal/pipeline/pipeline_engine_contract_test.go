// internal/pipeline/pipeline_engine_contract_test.go
package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"microsim-core/microsim"
	"microsim-core/simerr"
)

// Compile-time check: the concrete engine satisfies the minimal contract.
var _ Simulator = (*microsim.Engine)(nil)

// fakeSim returns an empty result and sleeps longer for early jobs so that
// completion order is the reverse of input order.
type fakeSim struct {
	calls atomic.Int32
	fail  int64 // seed that fails; 0 = never
}

func (f *fakeSim) Run(in microsim.Input) (*microsim.Result, error) {
	f.calls.Add(1)
	time.Sleep(time.Duration(10-in.Seed) * time.Millisecond)
	if f.fail != 0 && in.Seed == f.fail {
		return nil, simerr.ErrDegenerateRow
	}
	return &microsim.Result{Seed: in.Seed}, nil
}

func jobsN(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{Scenario: "m", Strategy: "none", Input: microsim.Input{Seed: int64(i + 1)}}
	}
	return out
}

func TestForEachRun_VisitsInInputOrder(t *testing.T) {
	sim := &fakeSim{}
	var seeds []int64
	err := ForEachRun(context.Background(), Config{Jobs: 4}, jobsN(6), sim, func(o Outcome) error {
		seeds = append(seeds, o.Result.Seed)
		if o.Job.Index != len(seeds)-1 {
			t.Fatalf("index %d visited at position %d", o.Job.Index, len(seeds)-1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("pipeline err: %v", err)
	}
	for i, s := range seeds {
		if s != int64(i+1) {
			t.Fatalf("out of order: %v", seeds)
		}
	}
	if len(seeds) != 6 {
		t.Fatalf("want 6 outcomes, got %d", len(seeds))
	}
}

func TestForEachRun_StopsAtFirstErrorInOrder(t *testing.T) {
	sim := &fakeSim{fail: 3}
	var n int
	err := ForEachRun(context.Background(), Config{Jobs: 2}, jobsN(6), sim, func(o Outcome) error {
		n++
		return nil
	})
	if !errors.Is(err, simerr.ErrDegenerateRow) {
		t.Fatalf("want degenerate row error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 visits before the failing job, got %d", n)
	}
}

func TestForEachRun_VisitErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	err := ForEachRun(context.Background(), Config{Jobs: 1}, jobsN(3), &fakeSim{}, func(Outcome) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestForEachRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ForEachRun(ctx, Config{Jobs: 2}, jobsN(4), &fakeSim{}, func(Outcome) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
