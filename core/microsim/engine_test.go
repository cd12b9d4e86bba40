package microsim

import (
	"errors"
	"math"
	"testing"

	"microsim-core/accrue"
	"microsim-core/matrix"
	"microsim-core/probs"
	"microsim-core/simerr"
)

func table(t *testing.T, layout probs.Layout, nS int, rows [][]float64) probs.Table {
	t.Helper()
	m, err := matrix.FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	tab, err := probs.NewTable(layout, nS, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func values(t *testing.T, v ...float64) accrue.Table {
	t.Helper()
	tab, err := accrue.NewTable(v, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

// absorbing two-state model used by several tests
func absorbing(t *testing.T, cycles int, d float64) Input {
	return Input{
		Initial:        []int{0, 1},
		States:         2,
		Cycles:         cycles,
		Transitions:    probs.Homogeneous(table(t, probs.ByState, 2, [][]float64{{1, 0}, {0, 1}})),
		Costs:          values(t, 10, 20),
		Utilities:      values(t, 1, 0.5),
		CostDiscount:   d,
		EffectDiscount: d,
		Seed:           12345,
	}
}

func TestAbsorbingStatesStayPut(t *testing.T) {
	res, err := New(Config{Workers: 1}).Run(absorbing(t, 5, 0.03))
	if err != nil {
		t.Fatal(err)
	}
	for i, start := range []int{0, 1} {
		for _, s := range res.Trajectory(i) {
			if s != start {
				t.Fatalf("individual %d left absorbing state: %v", i, res.Trajectory(i))
			}
		}
	}
	wantC0, wantE1 := 0.0, 0.0
	for k := 0; k < 5; k++ {
		wantC0 += 10 / math.Pow(1.03, float64(k))
		wantE1 += 0.5 / math.Pow(1.03, float64(k))
	}
	if math.Abs(res.TotalCosts[0]-wantC0) > 1e-9 {
		t.Fatalf("cost[0] = %v, want %v", res.TotalCosts[0], wantC0)
	}
	if math.Abs(res.TotalEffects[1]-wantE1) > 1e-9 {
		t.Fatalf("effect[1] = %v, want %v", res.TotalEffects[1], wantE1)
	}
}

func TestTwoCycleDiscountedCost(t *testing.T) {
	in := absorbing(t, 2, 0.03)
	in.Initial = []int{0, 0}
	res, err := New(Config{}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	want := 10 + 10/1.03
	if math.Abs(res.TotalCosts[0]-want) > 1e-12 || math.Abs(res.TotalCosts[0]-19.71) > 0.005 {
		t.Fatalf("total = %v, want %v (≈19.71)", res.TotalCosts[0], want)
	}
}

func TestZeroCycles(t *testing.T) {
	res, err := New(Config{}).Run(absorbing(t, 0, 0.03))
	if err != nil {
		t.Fatal(err)
	}
	if r, c := res.States.Dims(); r != 2 || c != 1 {
		t.Fatalf("states dims %dx%d, want 2x1", r, c)
	}
	if res.Final()[0] != 0 || res.Final()[1] != 1 {
		t.Fatalf("initial state changed: %v", res.Final())
	}
	if res.TotalCosts[0] != 0 || res.TotalEffects[1] != 0 || res.Summary.MeanCost != 0 {
		t.Fatal("no cycles must accrue nothing")
	}
}

func TestZeroDiscountEqualsUndiscounted(t *testing.T) {
	in := stochastic(t, 300, 12)
	res, err := New(Config{}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 300; i++ {
		sum := 0.0
		for _, v := range res.Costs.Row(i) {
			sum += v
		}
		if math.Abs(sum-res.TotalCosts[i]) > 1e-9 {
			t.Fatalf("individual %d: discounted %v != sum %v at rate 0", i, res.TotalCosts[i], sum)
		}
	}
	if math.Abs(res.Summary.MeanCost-res.Summary.UndiscountedMeanCost) > 1e-9 {
		t.Fatal("summary means should agree at rate 0")
	}
}

func TestTotalsMatchAccrueTotal(t *testing.T) {
	in := stochastic(t, 200, 25)
	in.CostDiscount, in.EffectDiscount = 0.035, 0.015
	res, err := New(Config{Workers: 4}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		if c := accrue.Total(res.Costs.Row(i), in.CostDiscount); c != res.TotalCosts[i] {
			t.Fatalf("individual %d cost: engine %v, accrue.Total %v", i, res.TotalCosts[i], c)
		}
		if e := accrue.Total(res.Effects.Row(i), in.EffectDiscount); e != res.TotalEffects[i] {
			t.Fatalf("individual %d effect: engine %v, accrue.Total %v", i, res.TotalEffects[i], e)
		}
	}
}

func stochastic(t *testing.T, n, cycles int) Input {
	return Input{
		Initial: Uniform(n, 0),
		States:  3,
		Cycles:  cycles,
		Transitions: probs.Homogeneous(table(t, probs.ByState, 3, [][]float64{
			{0.7, 0.2, 0.1},
			{0.1, 0.6, 0.3},
			{0, 0, 1},
		})),
		Costs:     values(t, 100, 500, 0),
		Utilities: values(t, 1, 0.6, 0),
		Seed:      2024,
	}
}

func TestDeterministicAcrossRunsAndWorkers(t *testing.T) {
	in := stochastic(t, 1000, 20)
	a, err := New(Config{Workers: 1}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Config{Workers: 8}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		ta, tb := a.Trajectory(i), b.Trajectory(i)
		for k := range ta {
			if ta[k] != tb[k] {
				t.Fatalf("individual %d cycle %d: %d vs %d", i, k, ta[k], tb[k])
			}
		}
		if a.TotalCosts[i] != b.TotalCosts[i] || a.TotalEffects[i] != b.TotalEffects[i] {
			t.Fatalf("individual %d totals differ", i)
		}
	}
	if a.Summary != b.Summary {
		t.Fatalf("summaries differ: %+v vs %+v", a.Summary, b.Summary)
	}
}

func TestSeedChangesTrajectories(t *testing.T) {
	in := stochastic(t, 500, 10)
	a, _ := New(Config{}).Run(in)
	in.Seed++
	b, _ := New(Config{}).Run(in)
	if a.Summary.MeanCost == b.Summary.MeanCost {
		t.Fatal("a different seed should change the cohort mean")
	}
}

func TestSampledFrequencies(t *testing.T) {
	in := Input{
		Initial:     Uniform(20000, 0),
		States:      2,
		Cycles:      1,
		Transitions: probs.Homogeneous(table(t, probs.Broadcast, 2, [][]float64{{0.3, 0.7}})),
		Costs:       values(t, 0, 0),
		Utilities:   values(t, 0, 0),
		Seed:        99,
	}
	res, err := New(Config{}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	frac := float64(res.Occupancy(1)[1]) / 20000
	if math.Abs(frac-0.7) > 0.02 {
		t.Fatalf("fraction in state 1 = %v, want ≈0.7", frac)
	}
}

func TestTraceCountsCohort(t *testing.T) {
	res, err := New(Config{}).Run(stochastic(t, 250, 6))
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k <= 6; k++ {
		n := 0
		for _, c := range res.Occupancy(k) {
			n += c
		}
		if n != 250 {
			t.Fatalf("cycle %d occupancy sums to %d", k, n)
		}
	}
	if res.Occupancy(0)[0] != 250 {
		t.Fatal("everyone starts in state 0")
	}
}

func TestTreatmentSelectsVariant(t *testing.T) {
	in := absorbing(t, 1, 0)
	costs, _ := accrue.NewTable([]float64{10, 20}, []float64{110, 120})
	in.Costs = costs
	in.Treatment = true
	res, err := New(Config{}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCosts[0] != 110 || res.TotalCosts[1] != 120 {
		t.Fatalf("treated totals = %v", res.TotalCosts)
	}
}

func TestCycleLengthScalesEffects(t *testing.T) {
	in := absorbing(t, 2, 0)
	in.CycleLength = 0.5
	res, _ := New(Config{}).Run(in)
	if res.TotalEffects[0] != 1 {
		t.Fatalf("effect = %v, want 2 cycles × 1 × 0.5", res.TotalEffects[0])
	}
}

func TestOnCycleHook(t *testing.T) {
	var calls []int
	eng := New(Config{OnCycle: func(t int, occ []int) { calls = append(calls, t) }})
	if _, err := eng.Run(absorbing(t, 4, 0)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 4 || calls[3] != 3 {
		t.Fatalf("hook calls = %v", calls)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Input)
		want error
	}{
		{"initial length", func(in *Input) { in.Individuals = 3 }, simerr.ErrDimensionMismatch},
		{"initial state", func(in *Input) { in.Initial = []int{0, 2} }, simerr.ErrIndexOutOfRange},
		{"cost table", func(in *Input) { in.Costs = values(t, 1, 2, 3) }, simerr.ErrDimensionMismatch},
		{"no tables", func(in *Input) { in.Transitions = nil }, simerr.ErrDimensionMismatch},
		{"cost discount", func(in *Input) { in.CostDiscount = 1 }, simerr.ErrInvalidParameter},
		{"effect discount", func(in *Input) { in.EffectDiscount = -0.1 }, simerr.ErrInvalidParameter},
		{"cycles", func(in *Input) { in.Cycles = -1 }, simerr.ErrInvalidParameter},
		{"states", func(in *Input) { in.States = 3 }, simerr.ErrDimensionMismatch},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := absorbing(t, 2, 0)
			c.edit(&in)
			res, err := New(Config{}).Run(in)
			if !errors.Is(err, c.want) {
				t.Fatalf("want %v, got %v", c.want, err)
			}
			if res != nil {
				t.Fatal("failed runs must not return a partial result")
			}
		})
	}
}

func TestFlatInput(t *testing.T) {
	f := FlatInput{
		Initial:     []int{0, 0, 1},
		Transitions: []float64{1, 0, 0, 1}, // identity, column-major
		Costs:       []float64{10, 20},
		Utilities:   []float64{1, 0.5, 0.9, 0.5},
		Individuals: 3,
		States:      2,
		Cycles:      2,
		CycleLength: 1,
		Treatment:   true,
		Seed:        1,
	}
	in, err := f.Input()
	if err != nil {
		t.Fatal(err)
	}
	res, err := New(Config{}).Run(in)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalEffects[0] != 1.8 {
		t.Fatalf("treated utility should be used: %v", res.TotalEffects)
	}
	f.Costs = []float64{1, 2, 3}
	if _, err := f.Input(); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}
