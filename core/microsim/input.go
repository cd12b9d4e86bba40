package microsim

import (
	"fmt"
	"math"

	"microsim-core/accrue"
	"microsim-core/probs"
	"microsim-core/simerr"
)

// Input is everything one run needs.
type Input struct {
	Initial     []int          // current state per individual, length n_I
	Individuals int            // n_I; 0 means len(Initial)
	States      int            // n_S
	Cycles      int            // n_T
	Transitions probs.Schedule // one table per cycle, last reused
	Costs       accrue.Table
	Utilities   accrue.Table

	CycleLength    float64 // utility multiplier per cycle; 0 means 1
	CostDiscount   float64 // d_dC in [0,1)
	EffectDiscount float64 // d_dE in [0,1)
	Treatment      bool
	Seed           int64
}

func (in Input) individuals() int {
	if in.Individuals == 0 {
		return len(in.Initial)
	}
	return in.Individuals
}

func (in Input) cycleLength() float64 {
	if in.CycleLength == 0 {
		return 1
	}
	return in.CycleLength
}

// Validate checks shapes and parameters. Engine.Run calls it first and never
// returns a partial result.
func (in Input) Validate() error {
	nI, nS := in.individuals(), in.States
	switch {
	case nS <= 0:
		return fmt.Errorf("%w: n_S must be positive, got %d", simerr.ErrDimensionMismatch, nS)
	case nI <= 0:
		return fmt.Errorf("%w: n_I must be positive, got %d", simerr.ErrDimensionMismatch, nI)
	case len(in.Initial) != nI:
		return fmt.Errorf("%w: initial state vector has %d entries, n_I=%d", simerr.ErrDimensionMismatch, len(in.Initial), nI)
	case in.Cycles < 0:
		return fmt.Errorf("%w: n_T must be ≥ 0, got %d", simerr.ErrInvalidParameter, in.Cycles)
	case !accrue.ValidRate(in.CostDiscount):
		return fmt.Errorf("%w: cost discount %g outside [0,1)", simerr.ErrInvalidParameter, in.CostDiscount)
	case !accrue.ValidRate(in.EffectDiscount):
		return fmt.Errorf("%w: effect discount %g outside [0,1)", simerr.ErrInvalidParameter, in.EffectDiscount)
	case in.CycleLength < 0 || math.IsNaN(in.CycleLength) || math.IsInf(in.CycleLength, 0):
		return fmt.Errorf("%w: cycle length %g must be positive", simerr.ErrInvalidParameter, in.CycleLength)
	}
	for i, s := range in.Initial {
		if s < 0 || s >= nS {
			return fmt.Errorf("%w: individual %d starts in state %d outside [0,%d)", simerr.ErrIndexOutOfRange, i, s, nS)
		}
	}
	if err := in.Transitions.Check(nI, nS); err != nil {
		return err
	}
	if n := in.Costs.States(); n != nS {
		return fmt.Errorf("%w: cost table covers %d states, n_S=%d", simerr.ErrDimensionMismatch, n, nS)
	}
	if n := in.Utilities.States(); n != nS {
		return fmt.Errorf("%w: utility table covers %d states, n_S=%d", simerr.ErrDimensionMismatch, n, nS)
	}
	return nil
}

// FlatInput mirrors the host calling convention: flat numeric vectors plus
// scalar dimensions. Probabilities and values are column-major.
type FlatInput struct {
	Initial        []int
	Transitions    []float64
	Costs          []float64
	Utilities      []float64
	Individuals    int
	States         int
	Cycles         int
	CycleLength    int
	CostDiscount   float64
	EffectDiscount float64
	Treatment      bool
	Seed           int64
}

// Input converts and validates the flat vectors.
func (f FlatInput) Input() (Input, error) {
	tab, err := probs.FromFlat(f.Transitions, f.Individuals, f.States, probs.DefaultTolerance)
	if err != nil {
		return Input{}, fmt.Errorf("transitions: %w", err)
	}
	costs, err := accrue.FromFlat(f.Costs, f.States)
	if err != nil {
		return Input{}, fmt.Errorf("costs: %w", err)
	}
	utils, err := accrue.FromFlat(f.Utilities, f.States)
	if err != nil {
		return Input{}, fmt.Errorf("utilities: %w", err)
	}
	in := Input{
		Initial:        append([]int(nil), f.Initial...),
		Individuals:    f.Individuals,
		States:         f.States,
		Cycles:         f.Cycles,
		Transitions:    probs.Homogeneous(tab),
		Costs:          costs,
		Utilities:      utils,
		CycleLength:    float64(f.CycleLength),
		CostDiscount:   f.CostDiscount,
		EffectDiscount: f.EffectDiscount,
		Treatment:      f.Treatment,
		Seed:           f.Seed,
	}
	return in, in.Validate()
}

// Uniform returns a cohort of n individuals all starting in state s.
func Uniform(n, s int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = s
	}
	return out
}
