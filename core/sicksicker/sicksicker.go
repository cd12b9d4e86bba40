// Package sicksicker is the four-state Sick-Sicker disease-progression model
// run on the generic microsim engine.
//
// States: Healthy (H), Sick (S1), Sicker (S2), Dead (D). Healthy people may
// get sick or die; the sick may recover, progress or die; the sicker may only
// die; death is absorbing. Treatment adds its cost in S1 and S2 and lifts the
// S1 utility.
package sicksicker

import (
	"fmt"
	"math"

	"microsim-core/accrue"
	"microsim-core/matrix"
	"microsim-core/microsim"
	"microsim-core/probs"
	"microsim-core/simerr"
)

// State indices of the fixed topology.
const (
	Healthy = iota
	Sick
	Sicker
	Dead

	NumStates
)

// Labels names the states in index order.
var Labels = [NumStates]string{"H", "S1", "S2", "D"}

// StateIndex resolves a label (H, S1, S2, D) to its index.
func StateIndex(label string) (int, bool) {
	for i, l := range Labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// Params are the per-cycle model inputs.
type Params struct {
	PHD   float64 `yaml:"p_hd"`   // H → D
	PHS1  float64 `yaml:"p_hs1"`  // H → S1
	PS1H  float64 `yaml:"p_s1h"`  // S1 → H
	PS1S2 float64 `yaml:"p_s1s2"` // S1 → S2
	RRS1  float64 `yaml:"rr_s1"`  // death-rate ratio S1 vs H
	RRS2  float64 `yaml:"rr_s2"`  // death-rate ratio S2 vs H

	CH   float64 `yaml:"c_h"`
	CS1  float64 `yaml:"c_s1"`
	CS2  float64 `yaml:"c_s2"`
	CTrt float64 `yaml:"c_trt"` // added in S1 and S2 when treated

	UH   float64 `yaml:"u_h"`
	US1  float64 `yaml:"u_s1"`
	US2  float64 `yaml:"u_s2"`
	UTrt float64 `yaml:"u_trt"` // replaces u_s1 when treated
}

// DefaultParams returns the standard teaching-model values.
func DefaultParams() Params {
	return Params{
		PHD: 0.005, PHS1: 0.15, PS1H: 0.5, PS1S2: 0.105, RRS1: 3, RRS2: 10,
		CH: 2000, CS1: 4000, CS2: 15000, CTrt: 12000,
		UH: 1, US1: 0.75, US2: 0.5, UTrt: 0.95,
	}
}

// PS1D is the S1 death probability: 1-(1-p_HD)^rr_S1.
func (p Params) PS1D() float64 { return rateScaled(p.PHD, p.RRS1) }

// PS2D is the S2 death probability: 1-(1-p_HD)^rr_S2.
func (p Params) PS2D() float64 { return rateScaled(p.PHD, p.RRS2) }

func rateScaled(prob, rr float64) float64 {
	// convert to a rate, scale, convert back
	return 1 - math.Exp(math.Log(1-prob)*rr)
}

// stay snaps a staying-put remainder that rounding pushed just below zero.
func stay(v float64) float64 {
	if v < 0 && v > -probs.DefaultTolerance {
		return 0
	}
	return v
}

// Validate checks every probability lies in [0,1] and rows leave room for
// staying put.
func (p Params) Validate() error {
	for name, v := range map[string]float64{"p_hd": p.PHD, "p_hs1": p.PHS1, "p_s1h": p.PS1H, "p_s1s2": p.PS1S2} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s=%g outside [0,1]", simerr.ErrInvalidParameter, name, v)
		}
	}
	if p.RRS1 < 0 || p.RRS2 < 0 {
		return fmt.Errorf("%w: rate ratios must be non-negative", simerr.ErrInvalidParameter)
	}
	if s := p.PHS1 + p.PHD; s > 1 {
		return fmt.Errorf("%w: H exits sum to %g", simerr.ErrInvalidDistribution, s)
	}
	if s := p.PS1H + p.PS1S2 + p.PS1D(); s > 1 {
		return fmt.Errorf("%w: S1 exits sum to %g", simerr.ErrInvalidDistribution, s)
	}
	return nil
}

// Tables builds the state-conditional transition table and the cost and
// utility tables (untreated, treated).
func (p Params) Tables() (probs.Table, accrue.Table, accrue.Table, error) {
	if err := p.Validate(); err != nil {
		return probs.Table{}, accrue.Table{}, accrue.Table{}, err
	}
	s1d, s2d := p.PS1D(), p.PS2D()
	m, err := matrix.FromRows([][]float64{
		{stay(1 - p.PHS1 - p.PHD), p.PHS1, 0, p.PHD},
		{p.PS1H, stay(1 - p.PS1H - p.PS1S2 - s1d), p.PS1S2, s1d},
		{0, 0, stay(1 - s2d), s2d},
		{0, 0, 0, 1},
	})
	if err != nil {
		return probs.Table{}, accrue.Table{}, accrue.Table{}, err
	}
	tab, err := probs.NewTable(probs.ByState, NumStates, m, probs.DefaultTolerance)
	if err != nil {
		return probs.Table{}, accrue.Table{}, accrue.Table{}, err
	}
	costs, err := accrue.NewTable(
		[]float64{p.CH, p.CS1, p.CS2, 0},
		[]float64{p.CH, p.CS1 + p.CTrt, p.CS2 + p.CTrt, 0},
	)
	if err != nil {
		return probs.Table{}, accrue.Table{}, accrue.Table{}, err
	}
	utils, err := accrue.NewTable(
		[]float64{p.UH, p.US1, p.US2, 0},
		[]float64{p.UH, p.UTrt, p.US2, 0},
	)
	if err != nil {
		return probs.Table{}, accrue.Table{}, accrue.Table{}, err
	}
	return tab, costs, utils, nil
}

// forbidden transitions of the topology: (from, to)
var forbidden = [][2]int{
	{Healthy, Sicker},
	{Sicker, Healthy},
	{Sicker, Sick},
	{Dead, Healthy},
	{Dead, Sick},
	{Dead, Sicker},
}

// ValidateTopology checks a transition table respects the Sick-Sicker graph.
func ValidateTopology(t probs.Table) error {
	if t.States() != NumStates {
		return fmt.Errorf("%w: sick-sicker needs n_S=%d, got %d", simerr.ErrDimensionMismatch, NumStates, t.States())
	}
	if t.Layout() != probs.ByState {
		return fmt.Errorf("%w: sick-sicker needs a state-conditional table, got %s", simerr.ErrDimensionMismatch, t.Layout())
	}
	for _, ft := range forbidden {
		if v := t.At(ft[0], ft[1]); v != 0 {
			return fmt.Errorf("%w: %s→%s must be 0, got %g",
				simerr.ErrInvalidDistribution, Labels[ft[0]], Labels[ft[1]], v)
		}
	}
	return nil
}

// CheckInput checks the input against the fixed topology.
func CheckInput(in microsim.Input) error {
	if in.States != NumStates {
		return fmt.Errorf("%w: sick-sicker needs n_S=%d, got %d", simerr.ErrDimensionMismatch, NumStates, in.States)
	}
	if len(in.Transitions) == 0 {
		return fmt.Errorf("%w: no transition tables", simerr.ErrDimensionMismatch)
	}
	for k, t := range in.Transitions {
		if err := ValidateTopology(t); err != nil {
			return fmt.Errorf("table %d: %w", k, err)
		}
	}
	return nil
}

// Run checks the input and runs the engine (SickSickerMicroSim).
func Run(eng *microsim.Engine, in microsim.Input) (*microsim.Result, error) {
	if err := CheckInput(in); err != nil {
		return nil, err
	}
	return eng.Run(in)
}

// Input assembles an engine input for n individuals all starting Healthy.
func (p Params) Input(n, cycles int, dC, dE float64, trt bool, seed int64) (microsim.Input, error) {
	tab, costs, utils, err := p.Tables()
	if err != nil {
		return microsim.Input{}, err
	}
	return microsim.Input{
		Initial:        microsim.Uniform(n, Healthy),
		States:         NumStates,
		Cycles:         cycles,
		Transitions:    probs.Homogeneous(tab),
		Costs:          costs,
		Utilities:      utils,
		CostDiscount:   dC,
		EffectDiscount: dE,
		Treatment:      trt,
		Seed:           seed,
	}, nil
}
