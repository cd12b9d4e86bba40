// Package accrue maps occupied states to per-cycle costs and effects and
// discounts them to present value.
package accrue

import (
	"fmt"
	"math"

	"microsim-core/simerr"
)

// Table holds one value per state, with an optional treated variant.
type Table struct {
	untreated []float64
	treated   []float64
}

// NewTable copies the two variants. A nil treated slice means treatment does
// not change the values.
func NewTable(untreated, treated []float64) (Table, error) {
	if len(untreated) == 0 {
		return Table{}, fmt.Errorf("%w: empty value table", simerr.ErrDimensionMismatch)
	}
	if treated != nil && len(treated) != len(untreated) {
		return Table{}, fmt.Errorf("%w: treated table has %d states, untreated %d",
			simerr.ErrDimensionMismatch, len(treated), len(untreated))
	}
	for _, v := range append(append([]float64(nil), untreated...), treated...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Table{}, fmt.Errorf("value table contains %g", v)
		}
	}
	t := Table{untreated: append([]float64(nil), untreated...)}
	if treated != nil {
		t.treated = append([]float64(nil), treated...)
	}
	return t, nil
}

// FromFlat reads a host-style flat vector of length n_S (one variant) or
// 2·n_S (untreated then treated).
func FromFlat(flat []float64, nS int) (Table, error) {
	switch len(flat) {
	case nS:
		return NewTable(flat, nil)
	case 2 * nS:
		return NewTable(flat[:nS], flat[nS:])
	}
	return Table{}, fmt.Errorf("%w: %d values for n_S=%d (want %d or %d)",
		simerr.ErrDimensionMismatch, len(flat), nS, nS, 2*nS)
}

// States returns the number of states the table covers.
func (t Table) States() int { return len(t.untreated) }

// Treated reports whether a distinct treated variant exists.
func (t Table) Treated() bool { return t.treated != nil }

// Untreated returns a copy of the untreated variant.
func (t Table) Untreated() []float64 { return append([]float64(nil), t.untreated...) }

// TreatedValues returns a copy of the treated variant, or the untreated one.
func (t Table) TreatedValues() []float64 {
	if t.treated == nil {
		return t.Untreated()
	}
	return append([]float64(nil), t.treated...)
}

// Value looks up the value for state s under the treatment flag.
func (t Table) Value(s int, trt bool) (float64, error) {
	if s < 0 || s >= len(t.untreated) {
		return 0, fmt.Errorf("%w: state %d outside table of %d states", simerr.ErrIndexOutOfRange, s, len(t.untreated))
	}
	if trt && t.treated != nil {
		return t.treated[s], nil
	}
	return t.untreated[s], nil
}

// Costs returns the per-individual cost of occupying states for one cycle (CostsV).
func Costs(states []int, t Table, trt bool) ([]float64, error) {
	out := make([]float64, len(states))
	for i, s := range states {
		v, err := t.Value(s, trt)
		if err != nil {
			return nil, fmt.Errorf("individual %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Effects returns the per-individual effect (utility × cycle length) of
// occupying states for one cycle (EffsV).
func Effects(states []int, t Table, trt bool, cl float64) ([]float64, error) {
	if cl <= 0 || math.IsNaN(cl) {
		return nil, fmt.Errorf("cycle length must be positive, got %g", cl)
	}
	out, err := Costs(states, t, trt)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] *= cl
	}
	return out, nil
}

// ValidRate reports whether d is a usable per-cycle discount rate, [0, 1).
func ValidRate(d float64) bool { return d >= 0 && d < 1 }

// Discount returns the weight 1/(1+rate)^t for a value accrued in cycle t.
func Discount(rate float64, t int) float64 {
	if rate == 0 {
		return 1
	}
	return 1 / math.Pow(1+rate, float64(t))
}

// Weights returns the discount weights for cycles 0..n-1.
func Weights(rate float64, n int) []float64 {
	w := make([]float64, n)
	for t := range w {
		w[t] = Discount(rate, t)
	}
	return w
}

// Total discounts a per-cycle series: Σ v_t / (1+rate)^t.
func Total(perCycle []float64, rate float64) float64 {
	sum := 0.0
	for t, v := range perCycle {
		sum += v * Discount(rate, t)
	}
	return sum
}
