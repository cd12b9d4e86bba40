// Package probs turns a cohort's current states into per-individual
// next-state distributions.
package probs

import (
	"fmt"
	"math"

	"microsim-core/matrix"
	"microsim-core/simerr"
)

// DefaultTolerance bounds |Σrow - 1| for a valid distribution.
const DefaultTolerance = 1e-9

// Layout says how a table's rows map to individuals.
type Layout int

const (
	// Broadcast: one 1×n_S row shared by everyone.
	Broadcast Layout = iota
	// PerIndividual: n_I×n_S, row i belongs to individual i.
	PerIndividual
	// ByState: n_S×n_S, row s applies to anyone currently in state s.
	ByState
)

func (l Layout) String() string {
	switch l {
	case Broadcast:
		return "broadcast"
	case PerIndividual:
		return "individual"
	case ByState:
		return "state"
	default:
		return "unknown"
	}
}

// ParseLayout accepts the names String produces.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "broadcast":
		return Broadcast, nil
	case "individual", "per-individual":
		return PerIndividual, nil
	case "state", "by-state":
		return ByState, nil
	}
	return 0, fmt.Errorf("unknown transition layout %q (want broadcast|individual|state)", s)
}

// Table is a validated transition table. Construct with NewTable or FromFlat.
type Table struct {
	layout Layout
	nS     int
	p      *matrix.Dense[float64]
}

// NewTable validates p against layout and state count nS.
func NewTable(layout Layout, nS int, p *matrix.Dense[float64], tol float64) (Table, error) {
	if nS <= 0 {
		return Table{}, fmt.Errorf("%w: n_S must be positive, got %d", simerr.ErrDimensionMismatch, nS)
	}
	rows, cols := p.Dims()
	if cols != nS {
		return Table{}, fmt.Errorf("%w: %s table has %d columns, want n_S=%d", simerr.ErrDimensionMismatch, layout, cols, nS)
	}
	switch layout {
	case Broadcast:
		if rows != 1 {
			return Table{}, fmt.Errorf("%w: broadcast table has %d rows, want 1", simerr.ErrDimensionMismatch, rows)
		}
	case ByState:
		if rows != nS {
			return Table{}, fmt.Errorf("%w: state table has %d rows, want n_S=%d", simerr.ErrDimensionMismatch, rows, nS)
		}
	case PerIndividual:
		if rows == 0 {
			return Table{}, fmt.Errorf("%w: individual table has no rows", simerr.ErrDimensionMismatch)
		}
	default:
		return Table{}, fmt.Errorf("unknown layout %d", layout)
	}
	if err := Validate(p, tol); err != nil {
		return Table{}, err
	}
	return Table{layout: layout, nS: nS, p: p.Clone()}, nil
}

// InferLayout picks a layout from a flat vector length. When n_I == n_S the
// state-conditional form wins.
func InferLayout(n, nI, nS int) (Layout, error) {
	switch {
	case n == nS:
		return Broadcast, nil
	case n == nS*nS:
		return ByState, nil
	case n == nI*nS:
		return PerIndividual, nil
	}
	return 0, fmt.Errorf("%w: %d probabilities fit neither n_S=%d, n_S²=%d nor n_I·n_S=%d",
		simerr.ErrDimensionMismatch, n, nS, nS*nS, nI*nS)
}

// FromFlat builds a table from a column-major flat vector, inferring the layout.
func FromFlat(flat []float64, nI, nS int, tol float64) (Table, error) {
	layout, err := InferLayout(len(flat), nI, nS)
	if err != nil {
		return Table{}, err
	}
	rows := 1
	switch layout {
	case ByState:
		rows = nS
	case PerIndividual:
		rows = nI
	}
	p, err := matrix.FromColMajor(rows, nS, flat)
	if err != nil {
		return Table{}, err
	}
	return NewTable(layout, nS, p, tol)
}

// Layout returns the table layout.
func (t Table) Layout() Layout { return t.layout }

// States returns n_S.
func (t Table) States() int { return t.nS }

// Rows returns the number of stored rows.
func (t Table) Rows() int {
	if t.p == nil {
		return 0
	}
	return t.p.Rows()
}

// At returns the stored probability at (row, to).
func (t Table) At(row, to int) float64 { return t.p.At(row, to) }

// Row returns the distribution for individual i currently in state s.
// The slice is shared with the table and must not be modified.
func (t Table) Row(i, s int) ([]float64, error) {
	switch t.layout {
	case Broadcast:
		return t.p.Row(0), nil
	case PerIndividual:
		if i < 0 || i >= t.p.Rows() {
			return nil, fmt.Errorf("%w: individual %d outside table of %d rows", simerr.ErrIndexOutOfRange, i, t.p.Rows())
		}
		return t.p.Row(i), nil
	case ByState:
		if s < 0 || s >= t.nS {
			return nil, fmt.Errorf("%w: state %d outside [0,%d)", simerr.ErrIndexOutOfRange, s, t.nS)
		}
		return t.p.Row(s), nil
	}
	return nil, fmt.Errorf("probs: table not initialised")
}

// CheckCohort verifies the table can serve a cohort of nI individuals.
func (t Table) CheckCohort(nI int) error {
	if t.p == nil {
		return fmt.Errorf("%w: empty transition table", simerr.ErrDimensionMismatch)
	}
	if t.layout == PerIndividual && t.p.Rows() != nI {
		return fmt.Errorf("%w: individual table has %d rows, want n_I=%d", simerr.ErrDimensionMismatch, t.p.Rows(), nI)
	}
	return nil
}

// Validate checks every row of p is a distribution within tol.
func Validate(p *matrix.Dense[float64], tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	rows, _ := p.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j, v := range p.Row(i) {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d column %d is %g", simerr.ErrInvalidDistribution, i, j, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: row %d sums to %.12g", simerr.ErrInvalidDistribution, i, sum)
		}
	}
	return nil
}
