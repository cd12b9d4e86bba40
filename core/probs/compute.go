package probs

import (
	"fmt"

	"microsim-core/matrix"
	"microsim-core/simerr"
)

// Compute materialises the n_I×n_S distribution matrix for a cohort whose
// current states are given.
func Compute(states []int, t Table) (*matrix.Dense[float64], error) {
	nI := len(states)
	if err := t.CheckCohort(nI); err != nil {
		return nil, err
	}
	out := matrix.New[float64](nI, t.nS)
	for i, s := range states {
		if s < 0 || s >= t.nS {
			return nil, fmt.Errorf("%w: individual %d in state %d outside [0,%d)", simerr.ErrIndexOutOfRange, i, s, t.nS)
		}
		row, err := t.Row(i, s)
		if err != nil {
			return nil, err
		}
		copy(out.Row(i), row)
	}
	return out, nil
}

// Schedule is a time-varying sequence of tables, one per cycle. Cycles past
// the end reuse the last table, so a single table is time-homogeneous.
type Schedule []Table

// Homogeneous wraps a single table.
func Homogeneous(t Table) Schedule { return Schedule{t} }

// At returns the table for cycle t.
func (s Schedule) At(t int) Table {
	if t >= len(s) {
		return s[len(s)-1]
	}
	return s[t]
}

// Check verifies every table agrees on n_S and fits the cohort.
func (s Schedule) Check(nI, nS int) error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no transition tables", simerr.ErrDimensionMismatch)
	}
	for k, t := range s {
		if t.nS != nS {
			return fmt.Errorf("%w: table %d has n_S=%d, want %d", simerr.ErrDimensionMismatch, k, t.nS, nS)
		}
		if err := t.CheckCohort(nI); err != nil {
			return fmt.Errorf("table %d: %w", k, err)
		}
	}
	return nil
}
