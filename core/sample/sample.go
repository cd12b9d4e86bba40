// Package sample draws next states from per-individual distributions.
//
// Sampling is inverse-CDF against each row. Every (call, draw, individual)
// uses its own seed-derived sub-stream, so the same stream position and the
// same probability matrix always give the same draws, whatever the worker count.
package sample

import (
	"fmt"
	"math"

	"microsim-core/internal/par"
	"microsim-core/matrix"
	"microsim-core/rng"
	"microsim-core/simerr"
)

// Pick returns the state whose cumulative mass first exceeds u·Σrow.
// u must lie in [0, 1).
func Pick(row []float64, u float64) (int, error) {
	total := 0.0
	last := -1
	for j, v := range row {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: column %d is %g", simerr.ErrInvalidDistribution, j, v)
		}
		if v > 0 {
			last = j
		}
		total += v
	}
	if !(total > 0) {
		return 0, simerr.ErrDegenerateRow
	}
	target := u * total
	cum := 0.0
	for j, v := range row {
		cum += v
		if target < cum {
			return j, nil
		}
	}
	// rounding left target at or past the final sum
	return last, nil
}

// Draw samples m independent next states per individual (SampleV). The result
// is n_I×m; column k holds the k-th draw. The call consumes one stream epoch.
func Draw(p *matrix.Dense[float64], m int, s *rng.Stream, workers int) (*matrix.Dense[int], error) {
	if m < 1 {
		return nil, fmt.Errorf("%w: draw count must be positive, got %d", simerr.ErrDimensionMismatch, m)
	}
	nI, _ := p.Dims()
	out := matrix.New[int](nI, m)
	epoch := s.Next()
	err := par.Range(nI, workers, func(lo, hi int) error {
		g := s.NewSub()
		for i := lo; i < hi; i++ {
			row := p.Row(i)
			for k := 0; k < m; k++ {
				st, err := Pick(row, g.Reset(epoch, uint64(k)*uint64(nI)+uint64(i)).Float64())
				if err != nil {
					return fmt.Errorf("individual %d: %w", i, err)
				}
				out.Set(i, k, st)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
