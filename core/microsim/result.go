package microsim

import (
	"math"

	"microsim-core/matrix"
)

// Result is the immutable output of one run. Callers must not mutate the
// matrices; Clone them first.
type Result struct {
	States       *matrix.Dense[int]     // n_I × (n_T+1), column 0 = initial
	Costs        *matrix.Dense[float64] // n_I × n_T, undiscounted per cycle
	Effects      *matrix.Dense[float64] // n_I × n_T, undiscounted per cycle
	TotalCosts   []float64              // discounted, per individual
	TotalEffects []float64              // discounted, per individual
	Trace        *matrix.Dense[int]     // (n_T+1) × n_S occupancy counts
	Summary      Summary

	Seed      int64
	Treatment bool

	nS int
}

// Summary aggregates a run across the cohort.
type Summary struct {
	Individuals int
	States      int
	Cycles      int
	Treatment   bool
	Seed        int64

	MeanCost   float64 // discounted
	MeanEffect float64 // discounted
	SDCost     float64
	SDEffect   float64
	SECost     float64 // Monte-Carlo standard error of the mean
	SEEffect   float64

	UndiscountedMeanCost   float64
	UndiscountedMeanEffect float64
}

// Trajectory copies individual i's state history.
func (r *Result) Trajectory(i int) []int {
	return append([]int(nil), r.States.Row(i)...)
}

// Final copies the states after the last cycle.
func (r *Result) Final() []int { return r.States.Col(r.States.Cols() - 1) }

// Occupancy copies the state counts at cycle boundary t (0 = initial).
func (r *Result) Occupancy(t int) []int {
	return append([]int(nil), r.Trace.Row(t)...)
}

func (r *Result) finish() {
	nI, cols := r.States.Dims()
	nT := cols - 1
	r.Trace = matrix.New[int](cols, r.nS)
	for t := 0; t < cols; t++ {
		row := r.Trace.Row(t)
		for i := 0; i < nI; i++ {
			row[r.States.At(i, t)]++
		}
	}

	s := Summary{
		Individuals: nI,
		States:      r.nS,
		Cycles:      nT,
		Treatment:   r.Treatment,
		Seed:        r.Seed,
	}
	s.MeanCost, s.SDCost = meanSD(r.TotalCosts)
	s.MeanEffect, s.SDEffect = meanSD(r.TotalEffects)
	s.SECost = s.SDCost / math.Sqrt(float64(nI))
	s.SEEffect = s.SDEffect / math.Sqrt(float64(nI))

	var uc, ue float64
	for i := 0; i < nI; i++ {
		for _, v := range r.Costs.Row(i) {
			uc += v
		}
		for _, v := range r.Effects.Row(i) {
			ue += v
		}
	}
	s.UndiscountedMeanCost = uc / float64(nI)
	s.UndiscountedMeanEffect = ue / float64(nI)
	r.Summary = s
}

// meanSD returns the mean and the sample standard deviation (0 for n < 2).
func meanSD(xs []float64) (float64, float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}
