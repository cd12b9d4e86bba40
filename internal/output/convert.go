// internal/output/convert.go
package output

import (
	"strconv"

	"microsim-core/cea"
	"microsim-core/microsim"
	"microsim/pkg/api"
)

// Run is one finished scenario/strategy run as the writers see it.
type Run struct {
	RunID  string
	Model  string
	Labels []string
	Input  microsim.Input
	Result *microsim.Result
}

// RecordOptions select the optional record kinds.
type RecordOptions struct {
	Individuals bool // one record per individual
	Trace       bool // one record per cycle boundary
}

// Label names state s, falling back to its index.
func (r Run) Label(s int) string {
	if s >= 0 && s < len(r.Labels) {
		return r.Labels[s]
	}
	return strconv.Itoa(s)
}

// ToAPISummary converts a run's summary to the v1 wire type.
func ToAPISummary(r Run) api.SummaryV1 {
	s := r.Result.Summary
	return api.SummaryV1{
		RunID:                  r.RunID,
		Model:                  r.Model,
		Strategy:               StrategyName(s.Treatment),
		Seed:                   s.Seed,
		Individuals:            s.Individuals,
		States:                 s.States,
		Cycles:                 s.Cycles,
		CycleLength:            cycleLength(r.Input.CycleLength),
		CostDiscount:           r.Input.CostDiscount,
		EffectDiscount:         r.Input.EffectDiscount,
		StateLabels:            append([]string(nil), r.Labels...),
		MeanCost:               s.MeanCost,
		MeanEffect:             s.MeanEffect,
		SDCost:                 s.SDCost,
		SDEffect:               s.SDEffect,
		SECost:                 s.SECost,
		SEEffect:               s.SEEffect,
		UndiscountedMeanCost:   s.UndiscountedMeanCost,
		UndiscountedMeanEffect: s.UndiscountedMeanEffect,
		FinalOccupancy:         r.Result.Occupancy(s.Cycles),
	}
}

func cycleLength(cl float64) float64 {
	if cl == 0 {
		return 1
	}
	return cl
}

// ToAPIIndividual converts individual i.
func ToAPIIndividual(r Run, i int) api.IndividualV1 {
	traj := r.Result.Trajectory(i)
	return api.IndividualV1{
		Model:       r.Model,
		Strategy:    StrategyName(r.Result.Treatment),
		Index:       i,
		Initial:     r.Label(traj[0]),
		Final:       r.Label(traj[len(traj)-1]),
		TotalCost:   r.Result.TotalCosts[i],
		TotalEffect: r.Result.TotalEffects[i],
		Trajectory:  traj,
	}
}

// ToAPITrace converts the occupancy at the start of cycle t (t == n_T is the end).
func ToAPITrace(r Run, t int) api.TraceRowV1 {
	return api.TraceRowV1{
		Model:    r.Model,
		Strategy: StrategyName(r.Result.Treatment),
		Cycle:    t,
		Counts:   r.Result.Occupancy(t),
	}
}

// ToAPIComparison converts a strategy comparison for model.
func ToAPIComparison(model string, c cea.Comparison) api.ComparisonV1 {
	out := api.ComparisonV1{
		Model:       model,
		Base:        c.Base,
		Alt:         c.Alt,
		DeltaCost:   c.DeltaCost,
		DeltaEffect: c.DeltaEffect,
		Verdict:     string(c.Verdict),
	}
	if c.Verdict == cea.ICER {
		out.ICER = c.ICER
	}
	return out
}

// Records flattens a run into wire records: the summary first, then the
// optional individual and trace records.
func Records(r Run, opt RecordOptions) []api.RecordV1 {
	sum := ToAPISummary(r)
	recs := []api.RecordV1{{Kind: api.KindSummary, Summary: &sum}}
	if opt.Individuals {
		for i := range r.Result.TotalCosts {
			ind := ToAPIIndividual(r, i)
			recs = append(recs, api.RecordV1{Kind: api.KindIndividual, Individual: &ind})
		}
	}
	if opt.Trace {
		for t := 0; t <= r.Result.Summary.Cycles; t++ {
			tr := ToAPITrace(r, t)
			recs = append(recs, api.RecordV1{Kind: api.KindTrace, Trace: &tr})
		}
	}
	return recs
}

// ComparisonRecord wraps a comparison as a wire record.
func ComparisonRecord(model string, c cea.Comparison) api.RecordV1 {
	cmp := ToAPIComparison(model, c)
	return api.RecordV1{Kind: api.KindComparison, Comparison: &cmp}
}
