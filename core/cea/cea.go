// Package cea compares two strategies run on the same cohort and seed.
package cea

import (
	"fmt"

	"microsim-core/microsim"
)

// Verdict classifies an incremental comparison.
type Verdict string

const (
	Dominant   Verdict = "dominant"   // cheaper (or equal) and at least as effective
	Dominated  Verdict = "dominated"  // costlier (or equal) and at most as effective
	ICER       Verdict = "icer"       // trade-off; see Comparison.ICER
	Equivalent Verdict = "equivalent" // same cost and effect
)

// Comparison is alt relative to base.
type Comparison struct {
	Base, Alt   string
	DeltaCost   float64
	DeltaEffect float64
	ICER        float64 // ΔC/ΔE; only meaningful when Verdict == ICER
	Verdict     Verdict
}

// Compare computes the incremental cost-effectiveness of alt over base.
func Compare(baseName string, base microsim.Summary, altName string, alt microsim.Summary) (Comparison, error) {
	if base.Individuals != alt.Individuals || base.Cycles != alt.Cycles {
		return Comparison{}, fmt.Errorf("strategies differ in cohort (%d vs %d individuals, %d vs %d cycles)",
			base.Individuals, alt.Individuals, base.Cycles, alt.Cycles)
	}
	c := Comparison{
		Base:        baseName,
		Alt:         altName,
		DeltaCost:   alt.MeanCost - base.MeanCost,
		DeltaEffect: alt.MeanEffect - base.MeanEffect,
	}
	switch {
	case c.DeltaCost == 0 && c.DeltaEffect == 0:
		c.Verdict = Equivalent
	case c.DeltaCost <= 0 && c.DeltaEffect >= 0:
		c.Verdict = Dominant
	case c.DeltaCost >= 0 && c.DeltaEffect <= 0:
		c.Verdict = Dominated
	default:
		c.Verdict = ICER
		c.ICER = c.DeltaCost / c.DeltaEffect
	}
	return c, nil
}
