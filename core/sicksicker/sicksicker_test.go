package sicksicker

import (
	"errors"
	"math"
	"testing"

	"microsim-core/matrix"
	"microsim-core/microsim"
	"microsim-core/probs"
	"microsim-core/simerr"
)

func TestDeathProbabilities(t *testing.T) {
	p := DefaultParams()
	want := 1 - math.Pow(1-0.005, 3)
	if math.Abs(p.PS1D()-want) > 1e-12 {
		t.Fatalf("p_S1D = %v, want %v", p.PS1D(), want)
	}
	if p.PS2D() <= p.PS1D() {
		t.Fatal("sicker should die faster than sick")
	}
}

func TestTablesRespectTopology(t *testing.T) {
	tab, costs, utils, err := DefaultParams().Tables()
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateTopology(tab); err != nil {
		t.Fatal(err)
	}
	if v, _ := costs.Value(Sick, true); v != 16000 {
		t.Fatalf("treated S1 cost = %v, want 16000", v)
	}
	if v, _ := utils.Value(Sick, true); v != 0.95 {
		t.Fatalf("treated S1 utility = %v, want 0.95", v)
	}
	if v, _ := utils.Value(Sicker, true); v != 0.5 {
		t.Fatalf("treated S2 utility = %v, want 0.5", v)
	}
}

func TestValidateTopologyRejects(t *testing.T) {
	t.Run("wrong layout", func(t *testing.T) {
		m, _ := matrix.FromRows([][]float64{{0.25, 0.25, 0.25, 0.25}})
		tab, _ := probs.NewTable(probs.Broadcast, 4, m, 0)
		if err := ValidateTopology(tab); !errors.Is(err, simerr.ErrDimensionMismatch) {
			t.Fatalf("want ErrDimensionMismatch, got %v", err)
		}
	})
	t.Run("H to S2", func(t *testing.T) {
		m, _ := matrix.FromRows([][]float64{
			{0.8, 0.1, 0.1, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		})
		tab, _ := probs.NewTable(probs.ByState, 4, m, 0)
		if err := ValidateTopology(tab); !errors.Is(err, simerr.ErrInvalidDistribution) {
			t.Fatalf("want ErrInvalidDistribution, got %v", err)
		}
	})
	t.Run("resurrection", func(t *testing.T) {
		m, _ := matrix.FromRows([][]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0.5, 0, 0, 0.5},
		})
		tab, _ := probs.NewTable(probs.ByState, 4, m, 0)
		if err := ValidateTopology(tab); !errors.Is(err, simerr.ErrInvalidDistribution) {
			t.Fatalf("want ErrInvalidDistribution, got %v", err)
		}
	})
}

func TestRunRejectsWrongStateCount(t *testing.T) {
	in, err := DefaultParams().Input(10, 5, 0.03, 0.03, false, 1)
	if err != nil {
		t.Fatal(err)
	}
	in.States = 3
	if _, err := Run(microsim.New(microsim.Config{}), in); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestRunProgressesAndNeverLeavesDeath(t *testing.T) {
	in, err := DefaultParams().Input(2000, 30, 0.03, 0.03, false, 7)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(microsim.New(microsim.Config{}), in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2000; i++ {
		tr := res.Trajectory(i)
		for k := 1; k < len(tr); k++ {
			prev, cur := tr[k-1], tr[k]
			if prev == Dead && cur != Dead {
				t.Fatalf("individual %d left death: %v", i, tr)
			}
			if prev == Healthy && cur == Sicker {
				t.Fatalf("individual %d jumped H→S2: %v", i, tr)
			}
		}
	}
	final := res.Occupancy(30)
	if final[Dead] == 0 || final[Sick] == 0 {
		t.Fatalf("30 cycles should produce deaths and sick people: %v", final)
	}
}

func TestTreatmentCostsMoreAndGainsQALYs(t *testing.T) {
	p := DefaultParams()
	eng := microsim.New(microsim.Config{})
	base, _ := p.Input(3000, 30, 0.03, 0.03, false, 1)
	trt, _ := p.Input(3000, 30, 0.03, 0.03, true, 1)
	rb, err := Run(eng, base)
	if err != nil {
		t.Fatal(err)
	}
	rt, err := Run(eng, trt)
	if err != nil {
		t.Fatal(err)
	}
	// same seed and same transitions: identical trajectories, only values differ
	if rb.Occupancy(30)[Dead] != rt.Occupancy(30)[Dead] {
		t.Fatal("common random numbers should give identical trajectories")
	}
	if rt.Summary.MeanCost <= rb.Summary.MeanCost || rt.Summary.MeanEffect <= rb.Summary.MeanEffect {
		t.Fatalf("treatment should cost more and gain QALYs: base %+v trt %+v", rb.Summary, rt.Summary)
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.PHS1 = 1.2
	if err := p.Validate(); !errors.Is(err, simerr.ErrInvalidParameter) {
		t.Fatalf("want ErrInvalidParameter, got %v", err)
	}
	p = DefaultParams()
	p.PS1H, p.PS1S2 = 0.6, 0.5
	if _, _, _, err := p.Tables(); !errors.Is(err, simerr.ErrInvalidDistribution) {
		t.Fatalf("want ErrInvalidDistribution, got %v", err)
	}
}

func TestTablesExitsSummingToOne(t *testing.T) {
	// 1 - 0.07 - 0.93 rounds to about -1.1e-16
	p := DefaultParams()
	p.PHS1, p.PHD = 0.07, 0.93
	p.PS1H, p.PS1S2 = 0, 0
	tab, _, _, err := p.Tables()
	if err != nil {
		t.Fatalf("exits summing to one should be accepted: %v", err)
	}
	if got := tab.At(Healthy, Healthy); got != 0 {
		t.Fatalf("H→H = %g, want 0", got)
	}
}

func TestStateIndex(t *testing.T) {
	if i, ok := StateIndex("S2"); !ok || i != Sicker {
		t.Fatalf("S2 → %d %v", i, ok)
	}
	if _, ok := StateIndex("X"); ok {
		t.Fatal("unknown label should fail")
	}
}
