package probs

import (
	"errors"
	"math"
	"testing"

	"microsim-core/matrix"
	"microsim-core/simerr"
)

func mustRows(t *testing.T, rows [][]float64) *matrix.Dense[float64] {
	t.Helper()
	m, err := matrix.FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestComputeByState(t *testing.T) {
	tab, err := NewTable(ByState, 2, mustRows(t, [][]float64{{0.9, 0.1}, {0.2, 0.8}}), 0)
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compute([]int{1, 0, 1}, tab)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := p.Dims(); r != 3 || c != 2 {
		t.Fatalf("dims %dx%d", r, c)
	}
	if p.At(0, 0) != 0.2 || p.At(1, 0) != 0.9 || p.At(2, 1) != 0.8 {
		t.Fatalf("unexpected rows %v", p.RowSlices())
	}
	for i := 0; i < 3; i++ {
		s := 0.0
		for _, v := range p.Row(i) {
			s += v
		}
		if math.Abs(s-1) > 1e-9 {
			t.Fatalf("row %d sums to %v", i, s)
		}
	}
}

func TestComputeBroadcastIgnoresState(t *testing.T) {
	tab, err := NewTable(Broadcast, 3, mustRows(t, [][]float64{{0.2, 0.3, 0.5}}), 0)
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compute([]int{0, 2}, tab)
	if err != nil {
		t.Fatal(err)
	}
	if p.At(0, 2) != 0.5 || p.At(1, 2) != 0.5 {
		t.Fatalf("broadcast row not shared: %v", p.RowSlices())
	}
}

func TestPerIndividualCohortSize(t *testing.T) {
	tab, err := NewTable(PerIndividual, 2, mustRows(t, [][]float64{{1, 0}, {0, 1}}), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compute([]int{0, 0, 0}, tab); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestInvalidDistribution(t *testing.T) {
	t.Run("bad sum", func(t *testing.T) {
		_, err := NewTable(ByState, 2, mustRows(t, [][]float64{{0.5, 0.4}, {0, 1}}), 0)
		if !errors.Is(err, simerr.ErrInvalidDistribution) {
			t.Fatalf("want ErrInvalidDistribution, got %v", err)
		}
	})
	t.Run("negative entry", func(t *testing.T) {
		_, err := NewTable(Broadcast, 2, mustRows(t, [][]float64{{1.5, -0.5}}), 0)
		if !errors.Is(err, simerr.ErrInvalidDistribution) {
			t.Fatalf("want ErrInvalidDistribution, got %v", err)
		}
	})
	t.Run("within tolerance", func(t *testing.T) {
		_, err := NewTable(Broadcast, 2, mustRows(t, [][]float64{{0.5, 0.5 + 1e-12}}), 0)
		if err != nil {
			t.Fatalf("tiny drift should pass: %v", err)
		}
	})
	t.Run("table tolerance", func(t *testing.T) {
		rows := [][]float64{{0.5, 0.5005}}
		if _, err := NewTable(Broadcast, 2, mustRows(t, rows), 1e-3); err != nil {
			t.Fatalf("drift inside a loose tolerance should pass: %v", err)
		}
		if _, err := NewTable(Broadcast, 2, mustRows(t, rows), 0); !errors.Is(err, simerr.ErrInvalidDistribution) {
			t.Fatalf("default tolerance should reject it, got %v", err)
		}
	})
}

func TestStateOutOfRange(t *testing.T) {
	tab, _ := NewTable(ByState, 2, mustRows(t, [][]float64{{1, 0}, {0, 1}}), 0)
	if _, err := Compute([]int{0, 2}, tab); !errors.Is(err, simerr.ErrIndexOutOfRange) {
		t.Fatalf("want ErrIndexOutOfRange, got %v", err)
	}
}

func TestInferLayoutPrefersByState(t *testing.T) {
	l, err := InferLayout(4, 2, 2)
	if err != nil || l != ByState {
		t.Fatalf("n_I==n_S should infer ByState, got %v %v", l, err)
	}
	if l, _ := InferLayout(2, 5, 2); l != Broadcast {
		t.Fatalf("want Broadcast, got %v", l)
	}
	if l, _ := InferLayout(10, 5, 2); l != PerIndividual {
		t.Fatalf("want PerIndividual, got %v", l)
	}
	if _, err := InferLayout(7, 5, 2); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestFromFlatColumnMajor(t *testing.T) {
	// [[0.9,0.1],[0.3,0.7]] column-major
	tab, err := FromFlat([]float64{0.9, 0.3, 0.1, 0.7}, 10, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	row, _ := tab.Row(0, 1)
	if row[0] != 0.3 || row[1] != 0.7 {
		t.Fatalf("row for state 1 = %v", row)
	}
}

func TestScheduleReusesLast(t *testing.T) {
	a, _ := NewTable(Broadcast, 2, mustRows(t, [][]float64{{1, 0}}), 0)
	b, _ := NewTable(Broadcast, 2, mustRows(t, [][]float64{{0, 1}}), 0)
	s := Schedule{a, b}
	if s.At(0).At(0, 0) != 1 || s.At(5).At(0, 1) != 1 {
		t.Fatal("schedule should reuse the last table past its end")
	}
	if err := s.Check(3, 3); !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestParseLayout(t *testing.T) {
	for _, l := range []Layout{Broadcast, PerIndividual, ByState} {
		got, err := ParseLayout(l.String())
		if err != nil || got != l {
			t.Fatalf("round-trip %v: %v %v", l, got, err)
		}
	}
	if _, err := ParseLayout("diagonal"); err == nil {
		t.Fatal("expected error")
	}
}
