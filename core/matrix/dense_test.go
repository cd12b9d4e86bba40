package matrix

import (
	"errors"
	"testing"

	"microsim-core/simerr"
)

func TestFromColMajor(t *testing.T) {
	// 2x3, column-major: col0 = 1,2 ; col1 = 3,4 ; col2 = 5,6
	m, err := FromColMajor(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Row(0); got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Fatalf("row 0 = %v, want [1 3 5]", got)
	}
	if got := m.At(1, 2); got != 6 {
		t.Fatalf("At(1,2) = %v, want 6", got)
	}
}

func TestFromColMajorWrongLength(t *testing.T) {
	_, err := FromColMajor(2, 2, []int{1, 2, 3})
	if !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]int{{1, 2}, {3}})
	if !errors.Is(err, simerr.ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestGetOutOfRange(t *testing.T) {
	m := New[int](2, 2)
	if _, err := m.Get(2, 0); !errors.Is(err, simerr.ErrIndexOutOfRange) {
		t.Fatalf("want ErrIndexOutOfRange, got %v", err)
	}
	if _, err := m.Get(0, -1); !errors.Is(err, simerr.ErrIndexOutOfRange) {
		t.Fatalf("want ErrIndexOutOfRange, got %v", err)
	}
}

func TestAtPanicsOutOfRange(t *testing.T) {
	m := New[float64](1, 1)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, simerr.ErrIndexOutOfRange) {
			t.Fatalf("want panic with ErrIndexOutOfRange, got %v", r)
		}
	}()
	_ = m.At(0, 1)
}

func TestRowIsViewAndCloneIsDeep(t *testing.T) {
	m := New[int](2, 2)
	m.Row(1)[0] = 7
	if m.At(1, 0) != 7 {
		t.Fatal("Row should be a view")
	}
	c := m.Clone()
	c.Set(1, 0, 9)
	if m.At(1, 0) != 7 {
		t.Fatal("Clone must not alias")
	}
}

func TestColAndSetCol(t *testing.T) {
	m := New[int](3, 2)
	m.SetCol(1, []int{4, 5, 6})
	col := m.Col(1)
	if col[0] != 4 || col[2] != 6 {
		t.Fatalf("col = %v", col)
	}
	if r := m.RowSlices(); len(r) != 3 || r[2][1] != 6 {
		t.Fatalf("RowSlices = %v", r)
	}
}
