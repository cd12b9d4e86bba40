// Package matrix provides the owned dense container used across the engine.
// Rows are individuals; columns are states or cycles depending on the caller.
package matrix

import (
	"fmt"

	"microsim-core/simerr"
)

// Number is the element set the engine stores: state indices and values.
type Number interface {
	~int | ~float64
}

// Dense is a row-major rows×cols matrix with bounds-checked access.
type Dense[T Number] struct {
	rows, cols int
	data       []T
}

// New allocates a zeroed rows×cols matrix. Negative dimensions panic.
func New[T Number](rows, cols int) *Dense[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: negative dimensions %dx%d", rows, cols))
	}
	return &Dense[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// FromRows copies a ragged-checked [][]T into a Dense.
func FromRows[T Number](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 {
		return New[T](0, 0), nil
	}
	cols := len(rows[0])
	m := New[T](len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", simerr.ErrDimensionMismatch, i, len(r), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], r)
	}
	return m, nil
}

// FromColMajor reads a flat column-major vector (the layout statistical hosts
// hand over) into a rows×cols Dense.
func FromColMajor[T Number](rows, cols int, flat []T) (*Dense[T], error) {
	if rows < 0 || cols < 0 || len(flat) != rows*cols {
		return nil, fmt.Errorf("%w: %d values cannot fill %dx%d", simerr.ErrDimensionMismatch, len(flat), rows, cols)
	}
	m := New[T](rows, cols)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			m.data[i*cols+j] = flat[j*rows+i]
		}
	}
	return m, nil
}

// Dims returns (rows, cols).
func (m *Dense[T]) Dims() (int, int) { return m.rows, m.cols }

// Rows returns the row count.
func (m *Dense[T]) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Dense[T]) Cols() int { return m.cols }

// InBounds reports whether (i, j) addresses an element.
func (m *Dense[T]) InBounds(i, j int) bool {
	return i >= 0 && i < m.rows && j >= 0 && j < m.cols
}

// At returns element (i, j) and panics when out of range.
func (m *Dense[T]) At(i, j int) T {
	if !m.InBounds(i, j) {
		panic(m.rangeErr(i, j))
	}
	return m.data[i*m.cols+j]
}

// Set writes element (i, j) and panics when out of range.
func (m *Dense[T]) Set(i, j int, v T) {
	if !m.InBounds(i, j) {
		panic(m.rangeErr(i, j))
	}
	m.data[i*m.cols+j] = v
}

// Get is At with an error instead of a panic.
func (m *Dense[T]) Get(i, j int) (T, error) {
	if !m.InBounds(i, j) {
		var zero T
		return zero, m.rangeErr(i, j)
	}
	return m.data[i*m.cols+j], nil
}

// Row returns a view of row i; writes go through to the matrix.
func (m *Dense[T]) Row(i int) []T {
	if i < 0 || i >= m.rows {
		panic(m.rangeErr(i, 0))
	}
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Col copies column j out.
func (m *Dense[T]) Col(j int) []T {
	if j < 0 || j >= m.cols {
		panic(m.rangeErr(0, j))
	}
	out := make([]T, m.rows)
	for i := range out {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

// SetCol overwrites column j from v.
func (m *Dense[T]) SetCol(j int, v []T) {
	if j < 0 || j >= m.cols || len(v) != m.rows {
		panic(fmt.Errorf("%w: column %d of %dx%d from %d values", simerr.ErrDimensionMismatch, j, m.rows, m.cols, len(v)))
	}
	for i, x := range v {
		m.data[i*m.cols+j] = x
	}
}

// Clone returns a deep copy.
func (m *Dense[T]) Clone() *Dense[T] {
	c := &Dense[T]{rows: m.rows, cols: m.cols, data: make([]T, len(m.data))}
	copy(c.data, m.data)
	return c
}

// RowSlices copies the matrix out as [][]T.
func (m *Dense[T]) RowSlices() [][]T {
	out := make([][]T, m.rows)
	for i := range out {
		out[i] = append([]T(nil), m.data[i*m.cols:(i+1)*m.cols]...)
	}
	return out
}

func (m *Dense[T]) rangeErr(i, j int) error {
	return fmt.Errorf("%w: (%d,%d) outside %dx%d", simerr.ErrIndexOutOfRange, i, j, m.rows, m.cols)
}
