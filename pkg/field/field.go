// Package field provides the 2-D scalar field type consumed by the
// estimation pipeline. A field is a dense rows×cols grid of float64 values
// stored in row-major order, matching the flat-slice layout used throughout
// the numeric packages. Fields are treated as immutable by the pipeline:
// every transform allocates and returns a fresh field.
package field

import (
	"fmt"
	"math"
)

// Field is a 2-D grid of real values in row-major order.
type Field struct {
	data []float64
	rows int
	cols int
}

// New creates a zero-valued field with the given dimensions.
// It panics if either dimension is negative.
func New(rows, cols int) *Field {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("field: invalid dimensions %dx%d", rows, cols))
	}
	return &Field{
		data: make([]float64, rows*cols),
		rows: rows,
		cols: cols,
	}
}

// FromSlice creates a field backed by a copy of data, which must hold
// exactly rows*cols values in row-major order.
func FromSlice(rows, cols int, data []float64) (*Field, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("field: data length %d does not match %dx%d", len(data), rows, cols)
	}
	f := New(rows, cols)
	copy(f.data, data)
	return f, nil
}

// Rows returns the number of rows.
func (f *Field) Rows() int { return f.rows }

// Cols returns the number of columns.
func (f *Field) Cols() int { return f.cols }

// At returns the value at row y, column x.
func (f *Field) At(y, x int) float64 {
	return f.data[y*f.cols+x]
}

// Set stores v at row y, column x.
func (f *Field) Set(y, x int, v float64) {
	f.data[y*f.cols+x] = v
}

// Data returns the underlying row-major slice. Callers must not modify it
// when the field is shared across pipeline stages.
func (f *Field) Data() []float64 { return f.data }

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := New(f.rows, f.cols)
	copy(c.data, f.data)
	return c
}

// MinMax returns the smallest and largest values in the field.
// Both are 0 for an empty field.
func (f *Field) MinMax() (min, max float64) {
	if len(f.data) == 0 {
		return 0, 0
	}
	min, max = f.data[0], f.data[0]
	for _, v := range f.data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// IsFinite reports whether every value in the field is finite.
func (f *Field) IsFinite() bool {
	for _, v := range f.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
