// Package boxcount implements the box-counting stage of the fractal
// dimension estimator. Given a binary occupancy field it counts, for each box
// size in a geometric sequence, how many non-overlapping boxes of that size
// contain at least one occupied cell, and fits a straight line to
// log(count) versus log(size). The box-counting dimension is the negated
// slope of that line.
package boxcount

import (
	"errors"
	"fmt"
	"math"

	"fracdim/pkg/field"
)

var (
	// ErrDegenerateData reports a box-count sequence too poor to fit: fewer
	// than two usable sizes, a zero occupied-box count, or a sample with no
	// spread on the size axis.
	ErrDegenerateData = errors.New("degenerate box-count data")

	// ErrFitConvergence reports a least-squares fit that produced
	// non-finite parameters.
	ErrFitConvergence = errors.New("least-squares fit did not converge")
)

// Result holds the outcome of one box-counting pass: the size sequence, the
// occupied-box count per size, both on natural-log scale, and the fitted
// line through the log-log samples.
type Result struct {
	Sizes     []int
	Counts    []int
	LogSizes  []float64
	LogCounts []float64
	Fit       Fit
}

// Dimension returns the box-counting dimension estimate, the negated fitted
// slope. The value is deliberately not clamped to [0, 2]: an out-of-range
// estimate signals a poor-quality input, not an internal error.
func (r *Result) Dimension() float64 { return -r.Fit.Slope }

// SlopeErr returns the parametric standard error of the slope, the square
// root of the first diagonal entry of the fit covariance.
func (r *Result) SlopeErr() float64 { return math.Sqrt(r.Fit.SlopeVar) }

// Hurst returns the Hurst-like exponent 2 + slope, algebraically
// 2 - Dimension(). It is a derived quantity, not an independent measurement.
func (r *Result) Hurst() float64 { return 2 + r.Fit.Slope }

// Sizes derives the box size sequence for a field with the given dimensions.
// With p = min(rows, cols) and maxExp = floor(log2(p)), the sizes are 2^k for
// k = maxExp down to 2: strictly decreasing powers of two, all greater
// than 1. Fields too small to produce at least two sizes (maxExp <= 2) make
// the downstream fit ill-posed and return ErrDegenerateData.
func Sizes(rows, cols int) ([]int, error) {
	p := rows
	if cols < p {
		p = cols
	}
	if p < 1 {
		return nil, fmt.Errorf("%w: empty field", ErrDegenerateData)
	}

	maxExp := int(math.Floor(math.Log2(float64(p))))
	if maxExp <= 2 {
		return nil, fmt.Errorf("%w: min dimension %d yields %d box sizes, need at least 2",
			ErrDegenerateData, p, maxInt(maxExp-1, 0))
	}

	sizes := make([]int, 0, maxExp-1)
	for k := maxExp; k > 1; k-- {
		sizes = append(sizes, 1<<uint(k))
	}
	return sizes, nil
}

// Count tiles the binary field with boxes of every size in the derived
// sequence and counts the occupied boxes per size. Tiling starts at the
// origin; the last tile along each axis may be truncated. A cell is occupied
// when its value is greater than zero.
//
// Counts for different sizes are independent, so they are computed in
// parallel. A zero count at any size would put a -Inf into the log-log fit
// and is rejected with ErrDegenerateData.
func Count(binary *field.Field) (*Result, error) {
	if binary == nil {
		return nil, fmt.Errorf("%w: nil field", ErrDegenerateData)
	}

	sizes, err := Sizes(binary.Rows(), binary.Cols())
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(sizes))
	type countResult struct {
		idx   int
		count int
	}
	resultChan := make(chan countResult)

	for i, s := range sizes {
		go func(idx, size int) {
			resultChan <- countResult{idx: idx, count: countAtSize(binary, size)}
		}(i, s)
	}
	for range sizes {
		res := <-resultChan
		counts[res.idx] = res.count
	}

	logSizes := make([]float64, len(sizes))
	logCounts := make([]float64, len(sizes))
	for i := range sizes {
		if counts[i] == 0 {
			return nil, fmt.Errorf("%w: zero occupied boxes at size %d", ErrDegenerateData, sizes[i])
		}
		logSizes[i] = math.Log(float64(sizes[i]))
		logCounts[i] = math.Log(float64(counts[i]))
	}

	fit, err := FitLogLog(logSizes, logCounts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Sizes:     sizes,
		Counts:    counts,
		LogSizes:  logSizes,
		LogCounts: logCounts,
		Fit:       fit,
	}, nil
}

// countAtSize counts boxes of the given size containing at least one
// occupied cell. The scan of each box stops at the first occupied cell.
func countAtSize(binary *field.Field, size int) int {
	rows := binary.Rows()
	cols := binary.Cols()
	count := 0

	for by := 0; by < rows; by += size {
		yEnd := by + size
		if yEnd > rows {
			yEnd = rows
		}
		for bx := 0; bx < cols; bx += size {
			xEnd := bx + size
			if xEnd > cols {
				xEnd = cols
			}

			occupied := false
			for y := by; y < yEnd && !occupied; y++ {
				for x := bx; x < xEnd; x++ {
					if binary.At(y, x) > 0 {
						occupied = true
						break
					}
				}
			}
			if occupied {
				count++
			}
		}
	}
	return count
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
