// Package binarize converts a scalar field into a two-level occupancy field.
// The field is first smoothed with an isotropic Gaussian to suppress
// pixel-level noise, then split at a single global threshold chosen by Otsu's
// method (the cutoff that maximizes between-class intensity variance over a
// 256-bin histogram of the smoothed values).
//
// A cell is occupied when its smoothed value is strictly LESS than the
// threshold: darker structure is the foreground being measured. Flipping the
// comparison would measure the complementary pattern, so the convention is
// part of the contract.
package binarize

import (
	"errors"
	"fmt"
	"math"

	"fracdim/pkg/field"
)

// ErrInvalidInput reports a field the binarizer cannot threshold: empty,
// smaller than 2x2, non-finite, or constant.
var ErrInvalidInput = errors.New("invalid input field")

// histBins is the number of histogram bins used for threshold selection.
const histBins = 256

// Result holds the outputs of one binarization: the smoothed field, the
// derived occupancy field (cells are exactly 0 or 1), and the threshold
// value that separated them.
type Result struct {
	Smoothed  *field.Field
	Binary    *field.Field
	Threshold float64
}

// Binarize smooths f with a Gaussian of standard deviation blurRadius and
// thresholds the result with Otsu's method. blurRadius of zero skips
// smoothing. The input field is never modified.
func Binarize(f *field.Field, blurRadius float64) (*Result, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	if blurRadius < 0 || math.IsNaN(blurRadius) {
		return nil, fmt.Errorf("%w: negative blur radius %v", ErrInvalidInput, blurRadius)
	}

	smoothed := Smooth(f, blurRadius)

	threshold, err := otsuThreshold(smoothed)
	if err != nil {
		return nil, err
	}

	binary := field.New(f.Rows(), f.Cols())
	for y := 0; y < f.Rows(); y++ {
		for x := 0; x < f.Cols(); x++ {
			if smoothed.At(y, x) < threshold {
				binary.Set(y, x, 1)
			}
		}
	}

	return &Result{
		Smoothed:  smoothed,
		Binary:    binary,
		Threshold: threshold,
	}, nil
}

func validate(f *field.Field) error {
	if f == nil || f.Rows() == 0 || f.Cols() == 0 {
		return fmt.Errorf("%w: empty field", ErrInvalidInput)
	}
	if f.Rows() < 2 || f.Cols() < 2 {
		return fmt.Errorf("%w: field is %dx%d, need at least 2x2", ErrInvalidInput, f.Rows(), f.Cols())
	}
	if !f.IsFinite() {
		return fmt.Errorf("%w: field contains non-finite values", ErrInvalidInput)
	}
	min, max := f.MinMax()
	if min == max {
		return fmt.Errorf("%w: constant field, threshold undefined", ErrInvalidInput)
	}
	return nil
}

// Smooth applies an isotropic Gaussian filter with standard deviation sigma
// and returns a new field of the same shape. The kernel is truncated at 4
// standard deviations and the field border is reflect-padded. sigma of zero
// returns a copy of the input.
func Smooth(f *field.Field, sigma float64) *field.Field {
	kernel := gaussianKernel(sigma)
	if len(kernel) == 1 {
		return f.Clone()
	}

	// Separable convolution: rows first, then columns.
	tmp := field.New(f.Rows(), f.Cols())
	convolveRows(f, tmp, kernel)
	out := field.New(f.Rows(), f.Cols())
	convolveCols(tmp, out, kernel)
	return out
}

// gaussianKernel builds a normalized 1-D Gaussian of standard deviation
// sigma, truncated at 4 sigma. Returns the identity kernel for sigma small
// enough that the truncated support is a single sample.
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	if sigma <= 0 || radius < 1 {
		return []float64{1}
	}

	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflect maps an out-of-range index into [0, n) by mirroring at the border
// with edge duplication: for n=4 the extension is ...dcba|abcd|dcba...
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

func convolveRows(src, dst *field.Field, kernel []float64) {
	radius := len(kernel) / 2
	cols := src.Cols()
	for y := 0; y < src.Rows(); y++ {
		for x := 0; x < cols; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * src.At(y, reflect(x+k, cols))
			}
			dst.Set(y, x, acc)
		}
	}
}

func convolveCols(src, dst *field.Field, kernel []float64) {
	radius := len(kernel) / 2
	rows := src.Rows()
	for y := 0; y < rows; y++ {
		for x := 0; x < src.Cols(); x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * src.At(reflect(y+k, rows), x)
			}
			dst.Set(y, x, acc)
		}
	}
}

// otsuThreshold selects the global threshold maximizing between-class
// variance over a 256-bin histogram of the field values. The returned
// threshold is the center of the selected bin mapped back to value space.
func otsuThreshold(f *field.Field) (float64, error) {
	min, max := f.MinMax()
	if min == max {
		return 0, fmt.Errorf("%w: constant field after smoothing, threshold undefined", ErrInvalidInput)
	}

	binWidth := (max - min) / float64(histBins)
	hist := make([]int, histBins)
	for _, v := range f.Data() {
		bin := int((v - min) / binWidth)
		if bin >= histBins {
			bin = histBins - 1
		}
		hist[bin]++
	}

	total := f.Rows() * f.Cols()
	sum := 0.0
	for i, count := range hist {
		sum += float64(i) * float64(count)
	}

	sumB := 0.0
	wB := 0
	maxVariance := 0.0
	bestBin := 0

	for t := 0; t < histBins; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(t) * float64(hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			bestBin = t
		}
	}

	return min + (float64(bestBin)+0.5)*binWidth, nil
}
