package boxcount

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Fit holds the parameters of the least-squares line
// logCount = Slope*logSize + Intercept, together with the 2x2 covariance of
// (Slope, Intercept): SlopeVar and InterceptVar on the diagonal, Cov off it.
type Fit struct {
	Slope        float64
	Intercept    float64
	SlopeVar     float64
	InterceptVar float64
	Cov          float64
}

// FitLogLog fits a straight line to the log-log samples by unweighted least
// squares and derives the parameter covariance from the residual variance.
// The closed-form linear fit is used rather than a general nonlinear
// optimizer: the model is linear in its parameters, so the two agree to fit
// tolerance and the closed form is numerically stabler.
//
// With only two samples the line is exact and the covariance is zero.
// Samples with no spread on the size axis are singular and rejected with
// ErrDegenerateData; non-finite fit parameters are rejected with
// ErrFitConvergence.
func FitLogLog(logSizes, logCounts []float64) (Fit, error) {
	n := len(logSizes)
	if n != len(logCounts) {
		return Fit{}, fmt.Errorf("%w: %d sizes vs %d counts", ErrDegenerateData, n, len(logCounts))
	}
	if n < 2 {
		return Fit{}, fmt.Errorf("%w: %d samples, need at least 2", ErrDegenerateData, n)
	}
	for i := 0; i < n; i++ {
		if !isFinite(logSizes[i]) || !isFinite(logCounts[i]) {
			return Fit{}, fmt.Errorf("%w: non-finite log-log sample at index %d", ErrDegenerateData, i)
		}
	}

	meanX := stat.Mean(logSizes, nil)
	sxx := 0.0
	for _, x := range logSizes {
		d := x - meanX
		sxx += d * d
	}
	if sxx == 0 {
		return Fit{}, fmt.Errorf("%w: all samples share one box size, fit is singular", ErrDegenerateData)
	}

	intercept, slope := stat.LinearRegression(logSizes, logCounts, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		return Fit{}, fmt.Errorf("%w: slope=%v intercept=%v", ErrFitConvergence, slope, intercept)
	}

	// Residual variance, s^2 = RSS/(n-2). Two samples determine the line
	// exactly, leaving no residual degrees of freedom.
	s2 := 0.0
	if n > 2 {
		rss := 0.0
		for i := 0; i < n; i++ {
			r := logCounts[i] - (slope*logSizes[i] + intercept)
			rss += r * r
		}
		s2 = rss / float64(n-2)
	}

	return Fit{
		Slope:        slope,
		Intercept:    intercept,
		SlopeVar:     s2 / sxx,
		InterceptVar: s2 * (1/float64(n) + meanX*meanX/sxx),
		Cov:          -s2 * meanX / sxx,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
