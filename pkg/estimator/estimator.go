// Package estimator wires the full fractal-dimension pipeline: binarize the
// input field, box-count the binary pattern, fit the log-log line, and
// bootstrap the dimension's uncertainty. The pipeline is a pure function of
// its input; it touches no display or filesystem state and reports failures
// as typed errors for the caller to present.
package estimator

import (
	"github.com/rs/zerolog"

	"fracdim/pkg/binarize"
	"fracdim/pkg/bootstrap"
	"fracdim/pkg/boxcount"
	"fracdim/pkg/field"
)

// Options configures one estimation run. Zero values select the defaults.
type Options struct {
	// BlurRadius is the Gaussian smoothing standard deviation applied
	// before thresholding. Zero disables smoothing; negative values are
	// rejected. Callers that want the conventional default should pass
	// DefaultBlurRadius.
	BlurRadius float64

	// Resamples is the number of bootstrap replicates. Default 1000.
	Resamples int

	// Seed seeds the bootstrap random source; zero draws a fresh seed.
	Seed uint64

	// Workers bounds bootstrap concurrency. Default runtime.NumCPU().
	Workers int

	// Logger receives progress events. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// DefaultBlurRadius is the smoothing radius used when the caller does not
// choose one.
const DefaultBlurRadius = 1.0

// Report is the full structured result of one estimation: the headline
// numbers, the derived Hurst-like exponent, and every intermediate the
// presentation layer needs for display and plotting.
type Report struct {
	// Dimension is the box-counting dimension estimate, -slope.
	Dimension float64

	// StdErr is the bootstrap standard error of the dimension.
	StdErr float64

	// CILow and CIHigh bound the bootstrap 95% confidence interval.
	CILow  float64
	CIHigh float64

	// Hurst is the derived exponent 2 + slope; HurstErr is its parametric
	// error, identical to the slope's standard error from the fit.
	Hurst    float64
	HurstErr float64

	// Threshold is the Otsu cut applied to the smoothed field.
	Threshold float64

	// Smoothed and Binary are the intermediate fields, kept for display.
	Smoothed *field.Field
	Binary   *field.Field

	// Sizes, Counts and their log-scale twins are the box-counting curve,
	// kept for plotting alongside the fit parameters.
	Sizes     []int
	Counts    []int
	LogSizes  []float64
	LogCounts []float64
	Fit       boxcount.Fit

	// Boot is the raw bootstrap summary.
	Boot bootstrap.Estimate
}

// Estimate runs the pipeline on one field. The input is never modified.
func Estimate(f *field.Field, opts Options) (*Report, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	bin, err := binarize.Binarize(f, opts.BlurRadius)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Float64("threshold", bin.Threshold).
		Float64("blur_radius", opts.BlurRadius).
		Msg("binarized field")

	counted, err := boxcount.Count(bin.Binary)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Ints("sizes", counted.Sizes).
		Ints("counts", counted.Counts).
		Float64("slope", counted.Fit.Slope).
		Msg("box counting complete")

	boot, err := bootstrap.Run(counted.LogSizes, counted.LogCounts, bootstrap.Options{
		Resamples: opts.Resamples,
		Seed:      opts.Seed,
		Workers:   opts.Workers,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("replicates", boot.Replicates).
		Float64("mean", boot.Mean).
		Float64("stderr", boot.StdErr).
		Msg("bootstrap complete")

	return &Report{
		Dimension: counted.Dimension(),
		StdErr:    boot.StdErr,
		CILow:     boot.CILow,
		CIHigh:    boot.CIHigh,
		Hurst:     counted.Hurst(),
		HurstErr:  counted.SlopeErr(),
		Threshold: bin.Threshold,
		Smoothed:  bin.Smoothed,
		Binary:    bin.Binary,
		Sizes:     counted.Sizes,
		Counts:    counted.Counts,
		LogSizes:  counted.LogSizes,
		LogCounts: counted.LogCounts,
		Fit:       counted.Fit,
		Boot:      boot,
	}, nil
}
