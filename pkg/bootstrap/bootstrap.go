// Package bootstrap estimates the sampling distribution of the box-counting
// dimension by resampling the (log-size, log-count) pairs with replacement
// and refitting the log-log line for each resample. The spread of the
// replicate dimensions gives a standard error and percentile confidence
// interval that are more robust than the single parametric fit error.
package bootstrap

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/stat"

	"fracdim/pkg/boxcount"
)

// Sampler draws a resample of m indices in [0, n). The default sampler draws
// uniformly with replacement; tests may inject a deterministic one.
type Sampler func(rng *rand.Rand, n int) []int

// Options configures a bootstrap run. Zero values select the defaults.
type Options struct {
	// Resamples is the number of bootstrap replicates. Default 1000.
	Resamples int

	// Seed seeds the random source. Zero draws a fresh seed, so production
	// runs differ while tests stay reproducible by fixing it.
	Seed uint64

	// Workers bounds the number of replicates computed concurrently.
	// Default runtime.NumCPU().
	Workers int

	// MaxRetries bounds how often a single replicate is redrawn when its
	// resample has fewer than two distinct box sizes and the fit would be
	// singular. Exhausting the bound fails the run. Default 10.
	MaxRetries int

	// Sampler overrides the index draw. Default: uniform with replacement.
	Sampler Sampler
}

// Estimate summarizes the bootstrap replicates of the dimension.
type Estimate struct {
	// Mean is the arithmetic mean of the replicate dimensions.
	Mean float64

	// StdErr is the population standard deviation of the replicates.
	StdErr float64

	// CILow and CIHigh are the 2.5th and 97.5th linear-interpolated
	// percentiles of the replicates.
	CILow  float64
	CIHigh float64

	// Replicates is the number of replicates the estimate is based on.
	Replicates int
}

const (
	defaultResamples  = 1000
	defaultMaxRetries = 10
)

// uniformSampler draws n indices in [0, n) uniformly with replacement.
func uniformSampler(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// Run performs the bootstrap over the log-log samples. Replicates are
// independent, so they run on a bounded worker pool; each replicate owns a
// PCG stream derived deterministically from the master seed, which makes the
// result identical for a fixed seed regardless of worker count.
//
// Resamples with fewer than two distinct size values are redrawn up to
// Options.MaxRetries times; if a replicate exhausts its retries the whole
// run fails with boxcount.ErrDegenerateData rather than report a biased
// estimate.
func Run(logSizes, logCounts []float64, opts Options) (Estimate, error) {
	n := len(logSizes)
	if n != len(logCounts) {
		return Estimate{}, fmt.Errorf("%w: %d sizes vs %d counts",
			boxcount.ErrDegenerateData, n, len(logCounts))
	}
	if n < 2 {
		return Estimate{}, fmt.Errorf("%w: %d samples, need at least 2",
			boxcount.ErrDegenerateData, n)
	}

	resamples := opts.Resamples
	if resamples <= 0 {
		resamples = defaultResamples
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > resamples {
		workers = resamples
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = uniformSampler
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	// One sub-seed per replicate, drawn sequentially from the master
	// stream. Replicate r always sees the same stream no matter which
	// worker runs it.
	master := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	seeds := make([]uint64, resamples)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	dims := make([]float64, resamples)
	type replicateResult struct {
		idx int
		dim float64
		err error
	}
	jobs := make(chan int)
	results := make(chan replicateResult)

	for w := 0; w < workers; w++ {
		go func() {
			for r := range jobs {
				dim, err := replicate(logSizes, logCounts, seeds[r], sampler, maxRetries)
				results <- replicateResult{idx: r, dim: dim, err: err}
			}
		}()
	}
	go func() {
		for r := 0; r < resamples; r++ {
			jobs <- r
		}
		close(jobs)
	}()

	var firstErr error
	for i := 0; i < resamples; i++ {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		dims[res.idx] = res.dim
	}
	if firstErr != nil {
		return Estimate{}, firstErr
	}

	mean := stat.Mean(dims, nil)
	se := stat.PopStdDev(dims, nil)

	sorted := make([]float64, len(dims))
	copy(sorted, dims)
	sort.Float64s(sorted)

	return Estimate{
		Mean:       mean,
		StdErr:     se,
		CILow:      stat.Quantile(0.025, stat.LinInterp, sorted, nil),
		CIHigh:     stat.Quantile(0.975, stat.LinInterp, sorted, nil),
		Replicates: resamples,
	}, nil
}

// replicate draws one resample, refits the log-log line, and returns the
// negated slope. Singular draws are retried on the same stream.
func replicate(logSizes, logCounts []float64, seed uint64, sampler Sampler, maxRetries int) (float64, error) {
	rng := rand.New(rand.NewPCG(seed, 0x6a09e667f3bcc909))
	n := len(logSizes)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		idx := sampler(rng, n)
		xs := make([]float64, len(idx))
		ys := make([]float64, len(idx))
		for i, j := range idx {
			xs[i] = logSizes[j]
			ys[i] = logCounts[j]
		}
		if len(xs) < 2 || !hasSpread(xs) {
			continue
		}

		fit, err := boxcount.FitLogLog(xs, ys)
		if err != nil {
			return 0, err
		}
		return -fit.Slope, nil
	}

	return 0, fmt.Errorf("%w: resample singular after %d retries",
		boxcount.ErrDegenerateData, maxRetries)
}

// hasSpread reports whether the values contain at least two distinct entries.
func hasSpread(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}
