package boxcount

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"fracdim/pkg/field"
)

// TestSizes verifies the derivation of the box size sequence
func TestSizes(t *testing.T) {
	cases := []struct {
		rows, cols int
		want       []int
	}{
		{256, 256, []int{256, 128, 64, 32, 16, 8, 4}},
		{243, 243, []int{128, 64, 32, 16, 8, 4}},
		{8, 8, []int{8, 4}},
		{10, 300, []int{8, 4}}, // min dimension governs
	}

	for _, tc := range cases {
		sizes, err := Sizes(tc.rows, tc.cols)
		if err != nil {
			t.Errorf("Sizes(%d,%d) failed: %v", tc.rows, tc.cols, err)
			continue
		}
		if len(sizes) != len(tc.want) {
			t.Errorf("Sizes(%d,%d): expected %v, got %v", tc.rows, tc.cols, tc.want, sizes)
			continue
		}
		for i := range sizes {
			if sizes[i] != tc.want[i] {
				t.Errorf("Sizes(%d,%d): expected %v, got %v", tc.rows, tc.cols, tc.want, sizes)
				break
			}
		}
	}
}

// TestSizesDegenerate verifies that fields too small for at least two box
// sizes are rejected rather than silently producing an ill-posed fit
func TestSizesDegenerate(t *testing.T) {
	for _, dim := range []int{0, 1, 2, 3, 4, 7} {
		if _, err := Sizes(dim, dim); !errors.Is(err, ErrDegenerateData) {
			t.Errorf("Sizes(%d,%d): expected ErrDegenerateData, got %v", dim, dim, err)
		}
	}
}

// TestCountFullField verifies exact tile counts and a dimension of 2 for a
// fully occupied field whose dimensions are powers of two
func TestCountFullField(t *testing.T) {
	size := 64
	f := field.New(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			f.Set(y, x, 1)
		}
	}

	res, err := Count(f)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	for i, s := range res.Sizes {
		want := (size / s) * (size / s)
		if res.Counts[i] != want {
			t.Errorf("size %d: expected count %d, got %d", s, want, res.Counts[i])
		}
	}

	// Counts follow an exact power law, so the fit is exact.
	if math.Abs(res.Dimension()-2.0) > 1e-9 {
		t.Errorf("Expected dimension 2.0 for full field, got %f", res.Dimension())
	}
	if res.SlopeErr() > 1e-9 {
		t.Errorf("Expected near-zero parametric error for exact power law, got %g", res.SlopeErr())
	}
}

// TestCountTruncatedTiles verifies that partial tiles at the far edges are
// counted like full ones
func TestCountTruncatedTiles(t *testing.T) {
	f := field.New(10, 12)
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			f.Set(y, x, 1)
		}
	}

	res, err := Count(f)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	// min dimension 10 gives sizes [8, 4]; tiles are counted from the
	// origin with truncated remainders.
	wantSizes := []int{8, 4}
	wantCounts := []int{2 * 2, 3 * 3}
	for i := range wantSizes {
		if res.Sizes[i] != wantSizes[i] {
			t.Fatalf("Expected sizes %v, got %v", wantSizes, res.Sizes)
		}
		if res.Counts[i] != wantCounts[i] {
			t.Errorf("size %d: expected count %d, got %d", res.Sizes[i], wantCounts[i], res.Counts[i])
		}
	}
}

// TestCountSingleCell verifies the boundary case of one occupied cell: every
// box size yields a count of one and the dimension degenerates to zero
func TestCountSingleCell(t *testing.T) {
	f := field.New(64, 64)
	f.Set(10, 13, 1)

	res, err := Count(f)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	for i, c := range res.Counts {
		if c != 1 {
			t.Errorf("size %d: expected count 1, got %d", res.Sizes[i], c)
		}
	}
	if math.Abs(res.Dimension()) > 1e-12 {
		t.Errorf("Expected dimension 0 for single cell, got %g", res.Dimension())
	}
}

// TestCountMonotonic verifies the monotonicity law: occupied-box counts never
// decrease as the box size shrinks, for any binary field
func TestCountMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 17))

	for trial := 0; trial < 5; trial++ {
		f := field.New(50+trial*13, 60+trial*7)
		for y := 0; y < f.Rows(); y++ {
			for x := 0; x < f.Cols(); x++ {
				if rng.Float64() < 0.02 {
					f.Set(y, x, 1)
				}
			}
		}

		res, err := Count(f)
		if err != nil {
			t.Fatalf("trial %d: Count failed: %v", trial, err)
		}

		// Sizes are strictly decreasing, so counts must be non-decreasing
		// along the sequence.
		for i := 1; i < len(res.Counts); i++ {
			if res.Counts[i] < res.Counts[i-1] {
				t.Errorf("trial %d: count %d at size %d exceeds count %d at size %d",
					trial, res.Counts[i-1], res.Sizes[i-1], res.Counts[i], res.Sizes[i])
			}
		}
	}
}

// TestCountEmptyPattern verifies that an all-empty binary field is rejected:
// a zero count would put -Inf into the log-log fit
func TestCountEmptyPattern(t *testing.T) {
	f := field.New(32, 32)
	if _, err := Count(f); !errors.Is(err, ErrDegenerateData) {
		t.Errorf("Expected ErrDegenerateData for empty pattern, got %v", err)
	}
}

// TestCountTooSmall verifies that fields below the minimum size surface an
// error instead of a degraded fit
func TestCountTooSmall(t *testing.T) {
	f := field.New(3, 3)
	f.Set(0, 0, 1)
	if _, err := Count(f); !errors.Is(err, ErrDegenerateData) {
		t.Errorf("Expected ErrDegenerateData for 3x3 field, got %v", err)
	}
}

// TestHurstRelation verifies the derived exponent satisfies H = 2 - D
func TestHurstRelation(t *testing.T) {
	f := sierpinskiField(t)
	res, err := Count(f)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	if math.Abs(res.Hurst()-(2-res.Dimension())) > 1e-12 {
		t.Errorf("Expected Hurst = 2 - dimension, got H=%f D=%f", res.Hurst(), res.Dimension())
	}
}

// TestSierpinskiCarpetDimension verifies the estimator against a pattern
// with a known theoretical dimension of log(8)/log(3) = 1.8928
func TestSierpinskiCarpetDimension(t *testing.T) {
	f := sierpinskiField(t)

	res, err := Count(f)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	const want = 1.8928
	if math.Abs(res.Dimension()-want) > 0.05 {
		t.Errorf("Expected dimension within 0.05 of %f, got %f", want, res.Dimension())
	}
}

// sierpinskiField builds a 256x256 binary field containing an exact
// 243x243 (3^5) Sierpinski carpet at the origin. A cell belongs to the
// carpet when no base-3 digit position of its coordinates is (1,1).
func sierpinskiField(t *testing.T) *field.Field {
	t.Helper()
	f := field.New(256, 256)
	for y := 0; y < 243; y++ {
		for x := 0; x < 243; x++ {
			if inCarpet(x, y) {
				f.Set(y, x, 1)
			}
		}
	}
	return f
}

func inCarpet(x, y int) bool {
	for x > 0 || y > 0 {
		if x%3 == 1 && y%3 == 1 {
			return false
		}
		x /= 3
		y /= 3
	}
	return true
}
