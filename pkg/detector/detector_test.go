package detector

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryosim/internal/models"
	"cryosim/pkg/rng"
)

func flatImage(t *testing.T, n int, value float64) models.Image {
	t.Helper()
	data := make([]float64, n*n)
	for i := range data {
		data[i] = value
	}
	im, err := models.NewRealImage(data, n, n, 1.0)
	require.NoError(t, err)
	return im
}

// TestRenderIdealDQE verifies a unit constant DQE leaves the expectation
// numerically unchanged.
func TestRenderIdealDQE(t *testing.T) {
	d, err := NewCounting(ConstantDQE(1))
	require.NoError(t, err)

	im := flatImage(t, 8, 40)
	out, err := d.Render(im)
	require.NoError(t, err)
	for i := range out.Real {
		assert.InDelta(t, im.Real[i], out.Real[i], 1e-10)
	}
}

// TestRenderConstantDQEScales verifies a fractional constant DQE scales
// the expectation linearly.
func TestRenderConstantDQEScales(t *testing.T) {
	d, err := NewCounting(ConstantDQE(0.5))
	require.NoError(t, err)

	im := flatImage(t, 8, 40)
	out, err := d.Render(im)
	require.NoError(t, err)
	for i := range out.Real {
		assert.InDelta(t, 20, out.Real[i], 1e-10)
	}
}

// TestSampleDeterministic verifies the purity contract: two calls with
// the same key and input are bit-identical, a different key differs.
func TestSampleDeterministic(t *testing.T) {
	d, err := NewCounting(ConstantDQE(1))
	require.NoError(t, err)

	im := flatImage(t, 16, 25)
	key := rng.NewKey(1234)

	a, err := d.Sample(key, im)
	require.NoError(t, err)
	b, err := d.Sample(key, im)
	require.NoError(t, err)
	assert.Equal(t, a.Real, b.Real, "same key must be bit-identical")

	c, err := d.Sample(rng.NewKey(5678), im)
	require.NoError(t, err)
	assert.NotEqual(t, a.Real, c.Real, "different keys should differ")
}

// TestPoissonNoiseFreeLimit verifies the shot-noise scaling: as the
// expected count grows, the sampled variance over mean converges to 1,
// the Poisson law's theoretical ratio.
func TestPoissonNoiseFreeLimit(t *testing.T) {
	d, err := NewCounting(ConstantDQE(1))
	require.NoError(t, err)

	key := rng.NewKey(99)
	for _, lambda := range []float64{10, 100, 1000} {
		im := flatImage(t, 64, lambda)
		sampled, err := d.Sample(key, im)
		require.NoError(t, err)

		n := float64(len(sampled.Real))
		mean := 0.0
		for _, v := range sampled.Real {
			mean += v
		}
		mean /= n
		variance := 0.0
		for _, v := range sampled.Real {
			variance += (v - mean) * (v - mean)
		}
		variance /= n - 1

		// Relative error of the variance/mean ratio shrinks as
		// 1/sqrt(pixels); 64x64 gives plenty of headroom for 10%.
		assert.InDelta(t, 1.0, variance/mean, 0.1, "lambda %v", lambda)

		// The standard error of the mean is sqrt(lambda/n); allow 4 sigma.
		assert.InDelta(t, lambda, mean, 4*math.Sqrt(lambda/n)+0.5)
	}
}

// TestCurveDQE verifies interpolation and clamping of a measured curve.
func TestCurveDQE(t *testing.T) {
	curve, err := NewCurveDQE(
		[]float64{0, 0.25, 0.5},
		[]float64{0.9, 0.5, 0.1},
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, curve.At(0), 1e-12)
	assert.InDelta(t, 0.7, curve.At(0.125), 1e-12) // midpoint of first segment
	assert.InDelta(t, 0.1, curve.At(0.5), 1e-12)
	assert.InDelta(t, 0.1, curve.At(2.0), 1e-12, "clamps beyond measured range")
	assert.InDelta(t, 0.9, curve.At(-1), 1e-12, "clamps below measured range")
}

// TestCurveDQEValidation verifies construction checks.
func TestCurveDQEValidation(t *testing.T) {
	_, err := NewCurveDQE([]float64{0}, []float64{1})
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = NewCurveDQE([]float64{0, 1}, []float64{0.5, 1.5})
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

// TestDetectorDomainCheck verifies a Fourier image is rejected.
func TestDetectorDomainCheck(t *testing.T) {
	d, err := NewCounting(ConstantDQE(1))
	require.NoError(t, err)

	im, err := models.NewFourierImage(make([]complex128, 16), 4, 4, 1.0)
	require.NoError(t, err)
	_, err = d.Render(im)
	assert.True(t, errors.Is(err, models.ErrDomainMismatch))
}

// TestGaussianDetector verifies readout noise statistics and determinism.
func TestGaussianDetector(t *testing.T) {
	g, err := NewGaussian(ConstantDQE(1), 2.0)
	require.NoError(t, err)

	im := flatImage(t, 64, 100)
	key := rng.NewKey(7)

	a, err := g.Sample(key, im)
	require.NoError(t, err)
	b, err := g.Sample(key, im)
	require.NoError(t, err)
	assert.Equal(t, a.Real, b.Real)

	// Sample standard deviation should approach sigma.
	n := float64(len(a.Real))
	mean := 0.0
	for _, v := range a.Real {
		mean += v
	}
	mean /= n
	variance := 0.0
	for _, v := range a.Real {
		variance += (v - mean) * (v - mean)
	}
	variance /= n - 1
	assert.InDelta(t, 2.0, math.Sqrt(variance), 0.15)
	assert.InDelta(t, 100, mean, 0.5)
}

// TestNullDetector verifies render and sample pass the image through.
func TestNullDetector(t *testing.T) {
	im := flatImage(t, 4, 3)
	out, err := Null{}.Render(im)
	require.NoError(t, err)
	assert.Equal(t, im.Real, out.Real)

	sampled, err := Null{}.Sample(rng.NewKey(1), im)
	require.NoError(t, err)
	assert.Equal(t, im.Real, sampled.Real)
}
