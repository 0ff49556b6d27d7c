// Package detector converts the expected signal at the detector plane
// into observed counts. Rendering is deterministic: the expected signal
// is attenuated by a detective-quantum-efficiency (DQE) transfer curve.
// Sampling draws per-pixel counts from a counting distribution seeded by
// an explicit randomness key, so identical (key, input) pairs produce
// bit-identical images.
package detector

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
	"cryosim/pkg/rng"
)

// DQE is a detective-quantum-efficiency transfer curve over spatial
// frequency, in cycles per angstrom. Values are fractions in [0, 1].
type DQE interface {
	At(q float64) float64
}

// ConstantDQE is a frequency-independent efficiency.
type ConstantDQE float64

// At returns the constant efficiency.
func (c ConstantDQE) At(q float64) float64 { return float64(c) }

// CurveDQE interpolates a measured DQE curve piecewise-linearly between
// control points. Frequencies outside the measured range clamp to the
// nearest endpoint.
type CurveDQE struct {
	pl       interp.PiecewiseLinear
	min, max float64
}

// NewCurveDQE fits a piecewise-linear curve through (frequency,
// efficiency) control points. Frequencies must be strictly increasing and
// efficiencies must lie in [0, 1].
func NewCurveDQE(freqs, values []float64) (CurveDQE, error) {
	if len(freqs) != len(values) || len(freqs) < 2 {
		return CurveDQE{}, fmt.Errorf("dqe curve needs matching lists of at least 2 points: %w",
			models.ErrInvalidParameter)
	}
	for i, v := range values {
		if v < 0 || v > 1 {
			return CurveDQE{}, fmt.Errorf("dqe value %g at point %d outside [0, 1]: %w",
				v, i, models.ErrInvalidParameter)
		}
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(freqs, values); err != nil {
		return CurveDQE{}, fmt.Errorf("fitting dqe curve: %w", err)
	}
	return CurveDQE{pl: pl, min: freqs[0], max: freqs[len(freqs)-1]}, nil
}

// At returns the interpolated efficiency, clamped to the measured range.
func (c CurveDQE) At(q float64) float64 {
	if q < c.min {
		q = c.min
	}
	if q > c.max {
		q = c.max
	}
	return c.pl.Predict(q)
}

// Model is an electron detector. Render is the deterministic expectation;
// Sample draws one noisy readout.
type Model interface {
	// Render returns the expected counts for the given expected signal.
	Render(expected models.Image) (models.Image, error)

	// Sample draws a noisy count image. It is a pure function of the key
	// and the input.
	Sample(key rng.Key, expected models.Image) (models.Image, error)
}

// Null is the absent-detector stage: Render and Sample both return the
// signal unchanged, so sampling a detector-free pipeline degenerates to
// rendering.
type Null struct{}

// Render returns the image unchanged.
func (Null) Render(expected models.Image) (models.Image, error) { return expected, nil }

// Sample returns the image unchanged.
func (Null) Sample(key rng.Key, expected models.Image) (models.Image, error) {
	return expected, nil
}

// Counting is a shot-noise detector: expected counts pass through the DQE
// transfer curve, and sampling draws an independent Poisson count per
// pixel.
type Counting struct {
	// DQE is the transfer curve applied to the expected signal in
	// Fourier space. ConstantDQE(1) is an ideal detector.
	DQE DQE
}

// NewCounting validates the DQE eagerly.
func NewCounting(dqe DQE) (Counting, error) {
	if dqe == nil {
		return Counting{}, fmt.Errorf("counting detector needs a DQE: %w",
			models.ErrInvalidParameter)
	}
	return Counting{DQE: dqe}, nil
}

// Render attenuates the expected signal by the DQE curve. The input must
// be a real-space expected-signal image; the DQE is diagonal in Fourier
// space, so the image is transformed, attenuated and transformed back.
// Negative expected counts produced by ringing are clamped to zero, a
// documented boundary behavior required by the counting law.
func (d Counting) Render(expected models.Image) (models.Image, error) {
	if expected.Domain != models.RealSpace {
		return models.Image{}, fmt.Errorf("detector needs a real-space expected image, got %v: %w",
			expected.Domain, models.ErrDomainMismatch)
	}

	spectrum := fourier.FFT2D(expected.Real, expected.Width, expected.Height)
	for j := 0; j < expected.Height; j++ {
		fy := fourier.Freq(j, expected.Height) / expected.PixelSize
		for i := 0; i < expected.Width; i++ {
			fx := fourier.Freq(i, expected.Width) / expected.PixelSize
			q := math.Sqrt(fx*fx + fy*fy)
			spectrum[j*expected.Width+i] *= complex(d.DQE.At(q), 0)
		}
	}
	counts := fourier.Real(fourier.IFFT2D(spectrum, expected.Width, expected.Height))
	for i, v := range counts {
		if v < 0 {
			counts[i] = 0
		}
	}
	return models.NewRealImage(counts, expected.Width, expected.Height, expected.PixelSize)
}

// Sample draws per-pixel Poisson counts around the rendered expectation.
// Pixels with zero expectation read zero counts.
func (d Counting) Sample(key rng.Key, expected models.Image) (models.Image, error) {
	rendered, err := d.Render(expected)
	if err != nil {
		return models.Image{}, err
	}

	src := key.Source()
	out := make([]float64, len(rendered.Real))
	for i, lambda := range rendered.Real {
		if lambda <= 0 {
			continue
		}
		out[i] = distuv.Poisson{Lambda: lambda, Src: src}.Rand()
	}
	return models.NewRealImage(out, rendered.Width, rendered.Height, rendered.PixelSize)
}

// Gaussian is a detector with additive white Gaussian readout noise of
// fixed per-pixel standard deviation, applied after the DQE transfer.
type Gaussian struct {
	// DQE is the transfer curve applied to the expected signal.
	DQE DQE

	// Sigma is the per-pixel readout standard deviation in counts.
	Sigma float64
}

// NewGaussian validates parameters eagerly.
func NewGaussian(dqe DQE, sigma float64) (Gaussian, error) {
	if dqe == nil {
		return Gaussian{}, fmt.Errorf("gaussian detector needs a DQE: %w",
			models.ErrInvalidParameter)
	}
	if sigma < 0 {
		return Gaussian{}, fmt.Errorf("readout sigma %g: %w", sigma, models.ErrInvalidParameter)
	}
	return Gaussian{DQE: dqe, Sigma: sigma}, nil
}

// Render attenuates the expected signal by the DQE curve.
func (g Gaussian) Render(expected models.Image) (models.Image, error) {
	return Counting{DQE: g.DQE}.Render(expected)
}

// Sample adds white Gaussian readout noise to the rendered expectation.
func (g Gaussian) Sample(key rng.Key, expected models.Image) (models.Image, error) {
	rendered, err := g.Render(expected)
	if err != nil {
		return models.Image{}, err
	}

	normal := distuv.Normal{Mu: 0, Sigma: g.Sigma, Src: key.Source()}
	out := make([]float64, len(rendered.Real))
	for i, v := range rendered.Real {
		out[i] = v + normal.Rand()
	}
	return models.NewRealImage(out, rendered.Width, rendered.Height, rendered.PixelSize)
}
