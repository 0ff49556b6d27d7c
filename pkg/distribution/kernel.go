package distribution

import (
	"fmt"
	"math"

	"cryosim/internal/models"
)

// VarianceKernel specifies a noise covariance diagonal as a function of
// spatial frequency magnitude, in cycles per angstrom. A constant kernel
// is white noise; frequency-dependent kernels model colored spectra such
// as structured ice background.
type VarianceKernel interface {
	// At returns the variance at frequency magnitude q. Must be strictly
	// positive for all q >= 0.
	At(q float64) float64

	// Validate eagerly checks the kernel's parameter invariants.
	Validate() error
}

// Constant is a white-noise kernel with a single variance value.
type Constant struct {
	// Value is the variance, strictly positive.
	Value float64
}

// At returns the constant variance.
func (c Constant) At(q float64) float64 { return c.Value }

// Validate rejects non-positive variance.
func (c Constant) Validate() error {
	if c.Value <= 0 || math.IsNaN(c.Value) {
		return fmt.Errorf("constant variance %g: %w", c.Value, models.ErrInvalidParameter)
	}
	return nil
}

// Exponential is a colored kernel with variance decaying exponentially in
// frequency over a correlation scale, plus a white floor:
//
//	v(q) = Amplitude * exp(-q / Scale) + Floor
//
// The floor keeps the variance bounded away from zero at high frequency,
// which guards the division in the Gaussian log-density.
type Exponential struct {
	// Amplitude is the low-frequency excess variance.
	Amplitude float64

	// Scale is the decay constant in cycles per angstrom.
	Scale float64

	// Floor is the white-noise variance floor, strictly positive.
	Floor float64
}

// At returns the colored variance at frequency magnitude q.
func (e Exponential) At(q float64) float64 {
	return e.Amplitude*math.Exp(-q/e.Scale) + e.Floor
}

// Validate rejects parameter combinations that could give a non-positive
// variance.
func (e Exponential) Validate() error {
	if e.Amplitude < 0 || e.Scale <= 0 || e.Floor <= 0 {
		return fmt.Errorf("exponential kernel (%g, %g, %g): %w",
			e.Amplitude, e.Scale, e.Floor, models.ErrInvalidParameter)
	}
	return nil
}
