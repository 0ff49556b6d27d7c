// Package exposure scales the modulated wave by the integrated electron
// dose. The plain model is linear in dose; an optional radiation-damage
// model adds a per-frequency exponential decay following the
// critical-exposure parameterization, since high frequencies fade first
// under accumulated dose.
package exposure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
)

// Model rescales a pipeline image by dose. Implementations accept images
// in either domain unless documented otherwise.
type Model interface {
	Scale(im models.Image) (models.Image, error)
}

// Null is the absent-exposure stage: the image passes unchanged.
type Null struct{}

// Scale returns the image unchanged.
func (Null) Scale(im models.Image) (models.Image, error) { return im, nil }

// Uniform scales the signal linearly by Dose and adds a constant Offset.
// In Fourier space the offset enters only the zero-frequency coefficient,
// scaled by the pixel count, which is the transform of a constant field.
type Uniform struct {
	// Dose is the linear intensity scale (electrons per square angstrom
	// folded with detector gain).
	Dose float64

	// Offset is a constant intensity offset.
	Offset float64
}

// NewUniform validates the dose eagerly.
func NewUniform(dose, offset float64) (Uniform, error) {
	if dose < 0 || math.IsNaN(dose) {
		return Uniform{}, fmt.Errorf("dose %g: %w", dose, models.ErrInvalidParameter)
	}
	return Uniform{Dose: dose, Offset: offset}, nil
}

// Scale applies the dose scaling in the image's own domain.
func (u Uniform) Scale(im models.Image) (models.Image, error) {
	switch im.Domain {
	case models.RealSpace:
		out := make([]float64, len(im.Real))
		copy(out, im.Real)
		floats.Scale(u.Dose, out)
		floats.AddConst(u.Offset, out)
		return models.NewRealImage(out, im.Width, im.Height, im.PixelSize)
	case models.FourierSpace:
		out := make([]complex128, len(im.Fourier))
		for i, v := range im.Fourier {
			out[i] = v * complex(u.Dose, 0)
		}
		out[0] += complex(u.Offset*float64(im.Pixels()), 0)
		return models.NewFourierImage(out, im.Width, im.Height, im.PixelSize)
	default:
		return models.Image{}, fmt.Errorf("exposure: unknown domain %v: %w",
			im.Domain, models.ErrDomainMismatch)
	}
}

// Damaged scales linearly by Dose and applies a frequency-dependent
// radiation-damage envelope exp(-dose / (2 Ne(q))) with critical exposure
// Ne(q) = A q^-B + C. It requires a Fourier-space image, since the
// envelope is diagonal only there.
type Damaged struct {
	// Dose is the accumulated exposure in electrons per square angstrom.
	Dose float64

	// A, B, C parameterize the critical exposure curve Ne(q) = A q^-B + C,
	// with q in cycles per angstrom.
	A, B, C float64
}

// NewDamaged validates the damage-curve parameters eagerly. C must be
// positive: it bounds Ne away from zero at high frequency, which is the
// epsilon guard for the q -> infinity limit.
func NewDamaged(dose, a, b, c float64) (Damaged, error) {
	if dose < 0 {
		return Damaged{}, fmt.Errorf("dose %g: %w", dose, models.ErrInvalidParameter)
	}
	if a < 0 || b < 0 || c <= 0 {
		return Damaged{}, fmt.Errorf("damage curve (%g, %g, %g): %w",
			a, b, c, models.ErrInvalidParameter)
	}
	return Damaged{Dose: dose, A: a, B: b, C: c}, nil
}

// Scale applies dose scaling and the damage envelope per frequency. The
// zero frequency has infinite critical exposure under the power law; its
// envelope is taken as 1 (no damage to the mean), the documented boundary
// behavior.
func (d Damaged) Scale(im models.Image) (models.Image, error) {
	if im.Domain != models.FourierSpace {
		return models.Image{}, fmt.Errorf("damage envelope needs a fourier-space image, got %v: %w",
			im.Domain, models.ErrDomainMismatch)
	}
	out := make([]complex128, len(im.Fourier))
	for j := 0; j < im.Height; j++ {
		fy := fourier.Freq(j, im.Height) / im.PixelSize
		for i := 0; i < im.Width; i++ {
			fx := fourier.Freq(i, im.Width) / im.PixelSize
			q := math.Sqrt(fx*fx + fy*fy)
			envelope := 1.0
			if q > 0 {
				ne := d.A*math.Pow(q, -d.B) + d.C
				envelope = math.Exp(-d.Dose / (2 * ne))
			}
			idx := j*im.Width + i
			out[idx] = im.Fourier[idx] * complex(d.Dose*envelope, 0)
		}
	}
	return models.NewFourierImage(out, im.Width, im.Height, im.PixelSize)
}
