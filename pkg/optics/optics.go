// Package optics models the microscope's coherent transfer function. The
// contrast transfer function (CTF) multiplies the projected exit-plane
// signal elementwise in Fourier space: an astigmatic defocus phase term,
// a spherical-aberration term, an amplitude-contrast mix and a Gaussian
// B-factor envelope. An optional hard resolution cutoff zeroes every
// frequency beyond it.
package optics

import (
	"fmt"
	"math"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
)

// CTF holds the contrast-transfer-function parameters. All fields are
// continuous scalars in physically meaningful units.
type CTF struct {
	// DefocusU and DefocusV are the two principal defocus values in
	// angstroms (positive is underfocus).
	DefocusU, DefocusV float64

	// AstigmatismAngle is the azimuth of the DefocusU axis in degrees.
	AstigmatismAngle float64

	// Voltage is the accelerating voltage in kilovolts.
	Voltage float64

	// SphericalAberration is the Cs coefficient in millimeters.
	SphericalAberration float64

	// AmplitudeContrast is the amplitude-contrast ratio in [0, 1].
	AmplitudeContrast float64

	// BFactor is the Gaussian envelope decay in square angstroms; zero
	// disables the envelope.
	BFactor float64

	// PhaseShift is an additional constant phase in degrees, as produced
	// by a phase plate.
	PhaseShift float64
}

// Validate eagerly checks the stated parameter invariants.
func (c CTF) Validate() error {
	if c.Voltage <= 0 {
		return fmt.Errorf("voltage %g kV: %w", c.Voltage, models.ErrInvalidParameter)
	}
	if c.AmplitudeContrast < 0 || c.AmplitudeContrast > 1 {
		return fmt.Errorf("amplitude contrast %g outside [0, 1]: %w",
			c.AmplitudeContrast, models.ErrInvalidParameter)
	}
	if c.SphericalAberration < 0 {
		return fmt.Errorf("spherical aberration %g mm: %w",
			c.SphericalAberration, models.ErrInvalidParameter)
	}
	if c.BFactor < 0 {
		return fmt.Errorf("B factor %g: %w", c.BFactor, models.ErrInvalidParameter)
	}
	return nil
}

// Wavelength returns the relativistic electron wavelength in angstroms
// for the configured accelerating voltage.
func (c CTF) Wavelength() float64 {
	v := c.Voltage * 1e3
	return 12.2639 / math.Sqrt(v*(1+0.97845e-6*v))
}

// Eval computes the CTF value at spatial frequency (fx, fy) in cycles per
// angstrom:
//
//	chi(q) = pi lambda df(theta) |q|^2 - (pi/2) Cs lambda^3 |q|^4 + shift
//	ctf(q) = -[sqrt(1-a^2) sin chi + a cos chi] * exp(-B |q|^2 / 4)
//
// where df(theta) blends the two principal defocus values by the
// azimuthal angle of the frequency vector. Eval is well defined at the
// zero frequency (chi reduces to the phase shift); no epsilon guard is
// needed because the azimuth enters only through cos of a doubled angle,
// and atan2(0, 0) = 0 picks a consistent branch.
func (c CTF) Eval(fx, fy float64) float64 {
	q2 := fx*fx + fy*fy
	lambda := c.Wavelength()

	theta := math.Atan2(fy, fx)
	angle := c.AstigmatismAngle * math.Pi / 180
	defocus := 0.5 * (c.DefocusU + c.DefocusV +
		(c.DefocusU-c.DefocusV)*math.Cos(2*(theta-angle)))

	cs := c.SphericalAberration * 1e7 // mm to angstroms
	chi := math.Pi*lambda*defocus*q2 -
		0.5*math.Pi*cs*lambda*lambda*lambda*q2*q2 +
		c.PhaseShift*math.Pi/180

	a := c.AmplitudeContrast
	ctf := -(math.Sqrt(1-a*a)*math.Sin(chi) + a*math.Cos(chi))

	if c.BFactor > 0 {
		ctf *= math.Exp(-c.BFactor * q2 / 4)
	}
	return ctf
}

// Model transfers an exit-plane projection to the detector plane. Apply
// requires a Fourier-space image and returns a Fourier-space image.
type Model interface {
	Apply(im models.Image) (models.Image, error)
}

// Null is the absent-optics stage: it passes the signal through
// unchanged, so a pipeline without optics yields the raw projection.
type Null struct{}

// Apply returns the image unchanged.
func (Null) Apply(im models.Image) (models.Image, error) { return im, nil }

// Coherent multiplies the signal by the CTF, with an optional hard
// low-pass cutoff.
type Coherent struct {
	// CTF holds the transfer-function parameters.
	CTF CTF

	// CutoffResolution, when positive, zeroes all frequencies with
	// |q| > 1/CutoffResolution (resolution in angstroms). The boundary is
	// a hard step: a frequency exactly at the cutoff is kept. This is a
	// documented discontinuity; gradients with respect to parameters that
	// move signal across the boundary are discontinuous there.
	CutoffResolution float64
}

// NewCoherent validates the CTF parameters eagerly.
func NewCoherent(ctf CTF, cutoffResolution float64) (Coherent, error) {
	if err := ctf.Validate(); err != nil {
		return Coherent{}, fmt.Errorf("coherent optics: %w", err)
	}
	if cutoffResolution < 0 {
		return Coherent{}, fmt.Errorf("cutoff resolution %g: %w",
			cutoffResolution, models.ErrInvalidParameter)
	}
	return Coherent{CTF: ctf, CutoffResolution: cutoffResolution}, nil
}

// Apply multiplies the Fourier-space projection by the CTF elementwise.
func (o Coherent) Apply(im models.Image) (models.Image, error) {
	if im.Domain != models.FourierSpace {
		return models.Image{}, fmt.Errorf("optics needs a fourier-space image, got %v: %w",
			im.Domain, models.ErrDomainMismatch)
	}

	var cutoff2 float64
	if o.CutoffResolution > 0 {
		cutoff2 = 1 / (o.CutoffResolution * o.CutoffResolution)
	}

	out := make([]complex128, len(im.Fourier))
	for j := 0; j < im.Height; j++ {
		fy := fourier.Freq(j, im.Height) / im.PixelSize
		for i := 0; i < im.Width; i++ {
			fx := fourier.Freq(i, im.Width) / im.PixelSize
			idx := j*im.Width + i
			if cutoff2 > 0 && fx*fx+fy*fy > cutoff2 {
				continue
			}
			out[idx] = im.Fourier[idx] * complex(o.CTF.Eval(fx, fy), 0)
		}
	}
	return models.NewFourierImage(out, im.Width, im.Height, im.PixelSize)
}
