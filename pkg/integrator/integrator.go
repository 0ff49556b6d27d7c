// Package integrator computes 2D projections of posed 3D scattering
// potentials. Two strategies are provided: Fourier-slice extraction,
// which resamples a central slice of a precomputed 3D Fourier grid, and
// nonuniform-DFT projection, which evaluates slice frequencies directly
// from atomic coordinates or real-space voxels without a uniform-grid
// interpolation error term.
//
// Both strategies return a Fourier-space image shaped by the image
// configuration, normalized so that the inverse 2D FFT of the result is
// the projected line integral of the potential in angstrom units.
package integrator

import (
	"cryosim/internal/models"
	"cryosim/pkg/potential"
)

// Integrator projects a posed potential onto an image-plane grid. An
// integrator accepts only the potential representations it declares via
// Accepts; anything else fails with ErrIncompatibleRepresentation.
type Integrator interface {
	// Project returns the 2D projection in Fourier space.
	Project(posed potential.Posed, cfg models.ImageConfig) (models.Image, error)

	// Accepts reports whether the integrator can process the given
	// potential representation.
	Accepts(r potential.Representation) bool
}
