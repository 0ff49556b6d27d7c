package models

import (
	"errors"
	"fmt"
)

// Domain identifies the space an image or grid lives in. The simulation
// pipeline moves data between real space and Fourier space; tagging every
// array with its domain catches mismatches before any numeric work happens.
type Domain int

const (
	// RealSpace marks data sampled on a real-space grid.
	RealSpace Domain = iota

	// FourierSpace marks data sampled on an unshifted DFT frequency grid
	// (zero frequency at index 0).
	FourierSpace
)

// String returns a human-readable name for the domain.
func (d Domain) String() string {
	switch d {
	case RealSpace:
		return "real"
	case FourierSpace:
		return "fourier"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// Sentinel errors shared by every package in the simulator. All of them are
// detected eagerly, at construction or first use, and wrapped with context
// using fmt.Errorf("...: %w", err).
var (
	// ErrIncompatibleRepresentation indicates a projection integrator was
	// given a potential variant or domain it cannot process.
	ErrIncompatibleRepresentation = errors.New("cryosim: incompatible potential representation")

	// ErrShapeMismatch indicates array shapes between a potential grid, an
	// image configuration and an observed image disagree.
	ErrShapeMismatch = errors.New("cryosim: shape mismatch")

	// ErrDomainMismatch indicates an image's declared domain (real/Fourier)
	// disagrees with what the receiving component expects.
	ErrDomainMismatch = errors.New("cryosim: domain mismatch")

	// ErrInvalidParameter indicates a configuration value violates a stated
	// invariant, such as a non-positive pixel size.
	ErrInvalidParameter = errors.New("cryosim: invalid parameter")
)

// Image is a 2D image in a declared domain. Real-space images carry float64
// samples; Fourier-space images carry complex128 coefficients on the
// unshifted DFT grid. Exactly one of Real and Fourier is populated,
// according to Domain. Images are immutable value objects: transformations
// return new images.
type Image struct {
	// Real holds row-major real-space samples when Domain == RealSpace.
	Real []float64

	// Fourier holds row-major DFT coefficients when Domain == FourierSpace.
	Fourier []complex128

	// Domain declares which of the two slices is populated.
	Domain Domain

	// Width and Height are the grid dimensions in pixels.
	Width, Height int

	// PixelSize is the physical sampling interval in angstroms per pixel.
	PixelSize float64
}

// NewRealImage constructs a real-space image from row-major samples.
func NewRealImage(data []float64, width, height int, pixelSize float64) (Image, error) {
	if width <= 0 || height <= 0 || pixelSize <= 0 {
		return Image{}, fmt.Errorf("image dimensions %dx%d, pixel size %g: %w",
			width, height, pixelSize, ErrInvalidParameter)
	}
	if len(data) != width*height {
		return Image{}, fmt.Errorf("data length %d does not match %dx%d grid: %w",
			len(data), width, height, ErrShapeMismatch)
	}
	return Image{Real: data, Domain: RealSpace, Width: width, Height: height, PixelSize: pixelSize}, nil
}

// NewFourierImage constructs a Fourier-space image from row-major DFT
// coefficients on the unshifted frequency grid.
func NewFourierImage(data []complex128, width, height int, pixelSize float64) (Image, error) {
	if width <= 0 || height <= 0 || pixelSize <= 0 {
		return Image{}, fmt.Errorf("image dimensions %dx%d, pixel size %g: %w",
			width, height, pixelSize, ErrInvalidParameter)
	}
	if len(data) != width*height {
		return Image{}, fmt.Errorf("data length %d does not match %dx%d grid: %w",
			len(data), width, height, ErrShapeMismatch)
	}
	return Image{Fourier: data, Domain: FourierSpace, Width: width, Height: height, PixelSize: pixelSize}, nil
}

// SameShape reports whether two images share grid dimensions.
func (im Image) SameShape(other Image) bool {
	return im.Width == other.Width && im.Height == other.Height
}

// Pixels returns the number of samples in the image grid.
func (im Image) Pixels() int { return im.Width * im.Height }
