package integrator

import (
	"math"

	"cryosim/pkg/potential"
)

// Order selects the interpolation used when a Fourier-slice integrator
// resamples the 3D frequency grid at non-grid-aligned coordinates. It is
// an accuracy/speed trade-off exposed to the caller, never hardcoded.
//
// Differentiability: Trilinear and Tricubic have closed-form derivatives
// with respect to the sampling position and are safe under gradient-based
// parameter estimation. Nearest is piecewise constant and is not
// differentiable in the sampling position; it exists for speed only.
type Order int

const (
	// Nearest rounds each coordinate to the closest grid point.
	Nearest Order = iota

	// Trilinear blends the 8 surrounding grid points linearly.
	Trilinear

	// Tricubic uses Keys cubic convolution (a = -0.5) over 64 points.
	Tricubic
)

// sample resamples the Fourier grid at fractional signed-frequency
// coordinates (in grid units). Coordinates beyond the Nyquist bound of
// any axis contribute zero, per the implicit zero-padding edge policy.
func (o Order) sample(g potential.FourierGrid, x, y, z float64) complex128 {
	switch o {
	case Nearest:
		return g.At(int(math.Round(x)), int(math.Round(y)), int(math.Round(z)))
	case Tricubic:
		return convolve3D(g, x, y, z, 4, keysWeight)
	default:
		return convolve3D(g, x, y, z, 2, linearWeight)
	}
}

// linearWeight is the triangle kernel of trilinear interpolation.
func linearWeight(d float64) float64 {
	d = math.Abs(d)
	if d >= 1 {
		return 0
	}
	return 1 - d
}

// keysWeight is the Keys cubic convolution kernel with a = -0.5, the
// standard bicubic/tricubic choice. Support is [-2, 2].
func keysWeight(d float64) float64 {
	d = math.Abs(d)
	switch {
	case d < 1:
		return (1.5*d-2.5)*d*d + 1
	case d < 2:
		return ((-0.5*d+2.5)*d-4)*d + 2
	default:
		return 0
	}
}

// convolve3D runs a separable kernel of the given support width over the
// grid around (x, y, z).
func convolve3D(g potential.FourierGrid, x, y, z float64, width int, weight func(float64) float64) complex128 {
	x0 := int(math.Floor(x)) - width/2 + 1
	y0 := int(math.Floor(y)) - width/2 + 1
	z0 := int(math.Floor(z)) - width/2 + 1

	var acc complex128
	for dz := 0; dz < width; dz++ {
		kz := z0 + dz
		wz := weight(z - float64(kz))
		if wz == 0 {
			continue
		}
		for dy := 0; dy < width; dy++ {
			ky := y0 + dy
			wy := weight(y - float64(ky))
			if wy == 0 {
				continue
			}
			for dx := 0; dx < width; dx++ {
				kx := x0 + dx
				wx := weight(x - float64(kx))
				if wx == 0 {
					continue
				}
				acc += g.At(kx, ky, kz) * complex(wx*wy*wz, 0)
			}
		}
	}
	return acc
}
