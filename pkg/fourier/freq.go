package fourier

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Freq returns the DFT sample frequency for index i of an n-point
// transform, in cycles per sample. Indices below (n+1)/2 map to
// non-negative frequencies, the rest to negative frequencies, matching
// the unshifted layout used by all transforms in this package.
func Freq(i, n int) float64 {
	if i < (n+1)/2 {
		return float64(i) / float64(n)
	}
	return float64(i-n) / float64(n)
}

// FreqGrid2D returns the per-pixel spatial frequency components (fx, fy)
// in cycles per angstrom for a width x height grid with the given pixel
// size. Layout matches the spectra produced by FFT2D.
func FreqGrid2D(width, height int, pixelSize float64) (fx, fy []float64) {
	fx = make([]float64, width*height)
	fy = make([]float64, width*height)
	for y := 0; y < height; y++ {
		gy := Freq(y, height) / pixelSize
		for x := 0; x < width; x++ {
			fx[y*width+x] = Freq(x, width) / pixelSize
			fy[y*width+x] = gy
		}
	}
	return fx, fy
}

// PowerSpectrum returns the squared magnitude of each coefficient.
func PowerSpectrum(spectrum []complex128) []float64 {
	power := make([]float64, len(spectrum))
	for i, c := range spectrum {
		power[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	return power
}

// RadialAverage bins a per-pixel quantity by the radial frequency
// magnitude |q| and returns the mean of each bin. Bin k collects pixels
// with |q| in [k, k+1) grid-frequency units. Empty bins hold zero.
//
// This is the standard diagnostic for isotropic spectra: an isotropic
// power spectrum radially averaged loses no information.
func RadialAverage(values []float64, width, height int, bins int) []float64 {
	collected := make([][]float64, bins)
	for y := 0; y < height; y++ {
		ry := Freq(y, height) * float64(height)
		for x := 0; x < width; x++ {
			rx := Freq(x, width) * float64(width)
			r := math.Sqrt(rx*rx + ry*ry)
			k := int(r)
			if k >= bins {
				continue
			}
			collected[k] = append(collected[k], values[y*width+x])
		}
	}
	out := make([]float64, bins)
	for k, vals := range collected {
		if len(vals) > 0 {
			out[k] = stat.Mean(vals, nil)
		}
	}
	return out
}
