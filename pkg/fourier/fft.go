// Package fourier provides the discrete Fourier transforms and frequency
// grids used throughout the simulator. Transforms are built on Gonum's
// dsp/fourier package and follow the unshifted DFT layout: the zero
// frequency sits at index 0 and negative frequencies occupy the upper
// half of each axis.
//
// Conventions: forward transforms are unnormalized sums; inverse
// transforms carry the 1/N normalization. A real-space image and its
// round trip through FFT2D and IFFT2D agree to floating-point accuracy.
package fourier

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT2D performs a 2D Fast Fourier Transform on real row-major image data.
//
// Parameters:
//   - data: input image as a 1D array (row-major order)
//   - width, height: image dimensions in pixels
//
// Returns the full complex spectrum as a 1D array in row-major order.
func FFT2D(data []float64, width, height int) []complex128 {
	in := make([]complex128, len(data))
	for i, v := range data {
		in[i] = complex(v, 0)
	}
	return FFT2DComplex(in, width, height)
}

// FFT2DComplex performs a 2D forward FFT on complex row-major data.
func FFT2DComplex(data []complex128, width, height int) []complex128 {
	result := make([]complex128, len(data))
	copy(result, data)
	transformAxes2D(result, width, height, false)
	return result
}

// IFFT2D performs the 2D inverse FFT, including 1/(width*height)
// normalization, and returns the complex result. Use Real to project a
// hermitian spectrum back to real samples.
func IFFT2D(data []complex128, width, height int) []complex128 {
	result := make([]complex128, len(data))
	copy(result, data)
	transformAxes2D(result, width, height, true)
	norm := 1.0 / float64(width*height)
	for i := range result {
		result[i] *= complex(norm, 0)
	}
	return result
}

// transformAxes2D applies a 1D transform along rows then columns in place.
func transformAxes2D(data []complex128, width, height int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(width)
	rowIn := make([]complex128, width)
	rowOut := make([]complex128, width)
	for y := 0; y < height; y++ {
		copy(rowIn, data[y*width:(y+1)*width])
		if inverse {
			rowFFT.Sequence(rowOut, rowIn)
		} else {
			rowFFT.Coefficients(rowOut, rowIn)
		}
		copy(data[y*width:(y+1)*width], rowOut)
	}

	colFFT := fourier.NewCmplxFFT(height)
	colIn := make([]complex128, height)
	colOut := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			colIn[y] = data[y*width+x]
		}
		if inverse {
			colFFT.Sequence(colOut, colIn)
		} else {
			colFFT.Coefficients(colOut, colIn)
		}
		for y := 0; y < height; y++ {
			data[y*width+x] = colOut[y]
		}
	}
}

// FFT3D performs a 3D forward FFT on real row-major volume data
// (x fastest, then y, then z).
func FFT3D(data []float64, nx, ny, nz int) []complex128 {
	result := make([]complex128, len(data))
	for i, v := range data {
		result[i] = complex(v, 0)
	}

	// Transform each z-plane as a 2D image, then along z.
	for z := 0; z < nz; z++ {
		transformAxes2D(result[z*nx*ny:(z+1)*nx*ny], nx, ny, false)
	}

	zFFT := fourier.NewCmplxFFT(nz)
	in := make([]complex128, nz)
	out := make([]complex128, nz)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			for z := 0; z < nz; z++ {
				in[z] = result[(z*ny+y)*nx+x]
			}
			zFFT.Coefficients(out, in)
			for z := 0; z < nz; z++ {
				result[(z*ny+y)*nx+x] = out[z]
			}
		}
	}
	return result
}

// Real extracts the real parts of a complex array. It is the final step
// after an inverse transform of a hermitian spectrum, where the imaginary
// parts are numerical noise.
func Real(data []complex128) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = real(v)
	}
	return out
}
