// Package visualization exports simulated images and volume slices as
// grayscale PNG files for visual inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
)

// Axis selects the slicing plane for volume export.
type Axis int

const (
	// AxisX extracts YZ planes at fixed x.
	AxisX Axis = iota
	// AxisY extracts XZ planes at fixed y.
	AxisY
	// AxisZ extracts XY planes at fixed z.
	AxisZ
)

// SaveImage writes a simulated image as a 16-bit grayscale PNG.
// Fourier-domain images are transformed back to real space first, and
// intensities are rescaled to span the full grayscale range.
func SaveImage(im models.Image, path string) error {
	var data []float64
	switch im.Domain {
	case models.RealSpace:
		data = im.Real
	case models.FourierSpace:
		data = fourier.Real(fourier.IFFT2D(im.Fourier, im.Width, im.Height))
	default:
		return fmt.Errorf("unsupported image domain %v: %w", im.Domain, models.ErrDomainMismatch)
	}
	return writeGrayPNG(data, im.Width, im.Height, path)
}

// SaveSlice writes one plane of a volume as a 16-bit grayscale PNG.
func SaveSlice(vol models.Volume, axis Axis, position int, path string) error {
	data, w, h, err := extractSlice(vol, axis, position)
	if err != nil {
		return err
	}
	return writeGrayPNG(data, w, h, path)
}

// SaveSliceSeries writes every plane of a volume along the given axis
// into dir, named slice_0000.png upward.
func SaveSliceSeries(vol models.Volume, axis Axis, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	var count int
	switch axis {
	case AxisX:
		count = vol.Nx
	case AxisY:
		count = vol.Ny
	case AxisZ:
		count = vol.Nz
	default:
		return fmt.Errorf("unknown axis %d: %w", axis, models.ErrInvalidParameter)
	}

	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("slice_%04d.png", i))
		if err := SaveSlice(vol, axis, i, path); err != nil {
			return fmt.Errorf("error writing slice %d: %w", i, err)
		}
	}
	return nil
}

// extractSlice copies one plane out of the volume.
func extractSlice(vol models.Volume, axis Axis, position int) ([]float64, int, int, error) {
	switch axis {
	case AxisX:
		if position < 0 || position >= vol.Nx {
			return nil, 0, 0, fmt.Errorf("position %d outside [0, %d): %w",
				position, vol.Nx, models.ErrInvalidParameter)
		}
		data := make([]float64, vol.Ny*vol.Nz)
		for z := 0; z < vol.Nz; z++ {
			for y := 0; y < vol.Ny; y++ {
				data[z*vol.Ny+y] = vol.At(position, y, z)
			}
		}
		return data, vol.Ny, vol.Nz, nil

	case AxisY:
		if position < 0 || position >= vol.Ny {
			return nil, 0, 0, fmt.Errorf("position %d outside [0, %d): %w",
				position, vol.Ny, models.ErrInvalidParameter)
		}
		data := make([]float64, vol.Nx*vol.Nz)
		for z := 0; z < vol.Nz; z++ {
			for x := 0; x < vol.Nx; x++ {
				data[z*vol.Nx+x] = vol.At(x, position, z)
			}
		}
		return data, vol.Nx, vol.Nz, nil

	case AxisZ:
		if position < 0 || position >= vol.Nz {
			return nil, 0, 0, fmt.Errorf("position %d outside [0, %d): %w",
				position, vol.Nz, models.ErrInvalidParameter)
		}
		data := make([]float64, vol.Nx*vol.Ny)
		for y := 0; y < vol.Ny; y++ {
			for x := 0; x < vol.Nx; x++ {
				data[y*vol.Nx+x] = vol.At(x, y, position)
			}
		}
		return data, vol.Nx, vol.Ny, nil
	}
	return nil, 0, 0, fmt.Errorf("unknown axis %d: %w", axis, models.ErrInvalidParameter)
}

// writeGrayPNG rescales data to [0, 65535] and encodes it as Gray16.
func writeGrayPNG(data []float64, width, height int, path string) error {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	scale := 0.0
	if max > min {
		scale = 65535 / (max - min)
	}

	out := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - min) * scale
			out.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("error encoding PNG: %w", err)
	}
	return nil
}
