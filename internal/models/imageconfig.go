package models

import "fmt"

// ImageConfig defines the sampling grid shared by every pipeline stage:
// the output shape in pixels and the physical pixel size. It is immutable
// after construction; every downstream frequency grid derives from it.
type ImageConfig struct {
	// Width and Height are the output grid dimensions in pixels.
	Width, Height int

	// PixelSize is the physical pixel size in angstroms per pixel.
	PixelSize float64
}

// NewImageConfig validates the grid parameters.
func NewImageConfig(width, height int, pixelSize float64) (ImageConfig, error) {
	if width <= 0 || height <= 0 {
		return ImageConfig{}, fmt.Errorf("image config %dx%d: %w", width, height, ErrInvalidParameter)
	}
	if pixelSize <= 0 {
		return ImageConfig{}, fmt.Errorf("pixel size %g: %w", pixelSize, ErrInvalidParameter)
	}
	return ImageConfig{Width: width, Height: height, PixelSize: pixelSize}, nil
}

// Pixels returns the number of grid samples.
func (c ImageConfig) Pixels() int { return c.Width * c.Height }
