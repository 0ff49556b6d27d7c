// Package distribution attaches probabilistic likelihoods to the image
// formation pipeline. A distribution owns a pipeline and an explicit
// noise-covariance kernel; it can draw images consistent with that noise
// law and score observed images against the model. Every call is a pure
// function of the held values, the explicit key and the input image.
package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
	"cryosim/pkg/pipeline"
	"cryosim/pkg/rng"
)

// IndependentGaussian scores images under an independent Gaussian noise
// model with a per-frequency variance kernel, evaluated in the domain the
// covariance is specified in. In Fourier space a frequency-dependent
// kernel models an arbitrary (colored) noise power spectrum; in real
// space only a white (Constant) kernel is diagonal, so colored kernels
// are rejected there at construction.
//
// The likelihood is not invariant to global additive or multiplicative
// rescaling of the observed image: callers must not assume such
// invariance unless they normalize externally.
type IndependentGaussian struct {
	// Pipeline is the deterministic image-formation model.
	Pipeline pipeline.Pipeline

	// Variance is the noise covariance diagonal.
	Variance VarianceKernel

	// Domain is the space the covariance is specified in, and therefore
	// the space observed images must be supplied in.
	Domain models.Domain
}

// NewIndependentGaussian validates the kernel and the domain pairing
// eagerly.
func NewIndependentGaussian(pl pipeline.Pipeline, kernel VarianceKernel, domain models.Domain) (IndependentGaussian, error) {
	if kernel == nil {
		return IndependentGaussian{}, fmt.Errorf("distribution needs a variance kernel: %w",
			models.ErrInvalidParameter)
	}
	if err := kernel.Validate(); err != nil {
		return IndependentGaussian{}, fmt.Errorf("variance kernel: %w", err)
	}
	if domain == models.RealSpace {
		if _, ok := kernel.(Constant); !ok {
			return IndependentGaussian{}, fmt.Errorf(
				"real-space covariance must be white (Constant kernel): %w",
				models.ErrInvalidParameter)
		}
	}
	return IndependentGaussian{Pipeline: pl, Variance: kernel, Domain: domain}, nil
}

// Render evaluates the pipeline deterministically and converts the
// result into the distribution's domain.
func (d IndependentGaussian) Render() (models.Image, error) {
	im, err := d.Pipeline.Render()
	if err != nil {
		return models.Image{}, err
	}
	return toDomain(im, d.Domain)
}

// Sample draws an image by adding noise with the configured covariance to
// the deterministic render, under the same convention LogLikelihood
// scores with. In real space every pixel receives independent noise of
// variance Variance.At(0). In Fourier space the real and imaginary parts
// of each coefficient receive variance Variance.At(q), generated by
// coloring the transform of a white real-space field so the spectrum
// keeps the Hermitian symmetry of real noise.
func (d IndependentGaussian) Sample(key rng.Key) (models.Image, error) {
	mean, err := d.Render()
	if err != nil {
		return models.Image{}, err
	}
	w, h := mean.Width, mean.Height
	n := float64(w * h)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: key.Source()}
	white := make([]float64, w*h)
	for i := range white {
		white[i] = normal.Rand()
	}

	switch d.Domain {
	case models.FourierSpace:
		// The unnormalized transform of a unit white field carries
		// E[Re^2] = E[Im^2] = n/2 per generic coefficient, so sqrt(2 v / n)
		// sets each part's variance to v.
		noiseF := fourier.FFT2D(white, w, h)
		out := make([]complex128, len(mean.Fourier))
		for j := 0; j < h; j++ {
			fy := fourier.Freq(j, h) / mean.PixelSize
			for i := 0; i < w; i++ {
				fx := fourier.Freq(i, w) / mean.PixelSize
				q := math.Sqrt(fx*fx + fy*fy)
				idx := j*w + i
				scale := complex(math.Sqrt(2*d.Variance.At(q)/n), 0)
				out[idx] = mean.Fourier[idx] + noiseF[idx]*scale
			}
		}
		return models.NewFourierImage(out, w, h, mean.PixelSize)
	default:
		// Construction guarantees a white kernel here.
		out := make([]float64, len(mean.Real))
		copy(out, mean.Real)
		floats.AddScaled(out, math.Sqrt(d.Variance.At(0)), white)
		return models.NewRealImage(out, w, h, mean.PixelSize)
	}
}

// LogLikelihood scores an observed image against the model: the Gaussian
// log-density of observed - render under the configured covariance,
// averaged per sample. The observed image must be supplied in the
// distribution's domain and on the pipeline's grid.
func (d IndependentGaussian) LogLikelihood(observed models.Image) (float64, error) {
	if observed.Domain != d.Domain {
		return 0, fmt.Errorf("observed image is %v, distribution expects %v: %w",
			observed.Domain, d.Domain, models.ErrDomainMismatch)
	}
	mean, err := d.Render()
	if err != nil {
		return 0, err
	}
	if !observed.SameShape(mean) {
		return 0, fmt.Errorf("observed %dx%d, model %dx%d: %w",
			observed.Width, observed.Height, mean.Width, mean.Height,
			models.ErrShapeMismatch)
	}

	w, h := mean.Width, mean.Height
	n := float64(w * h)
	var loss, norm float64

	switch d.Domain {
	case models.FourierSpace:
		for j := 0; j < h; j++ {
			fy := fourier.Freq(j, h) / mean.PixelSize
			for i := 0; i < w; i++ {
				fx := fourier.Freq(i, w) / mean.PixelSize
				q := math.Sqrt(fx*fx + fy*fy)
				v := d.Variance.At(q)
				idx := j*w + i
				r := observed.Fourier[idx] - mean.Fourier[idx]
				loss += (real(r)*real(r) + imag(r)*imag(r)) / (2 * v)
				norm += 0.5 * math.Log(2*math.Pi*v)
			}
		}
	default:
		v := d.Variance.At(0)
		for i := range mean.Real {
			r := observed.Real[i] - mean.Real[i]
			loss += r * r / (2 * v)
		}
		norm = n * 0.5 * math.Log(2*math.Pi*v)
	}
	return -(loss + norm) / n, nil
}

// toDomain converts an image into the requested domain, transforming if
// necessary.
func toDomain(im models.Image, domain models.Domain) (models.Image, error) {
	if im.Domain == domain {
		return im, nil
	}
	switch domain {
	case models.FourierSpace:
		return models.NewFourierImage(
			fourier.FFT2D(im.Real, im.Width, im.Height), im.Width, im.Height, im.PixelSize)
	case models.RealSpace:
		return models.NewRealImage(
			fourier.Real(fourier.IFFT2D(im.Fourier, im.Width, im.Height)),
			im.Width, im.Height, im.PixelSize)
	default:
		return models.Image{}, fmt.Errorf("unknown domain %v: %w", domain, models.ErrDomainMismatch)
	}
}
