// Package pipeline orchestrates image formation: posed potential through
// projection, optics, exposure and detector stages to a simulated image.
// Stages are independently optional; each absence changes the returned
// quantity. With no instrument the output is the raw exit-plane
// projection in Fourier space; with optics but no detector it is the
// squared-magnitude wavefunction at the detector plane; with a full
// instrument it is expected (Render) or sampled (Sample) electron counts.
//
// Pipelines are immutable value objects. Updating a parameter means
// constructing a new pipeline, for which the With* helpers exist; this
// keeps parameter updates compatible with external optimizers that work
// by structural replacement.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"cryosim/internal/models"
	"cryosim/pkg/detector"
	"cryosim/pkg/exposure"
	"cryosim/pkg/fourier"
	"cryosim/pkg/integrator"
	"cryosim/pkg/pose"
	"cryosim/pkg/potential"
	"cryosim/pkg/rng"
)

// Instrument is the optional triple of microscope stages. A nil field
// means the stage is absent, not that it is an error.
type Instrument struct {
	Optics   opticsModel
	Exposure exposure.Model
	Detector detector.Model
}

// opticsModel aliases the optics contract to keep the struct literal
// readable without importing the package at every call site.
type opticsModel interface {
	Apply(im models.Image) (models.Image, error)
}

// Pipeline is a complete image-formation model: a specimen, its pose, the
// image grid, a projection strategy and an optional instrument.
type Pipeline struct {
	Specimen   potential.Potential
	Pose       pose.Pose
	Config     models.ImageConfig
	Integrator integrator.Integrator
	Instrument Instrument
}

// New validates the pipeline eagerly: the integrator must accept the
// specimen's representation and the image grid must be well formed.
func New(spec potential.Potential, p pose.Pose, cfg models.ImageConfig, ig integrator.Integrator, inst Instrument) (Pipeline, error) {
	if spec == nil || ig == nil {
		return Pipeline{}, fmt.Errorf("pipeline needs a specimen and an integrator: %w",
			models.ErrInvalidParameter)
	}
	if _, err := models.NewImageConfig(cfg.Width, cfg.Height, cfg.PixelSize); err != nil {
		return Pipeline{}, err
	}
	if !ig.Accepts(spec.Representation()) {
		return Pipeline{}, fmt.Errorf("integrator does not accept %v: %w",
			spec.Representation(), models.ErrIncompatibleRepresentation)
	}
	if p == nil {
		p = pose.Identity()
	}
	return Pipeline{Specimen: spec, Pose: p, Config: cfg, Integrator: ig, Instrument: inst}, nil
}

// WithPose returns a copy of the pipeline looking at a new pose.
func (pl Pipeline) WithPose(p pose.Pose) Pipeline {
	pl.Pose = p
	return pl
}

// WithInstrument returns a copy of the pipeline with a new instrument.
func (pl Pipeline) WithInstrument(inst Instrument) Pipeline {
	pl.Instrument = inst
	return pl
}

// Render runs the deterministic path through whichever stages are
// present.
func (pl Pipeline) Render() (models.Image, error) {
	return pl.run(nil)
}

// Sample runs the identical path, but the detector stage, if present,
// draws from its noise law using the explicit key. Without a detector,
// Sample degenerates to Render.
func (pl Pipeline) Sample(key rng.Key) (models.Image, error) {
	return pl.run(&key)
}

// run is the single stage sequence shared by Render and Sample. The
// stage order is strict; a stage is skipped only by being absent.
// Exposure scales the wave before the squared-magnitude step, so with
// optics present the output intensity grows quadratically in
// exposure.Uniform's Dose, not linearly.
func (pl Pipeline) run(key *rng.Key) (models.Image, error) {
	im, err := pl.Integrator.Project(pl.Specimen.Evaluate(pl.Pose), pl.Config)
	if err != nil {
		return models.Image{}, fmt.Errorf("projection: %w", err)
	}

	if pl.Instrument.Optics != nil {
		im, err = pl.Instrument.Optics.Apply(im)
		if err != nil {
			return models.Image{}, fmt.Errorf("optics: %w", err)
		}
	}

	if pl.Instrument.Exposure != nil {
		im, err = pl.Instrument.Exposure.Scale(im)
		if err != nil {
			return models.Image{}, fmt.Errorf("exposure: %w", err)
		}
	}

	// With optics present the wave reaches the detector plane: the
	// observable is its squared magnitude. Without optics the raw
	// projection passes through unchanged (possibly dose-scaled).
	if pl.Instrument.Optics != nil {
		im, err = intensity(im)
		if err != nil {
			return models.Image{}, err
		}
	}

	if pl.Instrument.Detector != nil {
		if key != nil {
			im, err = pl.Instrument.Detector.Sample(*key, im)
		} else {
			im, err = pl.Instrument.Detector.Render(im)
		}
		if err != nil {
			return models.Image{}, fmt.Errorf("detector: %w", err)
		}
	}
	return im, nil
}

// intensity converts the Fourier-space wave to the real-space
// squared-magnitude image observed at the detector plane.
func intensity(im models.Image) (models.Image, error) {
	if im.Domain != models.FourierSpace {
		return models.Image{}, fmt.Errorf("intensity of a %v image: %w",
			im.Domain, models.ErrDomainMismatch)
	}
	wave := fourier.IFFT2D(im.Fourier, im.Width, im.Height)
	out := make([]float64, len(wave))
	for i, w := range wave {
		out[i] = real(w)*real(w) + imag(w)*imag(w)
	}
	return models.NewRealImage(out, im.Width, im.Height, im.PixelSize)
}

// RenderBatch renders the same pipeline at many poses in parallel,
// returning one image per pose in order. Workers are bounded by the CPU
// count; every evaluation is an independent pure function, so the only
// coordination is the wait group.
func (pl Pipeline) RenderBatch(poses []pose.Pose) ([]models.Image, error) {
	return pl.batch(poses, func(q pose.Pose, _ int) (models.Image, error) {
		return pl.WithPose(q).Render()
	})
}

// SampleBatch draws one image per pose, folding the batch index into the
// key so that no two elements share a randomness stream.
func (pl Pipeline) SampleBatch(key rng.Key, poses []pose.Pose) ([]models.Image, error) {
	return pl.batch(poses, func(q pose.Pose, i int) (models.Image, error) {
		return pl.WithPose(q).Sample(key.Fold(uint64(i)))
	})
}

func (pl Pipeline) batch(poses []pose.Pose, eval func(pose.Pose, int) (models.Image, error)) ([]models.Image, error) {
	out := make([]models.Image, len(poses))
	errs := make([]error, len(poses))

	workers := runtime.NumCPU()
	if workers > len(poses) {
		workers = len(poses)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i], errs[i] = eval(poses[i], i)
			}
		}()
	}
	for i := range poses {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
	}
	return out, nil
}
