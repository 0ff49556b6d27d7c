// Package potential represents the 3D scattering potential of a specimen.
// Two families are provided: voxel grids (in real or Fourier space) and
// atomic models with Gaussian form factors. Evaluating a potential at a
// pose is lazy: the pose is recorded and applied to coordinates or
// frequencies at projection time, never by resampling the stored data.
package potential

import (
	"fmt"
	"math"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
	"cryosim/pkg/pose"
)

// Representation tags the concrete variant of a scattering potential.
// Projection integrators declare which representations they accept and
// reject the rest at projection time.
type Representation int

const (
	// RealVoxels is a dense real-space voxel grid.
	RealVoxels Representation = iota

	// FourierVoxels is a dense voxel grid of 3D DFT coefficients.
	FourierVoxels

	// AtomicModel is a sparse set of atom positions with Gaussian form
	// factors.
	AtomicModel
)

// String returns a human-readable name for the representation.
func (r Representation) String() string {
	switch r {
	case RealVoxels:
		return "real voxel grid"
	case FourierVoxels:
		return "fourier voxel grid"
	case AtomicModel:
		return "atomic model"
	default:
		return fmt.Sprintf("Representation(%d)", int(r))
	}
}

// Potential is a 3D scattering-potential field. Implementations are
// immutable after construction.
type Potential interface {
	// Representation reports the concrete variant, used by integrators
	// for capability checks.
	Representation() Representation

	// VoxelSize returns the physical sampling interval in angstroms.
	VoxelSize() float64

	// Evaluate returns the potential oriented by the given pose. The
	// rotation and translation are recorded, not applied to the data.
	Evaluate(p pose.Pose) Posed
}

// Posed is a potential together with the pose it is viewed at.
type Posed struct {
	Potential Potential
	Pose      pose.Pose
}

// VoxelGrid is a dense real-space voxel potential.
type VoxelGrid struct {
	vol models.Volume
}

// NewVoxelGrid wraps a real-space volume. The grid shape and voxel size
// are immutable afterwards.
func NewVoxelGrid(data []float64, nx, ny, nz int, voxelSize float64) (VoxelGrid, error) {
	vol, err := models.NewVolume(data, nx, ny, nz, voxelSize)
	if err != nil {
		return VoxelGrid{}, fmt.Errorf("voxel grid: %w", err)
	}
	return VoxelGrid{vol: vol}, nil
}

// Representation reports RealVoxels.
func (g VoxelGrid) Representation() Representation { return RealVoxels }

// VoxelSize returns the sampling interval in angstroms.
func (g VoxelGrid) VoxelSize() float64 { return g.vol.VoxelSize }

// Dims returns the grid dimensions in voxels.
func (g VoxelGrid) Dims() (nx, ny, nz int) { return g.vol.Nx, g.vol.Ny, g.vol.Nz }

// Volume returns the underlying volume value.
func (g VoxelGrid) Volume() models.Volume { return g.vol }

// Evaluate records the pose without touching the grid.
func (g VoxelGrid) Evaluate(p pose.Pose) Posed { return Posed{Potential: g, Pose: p} }

// FourierTransformed precomputes the 3D DFT of the grid once, producing a
// FourierGrid suitable for Fourier-slice projection. The transform is
// unnormalized; the integrator accounts for voxel size when converting a
// slice back to a physical line integral.
func (g VoxelGrid) FourierTransformed() FourierGrid {
	return FourierGrid{
		data:      fourier.FFT3D(g.vol.Data, g.vol.Nx, g.vol.Ny, g.vol.Nz),
		nx:        g.vol.Nx,
		ny:        g.vol.Ny,
		nz:        g.vol.Nz,
		voxelSize: g.vol.VoxelSize,
	}
}

// FourierGrid is a dense voxel potential in the Fourier domain, stored on
// the unshifted 3D DFT grid. The explicit Fourier tag prevents a
// real-space grid from being silently fed to a Fourier-slice integrator.
type FourierGrid struct {
	data       []complex128
	nx, ny, nz int
	voxelSize  float64
}

// NewFourierGrid wraps precomputed 3D DFT coefficients.
func NewFourierGrid(data []complex128, nx, ny, nz int, voxelSize float64) (FourierGrid, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 || voxelSize <= 0 {
		return FourierGrid{}, fmt.Errorf("fourier grid dimensions %dx%dx%d, voxel size %g: %w",
			nx, ny, nz, voxelSize, models.ErrInvalidParameter)
	}
	if len(data) != nx*ny*nz {
		return FourierGrid{}, fmt.Errorf("fourier grid data length %d does not match %dx%dx%d: %w",
			len(data), nx, ny, nz, models.ErrShapeMismatch)
	}
	return FourierGrid{data: data, nx: nx, ny: ny, nz: nz, voxelSize: voxelSize}, nil
}

// Representation reports FourierVoxels.
func (g FourierGrid) Representation() Representation { return FourierVoxels }

// VoxelSize returns the sampling interval of the underlying real-space
// grid in angstroms.
func (g FourierGrid) VoxelSize() float64 { return g.voxelSize }

// Dims returns the grid dimensions.
func (g FourierGrid) Dims() (nx, ny, nz int) { return g.nx, g.ny, g.nz }

// Evaluate records the pose without touching the grid.
func (g FourierGrid) Evaluate(p pose.Pose) Posed { return Posed{Potential: g, Pose: p} }

// At returns the DFT coefficient at integer frequency indices
// (kx, ky, kz), where each index is a signed frequency in grid units.
// Indices beyond the Nyquist bound of any axis return zero, implementing
// the implicit zero padding of the slice-extraction edge policy.
func (g FourierGrid) At(kx, ky, kz int) complex128 {
	if !inNyquist(kx, g.nx) || !inNyquist(ky, g.ny) || !inNyquist(kz, g.nz) {
		return 0
	}
	x := wrapIndex(kx, g.nx)
	y := wrapIndex(ky, g.ny)
	z := wrapIndex(kz, g.nz)
	return g.data[(z*g.ny+y)*g.nx+x]
}

func inNyquist(k, n int) bool {
	// Signed DFT frequencies of an n-point axis run from -(n/2) to
	// (n-1)/2 inclusive.
	return k >= -(n/2) && k <= (n-1)/2
}

func wrapIndex(k, n int) int {
	if k < 0 {
		return k + n
	}
	return k
}

// Atom is a single scatterer with a Gaussian form factor.
type Atom struct {
	// X, Y, Z is the position in angstroms, relative to the volume center.
	X, Y, Z float64

	// Amplitude is the integrated scattering strength.
	Amplitude float64

	// Width is the Gaussian standard deviation in angstroms.
	Width float64
}

// Atoms is a sparse atomic-coordinate potential. Its projection is
// analytic: the Fourier transform of a sum of Gaussians is evaluated
// exactly at any frequency, so no grid interpolation error enters.
type Atoms struct {
	atoms []Atom
}

// NewAtoms validates and wraps an atomic model.
func NewAtoms(atoms []Atom) (Atoms, error) {
	if len(atoms) == 0 {
		return Atoms{}, fmt.Errorf("atomic model needs at least one atom: %w",
			models.ErrInvalidParameter)
	}
	for i, a := range atoms {
		if a.Width <= 0 || math.IsNaN(a.Width) {
			return Atoms{}, fmt.Errorf("atom %d width %g: %w", i, a.Width,
				models.ErrInvalidParameter)
		}
	}
	out := make([]Atom, len(atoms))
	copy(out, atoms)
	return Atoms{atoms: out}, nil
}

// Representation reports AtomicModel.
func (a Atoms) Representation() Representation { return AtomicModel }

// VoxelSize returns 0: an atomic model has no grid sampling interval.
func (a Atoms) VoxelSize() float64 { return 0 }

// List returns a copy of the atoms.
func (a Atoms) List() []Atom {
	out := make([]Atom, len(a.atoms))
	copy(out, a.atoms)
	return out
}

// Evaluate records the pose without touching the coordinates.
func (a Atoms) Evaluate(p pose.Pose) Posed { return Posed{Potential: a, Pose: p} }
