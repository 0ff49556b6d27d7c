package models

import "fmt"

// Volume is a 3D scalar field as a 1D array in row-major order (x fastest,
// then y, then z), tagged with a physical voxel size. It is the payload
// handed across the volume-ingestion boundary: file loaders produce a
// (data, dimensions, voxel size) tuple and the simulator consumes it
// without caring about the source format.
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order.
	Data []float64

	// Nx, Ny, Nz are the grid dimensions in voxels.
	Nx, Ny, Nz int

	// VoxelSize is the physical size of each voxel in angstroms.
	VoxelSize float64
}

// NewVolume validates and wraps raw voxel data.
func NewVolume(data []float64, nx, ny, nz int, voxelSize float64) (Volume, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 || voxelSize <= 0 {
		return Volume{}, fmt.Errorf("volume dimensions %dx%dx%d, voxel size %g: %w",
			nx, ny, nz, voxelSize, ErrInvalidParameter)
	}
	if len(data) != nx*ny*nz {
		return Volume{}, fmt.Errorf("data length %d does not match %dx%dx%d grid: %w",
			len(data), nx, ny, nz, ErrShapeMismatch)
	}
	return Volume{Data: data, Nx: nx, Ny: ny, Nz: nz, VoxelSize: voxelSize}, nil
}

// At returns the voxel value at integer grid coordinates.
func (v Volume) At(x, y, z int) float64 {
	return v.Data[(z*v.Ny+y)*v.Nx+x]
}

// Voxels returns the total number of voxels.
func (v Volume) Voxels() int { return v.Nx * v.Ny * v.Nz }
