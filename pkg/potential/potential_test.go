package potential

import (
	"errors"
	"math"
	"testing"

	"cryosim/internal/models"
	"cryosim/pkg/pose"
)

// TestNewVoxelGridValidation verifies shape and parameter checks happen
// at construction.
func TestNewVoxelGridValidation(t *testing.T) {
	if _, err := NewVoxelGrid(make([]float64, 8), 2, 2, 2, 1.0); err != nil {
		t.Fatalf("valid grid rejected: %v", err)
	}
	if _, err := NewVoxelGrid(make([]float64, 7), 2, 2, 2, 1.0); !errors.Is(err, models.ErrShapeMismatch) {
		t.Errorf("short data: got %v, want ErrShapeMismatch", err)
	}
	if _, err := NewVoxelGrid(make([]float64, 8), 2, 2, 2, -1.0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("negative voxel size: got %v, want ErrInvalidParameter", err)
	}
}

// TestFourierTransformedDC verifies the precomputed Fourier grid's zero
// frequency equals the sum over the real-space grid.
func TestFourierTransformedDC(t *testing.T) {
	const n = 4
	data := make([]float64, n*n*n)
	sum := 0.0
	for i := range data {
		data[i] = float64(i%7) * 0.25
		sum += data[i]
	}
	g, err := NewVoxelGrid(data, n, n, n, 1.0)
	if err != nil {
		t.Fatalf("NewVoxelGrid: %v", err)
	}
	fg := g.FourierTransformed()
	if got := real(fg.At(0, 0, 0)); math.Abs(got-sum) > 1e-10 {
		t.Errorf("DC coefficient = %v, want %v", got, sum)
	}
	if fg.Representation() != FourierVoxels {
		t.Errorf("representation = %v, want FourierVoxels", fg.Representation())
	}
}

// TestFourierGridNyquistEdge verifies out-of-band frequencies read as
// zero while in-band negative frequencies wrap.
func TestFourierGridNyquistEdge(t *testing.T) {
	const n = 4
	data := make([]float64, n*n*n)
	data[1] = 1 // a single off-center voxel gives a dense spectrum
	g, _ := NewVoxelGrid(data, n, n, n, 1.0)
	fg := g.FourierTransformed()

	// In-band extremes for n=4: signed frequencies -2..1.
	if fg.At(-2, 0, 0) == 0 {
		t.Error("frequency -n/2 should be in band for even n")
	}
	if fg.At(1, -1, 1) == 0 {
		t.Error("in-band negative frequency should wrap, not zero")
	}

	// Beyond Nyquist: zero by the implicit zero-padding policy.
	if fg.At(2, 0, 0) != 0 {
		t.Error("frequency (n-1)/2 + 1 should read as zero")
	}
	if fg.At(0, 0, -3) != 0 {
		t.Error("frequency below -n/2 should read as zero")
	}
}

// TestEvaluateIsLazy verifies Evaluate records the pose without touching
// the underlying data.
func TestEvaluateIsLazy(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	g, _ := NewVoxelGrid(data, 2, 2, 2, 1.0)

	p := pose.Euler{Phi: 1.0, Unit: pose.Radians}
	posed := g.Evaluate(p)

	if posed.Pose != pose.Pose(p) {
		t.Error("posed potential should hold the given pose")
	}
	got := posed.Potential.(VoxelGrid).Volume()
	for i, v := range data {
		if got.Data[i] != v {
			t.Fatalf("voxel %d changed by Evaluate: %v != %v", i, got.Data[i], v)
		}
	}
}

// TestNewAtomsValidation verifies atom parameter checks.
func TestNewAtomsValidation(t *testing.T) {
	if _, err := NewAtoms(nil); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("empty model: got %v, want ErrInvalidParameter", err)
	}
	if _, err := NewAtoms([]Atom{{Amplitude: 1, Width: 0}}); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("zero width: got %v, want ErrInvalidParameter", err)
	}
	a, err := NewAtoms([]Atom{{X: 1, Amplitude: 2, Width: 1.5}})
	if err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}
	if a.Representation() != AtomicModel {
		t.Errorf("representation = %v, want AtomicModel", a.Representation())
	}
}
