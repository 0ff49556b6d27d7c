package visualization

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cryosim/internal/models"
	"cryosim/pkg/fourier"
)

func testVolume(t *testing.T) models.Volume {
	t.Helper()
	data := make([]float64, 4*4*4)
	for i := range data {
		data[i] = float64(i)
	}
	vol, err := models.NewVolume(data, 4, 4, 4, 1.0)
	if err != nil {
		t.Fatalf("NewVolume failed: %v", err)
	}
	return vol
}

func TestSaveImageRealSpace(t *testing.T) {
	im, err := models.NewRealImage([]float64{0, 1, 2, 3}, 2, 2, 1.0)
	if err != nil {
		t.Fatalf("NewRealImage failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := SaveImage(im, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Errorf("Expected 2x2 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestSaveImageFourierSpace(t *testing.T) {
	real := []float64{1, 2, 3, 4}
	spectrum := fourier.FFT2D(real, 2, 2)
	im, err := models.NewFourierImage(spectrum, 2, 2, 1.0)
	if err != nil {
		t.Fatalf("NewFourierImage failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := SaveImage(im, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Output file was not written: %v", err)
	}
}

func TestSaveSliceDimensions(t *testing.T) {
	vol := testVolume(t)
	dir := t.TempDir()

	cases := []struct {
		name string
		axis Axis
		w, h int
	}{
		{"x", AxisX, 4, 4},
		{"y", AxisY, 4, 4},
		{"z", AxisZ, 4, 4},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".png")
		if err := SaveSlice(vol, tc.axis, 1, path); err != nil {
			t.Fatalf("SaveSlice(%s) failed: %v", tc.name, err)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", path, err)
		}
		decoded, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("Slice %s is not a valid PNG: %v", tc.name, err)
		}
		if decoded.Bounds().Dx() != tc.w || decoded.Bounds().Dy() != tc.h {
			t.Errorf("Slice %s: expected %dx%d, got %dx%d",
				tc.name, tc.w, tc.h, decoded.Bounds().Dx(), decoded.Bounds().Dy())
		}
	}
}

func TestSaveSliceOutOfRange(t *testing.T) {
	vol := testVolume(t)
	path := filepath.Join(t.TempDir(), "bad.png")

	if err := SaveSlice(vol, AxisZ, 4, path); err == nil {
		t.Error("Expected error for out-of-range position")
	}
	if err := SaveSlice(vol, AxisZ, -1, path); err == nil {
		t.Error("Expected error for negative position")
	}
}

func TestSaveSliceSeries(t *testing.T) {
	vol := testVolume(t)
	dir := filepath.Join(t.TempDir(), "series")

	if err := SaveSliceSeries(vol, AxisZ, dir); err != nil {
		t.Fatalf("SaveSliceSeries failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read output directory: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 slices, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "slice_0000.png")); err != nil {
		t.Errorf("Expected slice_0000.png: %v", err)
	}
}
