package fourier

import (
	"math"
	"math/cmplx"
	"testing"
)

// TestFFT2DRoundTrip verifies that a forward and inverse 2D transform
// reproduces the input to floating-point accuracy.
func TestFFT2DRoundTrip(t *testing.T) {
	const w, h = 8, 6
	data := make([]float64, w*h)
	for i := range data {
		data[i] = math.Sin(float64(i)*0.37) + 0.5*math.Cos(float64(i)*1.1)
	}

	spectrum := FFT2D(data, w, h)
	back := Real(IFFT2D(spectrum, w, h))

	for i := range data {
		if math.Abs(back[i]-data[i]) > 1e-12 {
			t.Fatalf("round trip diverges at %d: got %v, want %v", i, back[i], data[i])
		}
	}
}

// TestFFT2DDCComponent verifies the zero-frequency coefficient equals the
// sum of all samples.
func TestFFT2DDCComponent(t *testing.T) {
	const w, h = 4, 4
	data := make([]float64, w*h)
	sum := 0.0
	for i := range data {
		data[i] = float64(i%5) - 2.0
		sum += data[i]
	}

	spectrum := FFT2D(data, w, h)
	if math.Abs(real(spectrum[0])-sum) > 1e-12 || math.Abs(imag(spectrum[0])) > 1e-12 {
		t.Errorf("DC coefficient = %v, want %v", spectrum[0], sum)
	}
}

// TestFFT2DSingleMode verifies a pure cosine lands in the expected bin.
func TestFFT2DSingleMode(t *testing.T) {
	const w, h = 16, 16
	data := make([]float64, w*h)
	// cos(2*pi*3x/16): energy at kx=3 and kx=13, ky=0.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = math.Cos(2 * math.Pi * 3 * float64(x) / float64(w))
		}
	}

	spectrum := FFT2D(data, w, h)
	want := float64(w*h) / 2
	if math.Abs(cmplx.Abs(spectrum[3])-want) > 1e-9 {
		t.Errorf("bin (3,0) magnitude = %v, want %v", cmplx.Abs(spectrum[3]), want)
	}
	if math.Abs(cmplx.Abs(spectrum[13])-want) > 1e-9 {
		t.Errorf("bin (13,0) magnitude = %v, want %v", cmplx.Abs(spectrum[13]), want)
	}
	// Everything off those two bins should be numerically zero.
	if cmplx.Abs(spectrum[1*w+3]) > 1e-9 {
		t.Errorf("bin (3,1) should be empty, got %v", cmplx.Abs(spectrum[1*w+3]))
	}
}

// TestFFT3DDCComponent verifies the 3D transform's zero-frequency bin.
func TestFFT3DDCComponent(t *testing.T) {
	const n = 4
	data := make([]float64, n*n*n)
	sum := 0.0
	for i := range data {
		data[i] = float64(i % 3)
		sum += data[i]
	}
	spectrum := FFT3D(data, n, n, n)
	if math.Abs(real(spectrum[0])-sum) > 1e-10 {
		t.Errorf("3D DC coefficient = %v, want %v", real(spectrum[0]), sum)
	}
}

// TestFreq verifies the unshifted frequency layout.
func TestFreq(t *testing.T) {
	cases := []struct {
		i, n int
		want float64
	}{
		{0, 8, 0},
		{1, 8, 0.125},
		{3, 8, 0.375},
		{4, 8, -0.5},
		{7, 8, -0.125},
		{2, 5, 0.4},
		{3, 5, -0.4},
	}
	for _, c := range cases {
		if got := Freq(c.i, c.n); math.Abs(got-c.want) > 1e-15 {
			t.Errorf("Freq(%d, %d) = %v, want %v", c.i, c.n, got, c.want)
		}
	}
}

// TestRadialAverageIsotropic verifies that a constant field radially
// averages to the same constant in every populated bin.
func TestRadialAverageIsotropic(t *testing.T) {
	const w, h = 16, 16
	values := make([]float64, w*h)
	for i := range values {
		values[i] = 3.5
	}
	avg := RadialAverage(values, w, h, 8)
	for k, v := range avg {
		if v != 0 && math.Abs(v-3.5) > 1e-12 {
			t.Errorf("bin %d averages to %v, want 3.5", k, v)
		}
	}
	if avg[0] != 3.5 {
		t.Errorf("DC bin should be populated, got %v", avg[0])
	}
}
