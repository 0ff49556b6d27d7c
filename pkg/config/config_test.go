package config

import (
	"os"
	"path/filepath"
	"testing"

	"cryosim/pkg/integrator"
)

// TestDefaultConfig ensures defaults are initialized with valid values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Image.Width != 128 || cfg.Image.Height != 128 {
		t.Errorf("Expected 128x128 default image, got %dx%d", cfg.Image.Width, cfg.Image.Height)
	}
	if cfg.Image.PixelSize != 1.0 {
		t.Errorf("Expected pixelSize=1.0, got %f", cfg.Image.PixelSize)
	}
	if cfg.CTF.Voltage != 300 {
		t.Errorf("Expected voltage=300, got %f", cfg.CTF.Voltage)
	}
	if cfg.Projection.Interpolation != "linear" {
		t.Errorf("Expected linear interpolation, got %s", cfg.Projection.Interpolation)
	}
	if _, err := cfg.ImageConfig(); err != nil {
		t.Errorf("Default image config should be valid: %v", err)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields defaults.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if cfg.Image.Width != DefaultConfig().Image.Width {
		t.Errorf("Expected default width, got %d", cfg.Image.Width)
	}
}

// TestSaveLoadRoundTrip verifies saving and loading preserves values.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Image.Width = 64
	cfg.CTF.DefocusU = 15000
	cfg.Projection.Interpolation = "cubic"
	cfg.Detector.DQE = 0.8

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded.Image.Width != 64 {
		t.Errorf("Expected width=64, got %d", loaded.Image.Width)
	}
	if loaded.CTF.DefocusU != 15000 {
		t.Errorf("Expected defocusU=15000, got %f", loaded.CTF.DefocusU)
	}
	if loaded.Projection.Interpolation != "cubic" {
		t.Errorf("Expected cubic interpolation, got %s", loaded.Projection.Interpolation)
	}
	if loaded.Detector.DQE != 0.8 {
		t.Errorf("Expected dqe=0.8, got %f", loaded.Detector.DQE)
	}
}

// TestLoadConfigPartialFile verifies unspecified fields keep defaults.
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "image:\n  width: 32\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("writing partial config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Image.Width != 32 {
		t.Errorf("Expected width=32 from file, got %d", cfg.Image.Width)
	}
	if cfg.CTF.Voltage != 300 {
		t.Errorf("Expected default voltage to survive, got %f", cfg.CTF.Voltage)
	}
}

// TestInterpolationOrder verifies the name mapping and its error case.
func TestInterpolationOrder(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name string
		want integrator.Order
	}{
		{"nearest", integrator.Nearest},
		{"linear", integrator.Trilinear},
		{"", integrator.Trilinear},
		{"cubic", integrator.Tricubic},
	}
	for _, c := range cases {
		cfg.Projection.Interpolation = c.name
		got, err := cfg.InterpolationOrder()
		if err != nil {
			t.Errorf("InterpolationOrder(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("InterpolationOrder(%q) = %v, want %v", c.name, got, c.want)
		}
	}

	cfg.Projection.Interpolation = "septic"
	if _, err := cfg.InterpolationOrder(); err == nil {
		t.Error("Expected error for unknown interpolation name")
	}
}

// TestCreateDefaultConfigFile verifies the convenience creator.
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
