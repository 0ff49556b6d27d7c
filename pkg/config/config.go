// Package config provides configuration loading and management for
// cryosim. It handles loading simulation parameters from YAML files and
// provides physically reasonable defaults for a 300 kV instrument.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cryosim/internal/models"
	"cryosim/pkg/integrator"
	"cryosim/pkg/optics"
)

// Config represents the simulation configuration loaded from YAML.
type Config struct {
	// Image parameters define the output sampling grid.
	Image struct {
		// Width and Height are the output dimensions in pixels.
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// PixelSize is the physical pixel size in angstroms per pixel.
		PixelSize float64 `yaml:"pixelSize"`
	} `yaml:"image"`

	// Projection parameters select the integration strategy.
	Projection struct {
		// Interpolation selects the slice resampling order:
		// "nearest", "linear", or "cubic".
		Interpolation string `yaml:"interpolation"`
	} `yaml:"projection"`

	// CTF holds the contrast-transfer-function parameters.
	CTF struct {
		// DefocusU and DefocusV are the principal defocus values in
		// angstroms.
		DefocusU float64 `yaml:"defocusU"`
		DefocusV float64 `yaml:"defocusV"`

		// AstigmatismAngle is the azimuth of the DefocusU axis in degrees.
		AstigmatismAngle float64 `yaml:"astigmatismAngle"`

		// Voltage is the accelerating voltage in kilovolts.
		Voltage float64 `yaml:"voltage"`

		// SphericalAberration is the Cs coefficient in millimeters.
		SphericalAberration float64 `yaml:"sphericalAberration"`

		// AmplitudeContrast is the amplitude-contrast ratio in [0, 1].
		AmplitudeContrast float64 `yaml:"amplitudeContrast"`

		// BFactor is the Gaussian envelope decay in square angstroms.
		BFactor float64 `yaml:"bFactor"`

		// CutoffResolution, when positive, low-passes the modulated wave
		// at this resolution in angstroms.
		CutoffResolution float64 `yaml:"cutoffResolution"`
	} `yaml:"ctf"`

	// Exposure parameters scale the signal by integrated dose.
	Exposure struct {
		// Dose is the intensity scale factor.
		Dose float64 `yaml:"dose"`

		// Offset is a constant intensity offset.
		Offset float64 `yaml:"offset"`
	} `yaml:"exposure"`

	// Detector parameters configure the counting model.
	Detector struct {
		// DQE is the constant detective quantum efficiency in [0, 1].
		DQE float64 `yaml:"dqe"`

		// ReadoutSigma, when positive, selects Gaussian readout noise of
		// this standard deviation instead of Poisson counting.
		ReadoutSigma float64 `yaml:"readoutSigma"`
	} `yaml:"detector"`

	// Noise parameters configure the likelihood distribution.
	Noise struct {
		// Variance is the white-noise variance of the Gaussian likelihood.
		Variance float64 `yaml:"variance"`
	} `yaml:"noise"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default image parameters
	cfg.Image.Width = 128
	cfg.Image.Height = 128
	cfg.Image.PixelSize = 1.0

	// Set default projection parameters
	cfg.Projection.Interpolation = "linear"

	// Set default CTF parameters for a typical 300 kV collection
	cfg.CTF.DefocusU = 10000
	cfg.CTF.DefocusV = 10000
	cfg.CTF.AstigmatismAngle = 0
	cfg.CTF.Voltage = 300
	cfg.CTF.SphericalAberration = 2.7
	cfg.CTF.AmplitudeContrast = 0.1
	cfg.CTF.BFactor = 0
	cfg.CTF.CutoffResolution = 0

	// Set default exposure parameters
	cfg.Exposure.Dose = 100
	cfg.Exposure.Offset = 0

	// Set default detector parameters
	cfg.Detector.DQE = 1.0
	cfg.Detector.ReadoutSigma = 0

	// Set default noise parameters
	cfg.Noise.Variance = 1.0

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// ImageConfig converts the image section into the validated value used
// by the pipeline.
func (c *Config) ImageConfig() (models.ImageConfig, error) {
	return models.NewImageConfig(c.Image.Width, c.Image.Height, c.Image.PixelSize)
}

// InterpolationOrder maps the configured interpolation name to the
// integrator order.
func (c *Config) InterpolationOrder() (integrator.Order, error) {
	switch c.Projection.Interpolation {
	case "nearest":
		return integrator.Nearest, nil
	case "linear", "":
		return integrator.Trilinear, nil
	case "cubic":
		return integrator.Tricubic, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q: %w",
			c.Projection.Interpolation, models.ErrInvalidParameter)
	}
}

// CTFParams converts the CTF section into the optics parameter value.
func (c *Config) CTFParams() optics.CTF {
	return optics.CTF{
		DefocusU:            c.CTF.DefocusU,
		DefocusV:            c.CTF.DefocusV,
		AstigmatismAngle:    c.CTF.AstigmatismAngle,
		Voltage:             c.CTF.Voltage,
		SphericalAberration: c.CTF.SphericalAberration,
		AmplitudeContrast:   c.CTF.AmplitudeContrast,
		BFactor:             c.CTF.BFactor,
	}
}
