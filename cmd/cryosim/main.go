package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"cryosim/internal/models"
	"cryosim/pkg/config"
	"cryosim/pkg/detector"
	"cryosim/pkg/exposure"
	"cryosim/pkg/fourier"
	"cryosim/pkg/integrator"
	"cryosim/pkg/optics"
	"cryosim/pkg/pipeline"
	"cryosim/pkg/pose"
	"cryosim/pkg/potential"
	"cryosim/pkg/rng"
	"cryosim/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "cryosim.yaml", "Path to YAML configuration file")
	volumePath := flag.String("volume", "", "Raw float64 volume file (cube, little endian); empty uses a sphere phantom")
	volumeSide := flag.Int("side", 64, "Side length of the input volume in voxels")
	voxelSize := flag.Float64("voxel", 1.0, "Voxel size of the input volume in angstroms")
	outputPath := flag.String("output", "simulated.png", "Output PNG filename")
	seed := flag.Uint64("seed", 0, "Randomness seed; 0 renders the noise-free expectation")
	slicesDir := flag.String("slices", "", "If set, also dump XY slices of the input volume to this directory")
	phi := flag.Float64("phi", 0, "Pose phi angle in degrees")
	theta := flag.Float64("theta", 0, "Pose theta angle in degrees")
	psi := flag.Float64("psi", 0, "Pose psi angle in degrees")
	writeConfig := flag.Bool("write-config", false, "Write the default config to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	imgCfg, err := cfg.ImageConfig()
	if err != nil {
		log.Fatalf("Invalid image configuration: %v", err)
	}
	order, err := cfg.InterpolationOrder()
	if err != nil {
		log.Fatalf("Invalid projection configuration: %v", err)
	}

	// Volume ingestion boundary: the simulator only sees the
	// (data, dimensions, voxel size) tuple.
	var grid potential.VoxelGrid
	if *volumePath != "" {
		grid, err = loadRawVolume(*volumePath, *volumeSide, *voxelSize)
		if err != nil {
			log.Fatalf("Failed to load volume: %v", err)
		}
		fmt.Printf("Loaded %d^3 volume from %s\n", *volumeSide, *volumePath)
	} else {
		grid, err = spherePhantom(*volumeSide, float64(*volumeSide)/4, *voxelSize)
		if err != nil {
			log.Fatalf("Failed to build phantom: %v", err)
		}
		fmt.Printf("Using sphere phantom, radius %g voxels\n", float64(*volumeSide)/4)
	}

	if *slicesDir != "" {
		if err := visualization.SaveSliceSeries(grid.Volume(), visualization.AxisZ, *slicesDir); err != nil {
			log.Fatalf("Failed to dump volume slices: %v", err)
		}
		fmt.Printf("Wrote volume slices to %s\n", *slicesDir)
	}

	opt, err := optics.NewCoherent(cfg.CTFParams(), cfg.CTF.CutoffResolution)
	if err != nil {
		log.Fatalf("Invalid CTF parameters: %v", err)
	}
	exp, err := exposure.NewUniform(cfg.Exposure.Dose, cfg.Exposure.Offset)
	if err != nil {
		log.Fatalf("Invalid exposure parameters: %v", err)
	}

	var det detector.Model
	if cfg.Detector.ReadoutSigma > 0 {
		det, err = detector.NewGaussian(detector.ConstantDQE(cfg.Detector.DQE), cfg.Detector.ReadoutSigma)
	} else {
		det, err = detector.NewCounting(detector.ConstantDQE(cfg.Detector.DQE))
	}
	if err != nil {
		log.Fatalf("Invalid detector parameters: %v", err)
	}

	viewPose := pose.Euler{Phi: *phi, Theta: *theta, Psi: *psi, Unit: pose.Degrees}
	pl, err := pipeline.New(
		grid.FourierTransformed(),
		viewPose,
		imgCfg,
		integrator.FourierSlice{Order: order},
		pipeline.Instrument{Optics: opt, Exposure: exp, Detector: det},
	)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	var result models.Image
	if *seed != 0 {
		result, err = pl.Sample(rng.NewKey(*seed))
	} else {
		result, err = pl.Render()
	}
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	if err := visualization.SaveImage(result, *outputPath); err != nil {
		log.Fatalf("Failed to save image: %v", err)
	}
	fmt.Printf("Saved %dx%d image to %s\n", result.Width, result.Height, *outputPath)

	printSpectrumSummary(result)
}

// loadRawVolume reads a cube of little-endian float64 voxels.
func loadRawVolume(path string, side int, voxelSize float64) (potential.VoxelGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return potential.VoxelGrid{}, fmt.Errorf("opening volume: %w", err)
	}
	defer f.Close()

	data := make([]float64, side*side*side)
	if err := binary.Read(f, binary.LittleEndian, data); err != nil {
		return potential.VoxelGrid{}, fmt.Errorf("reading %d voxels: %w", len(data), err)
	}
	return potential.NewVoxelGrid(data, side, side, side, voxelSize)
}

// spherePhantom builds a uniform-density sphere centered in the grid.
func spherePhantom(side int, radius, voxelSize float64) (potential.VoxelGrid, error) {
	data := make([]float64, side*side*side)
	c := float64(side) / 2
	for z := 0; z < side; z++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				dx := float64(x) - c
				dy := float64(y) - c
				dz := float64(z) - c
				if dx*dx+dy*dy+dz*dz <= radius*radius {
					data[(z*side+y)*side+x] = 1
				}
			}
		}
	}
	return potential.NewVoxelGrid(data, side, side, side, voxelSize)
}

// printSpectrumSummary logs a radially averaged power spectrum, a quick
// sanity check on the frequency content of the simulated image.
func printSpectrumSummary(im models.Image) {
	var spectrum []complex128
	switch im.Domain {
	case models.FourierSpace:
		spectrum = im.Fourier
	case models.RealSpace:
		spectrum = fourier.FFT2D(im.Real, im.Width, im.Height)
	}
	power := fourier.PowerSpectrum(spectrum)
	bins := im.Width / 2
	if bins > 8 {
		bins = 8
	}
	radial := fourier.RadialAverage(power, im.Width, im.Height, bins)

	fmt.Println("Radial power spectrum (log10 by ring):")
	for k, v := range radial {
		if v > 0 {
			fmt.Printf("  ring %d: %.2f\n", k, math.Log10(v))
		}
	}
}
