// Package config is the YAML-decodable parameter bundle for the
// render pipeline (SPEC_FULL.md §A.3). The teacher keeps engine
// parameters as plain structs filled in by code
// (pkg/core/scene.go's SamplingConfig, pkg/renderer's CameraConfig);
// this repo keeps that struct shape but lets an external file drive
// it via gopkg.in/yaml.v3, the one YAML library declared in go.mod.
package config

import (
	"fmt"
	"os"

	"github.com/kjellstrom/lumenpath/internal/accel"
	"gopkg.in/yaml.v3"
)

// BVHConfig mirrors accel.Config's fields (spec.md §6), decoded from
// YAML instead of constructed in Go so a render profile can tune the
// accelerator without a rebuild.
type BVHConfig struct {
	MaxPrimsInNode uint8  `yaml:"max_prims_in_node"`
	SplitMethod    string `yaml:"split_method"` // "sah" | "middle" | "equal_counts" | "hlbvh"
}

// ToAccelConfig resolves the YAML split-method name into accel's enum,
// defaulting to SAH for an empty or unrecognized value.
func (c BVHConfig) ToAccelConfig() accel.Config {
	method := accel.SplitSAH
	switch c.SplitMethod {
	case "middle":
		method = accel.SplitMiddle
	case "equal_counts":
		method = accel.SplitEqualCounts
	case "hlbvh":
		method = accel.SplitHLBVH
	}
	maxPrims := c.MaxPrimsInNode
	if maxPrims == 0 {
		maxPrims = 4
	}
	return accel.Config{MaxPrimsInNode: maxPrims, SplitMethod: method}
}

// BDPTConfig mirrors the teacher's SamplingConfig (pkg/core/scene.go)
// generalized with the light-sampling strategy spec.md §6 names.
type BDPTConfig struct {
	Width               int    `yaml:"width"`
	Height              int    `yaml:"height"`
	SamplesPerPixel     int    `yaml:"samples_per_pixel"`
	MaxDepth            int    `yaml:"max_depth"`
	LightSampleStrategy string `yaml:"light_sample_strategy"` // "uniform" | "power"
	Verbose             bool   `yaml:"verbose"`
}

// MLTConfig mirrors original_source's MLTIntegrator constructor
// parameters (original_source/src/integrators/mlt.rs).
type MLTConfig struct {
	MaxDepth             uint32  `yaml:"max_depth"`
	NBootstrap           uint32  `yaml:"n_bootstrap"`
	NChains              uint32  `yaml:"n_chains"`
	MutationsPerPixel    uint32  `yaml:"mutations_per_pixel"`
	Sigma                float64 `yaml:"sigma"`
	LargeStepProbability float64 `yaml:"large_step_probability"`
}

// TileConfig drives internal/film's tile dispatcher.
type TileConfig struct {
	TileSize    int `yaml:"tile_size"`
	MaxParallel int `yaml:"max_parallel"` // 0 means GOMAXPROCS
}

// Render bundles every ambient YAML-configurable render parameter,
// the decode target for cmd/rtrender's config file.
type Render struct {
	BVH  BVHConfig  `yaml:"bvh"`
	BDPT BDPTConfig `yaml:"bdpt"`
	MLT  MLTConfig  `yaml:"mlt"`
	Tile TileConfig `yaml:"tile"`
}

// Default returns the render parameters the teacher's code builds by
// hand (pkg/scene's default SamplingConfig values), as a starting
// point for a YAML override file.
func Default() Render {
	return Render{
		BVH:  BVHConfig{MaxPrimsInNode: 4, SplitMethod: "sah"},
		BDPT: BDPTConfig{Width: 400, Height: 400, SamplesPerPixel: 64, MaxDepth: 5, LightSampleStrategy: "power"},
		MLT:  MLTConfig{MaxDepth: 5, NBootstrap: 100000, NChains: 1000, MutationsPerPixel: 100, Sigma: 0.01, LargeStepProbability: 0.3},
		Tile: TileConfig{TileSize: 16},
	}
}

// Load decodes a YAML render configuration, starting from Default()
// so a file only needs to override what it cares about.
func Load(path string) (Render, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
