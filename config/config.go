// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters. Capacity values are
// fixed at startup; changing them requires reallocating every device buffer.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Capacity  CapacityConfig  `yaml:"capacity"`
	Queue     QueueConfig     `yaml:"queue"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Grid      GridConfig      `yaml:"grid"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	LOD       LODConfig       `yaml:"lod"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Modes     []ModeConfig    `yaml:"modes"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// CapacityConfig bounds the cell population and the identity pool.
type CapacityConfig struct {
	MaxCells         int     `yaml:"max_cells"`          // hard live-cell ceiling
	DefaultCellCount int     `yaml:"default_cell_count"` // initial spawn count
	SpawnRadius      float64 `yaml:"spawn_radius"`       // initial placement sphere
	IDPoolSize       int     `yaml:"id_pool_size"`       // distinct cell ids before recycling is required
}

// QueueConfig bounds the per-frame addition queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// PhysicsConfig holds integration parameters for the physics pass.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt"`
	Drag               float64 `yaml:"drag"`                // velocity damping per second
	CollisionStiffness float64 `yaml:"collision_stiffness"` // separation spring constant
}

// GridConfig holds spatial grid parameters.
type GridConfig struct {
	CellSize    float64 `yaml:"cell_size"`    // world units per bucket edge
	BucketCount int     `yaml:"bucket_count"` // hash table size
}

// LifecycleConfig holds the death policy thresholds applied by the internal
// update pass.
type LifecycleConfig struct {
	MaxAge             float64 `yaml:"max_age"`
	ToxinKillThreshold float64 `yaml:"toxin_kill_threshold"`
	InitialNitrates    float64 `yaml:"initial_nitrates"`
}

// LODConfig holds level-of-detail and culling parameters.
type LODConfig struct {
	Distances      []float64 `yaml:"distances"` // ascending thresholds, one per detail level
	Enabled        bool      `yaml:"enabled"`
	FrustumCulling bool      `yaml:"frustum_culling"`
}

// CameraConfig holds the projection parameters handed to the frustum builder.
type CameraConfig struct {
	FOV  float64 `yaml:"fov"` // vertical field of view, degrees
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // frames in the perf rolling window
}

// ModeConfig defines one genome mode entry.
type ModeConfig struct {
	SplitInterval float64   `yaml:"split_interval"`
	SplitCost     float64   `yaml:"split_cost"`
	ToxinRate     float64   `yaml:"toxin_rate"`
	NitrateRate   float64   `yaml:"nitrate_rate"`
	SignalDecay   float64   `yaml:"signal_decay"`
	Color         []float64 `yaml:"color"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32    // Physics.DT as float32
	LODDistances32 [4]float32 // LOD.Distances as float32, padded/truncated to 4
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	// LOD thresholds: pad a short list by repeating the last entry so the
	// classifier always sees four ascending values.
	defaults := [4]float64{20, 60, 150, 250}
	for i := 0; i < 4; i++ {
		switch {
		case i < len(c.LOD.Distances):
			c.Derived.LODDistances32[i] = float32(c.LOD.Distances[i])
		case i > 0:
			c.Derived.LODDistances32[i] = c.Derived.LODDistances32[i-1]
		default:
			c.Derived.LODDistances32[i] = float32(defaults[i])
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
