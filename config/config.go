// Package config loads the simulation configuration: embedded defaults overlaid by
// an optional YAML or TOML file.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Compute backends for the particle update pass.
const (
	BackendCPU    = "cpu"
	BackendOpenGL = "opengl"
	BackendWebGPU = "webgpu"
)

type Config struct {
	Sim       SimConfig        `yaml:"sim" toml:"sim"`
	Log       LogConfig        `yaml:"log" toml:"log"`
	Clouds    clouds.Config    `yaml:"clouds" toml:"clouds"`
	Particles particles.Config `yaml:"particles" toml:"particles"`
	Emitter   EmitterConfig    `yaml:"emitter" toml:"emitter"`
	View      ViewConfig       `yaml:"view" toml:"view"`
	Telemetry TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

type SimConfig struct {
	Seed     int64   `yaml:"seed" toml:"seed"`         // non-zero reseeds clouds and particles
	Dt       float32 `yaml:"dt" toml:"dt"`             // fixed step for headless runs
	Duration float32 `yaml:"duration" toml:"duration"` // simulated seconds, 0 runs until stopped
	Backend  string  `yaml:"backend" toml:"backend"`
}

type LogConfig struct {
	Debug  bool   `yaml:"debug" toml:"debug"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// EmitterConfig drives the stand-in vehicle the particle emitter is attached to.
type EmitterConfig struct {
	OrbitRadius  float32 `yaml:"orbit_radius" toml:"orbit_radius"`
	OrbitHeight  float32 `yaml:"orbit_height" toml:"orbit_height"`
	AngularSpeed float32 `yaml:"angular_speed" toml:"angular_speed"` // rad/s
}

type ViewConfig struct {
	Width          int         `yaml:"width" toml:"width"`
	Height         int         `yaml:"height" toml:"height"`
	FovY           float32     `yaml:"fov_y" toml:"fov_y"` // degrees
	Near           float32     `yaml:"near" toml:"near"`
	Far            float32     `yaml:"far" toml:"far"`
	CameraDistance float32     `yaml:"camera_distance" toml:"camera_distance"`
	CameraHeight   float32     `yaml:"camera_height" toml:"camera_height"`
	Light          LightConfig `yaml:"light" toml:"light"`
}

type LightConfig struct {
	Direction [3]float32 `yaml:"direction" toml:"direction"`
	Color     [3]float32 `yaml:"color" toml:"color"`
	Intensity float32    `yaml:"intensity" toml:"intensity"`
}

type TelemetryConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`     // empty disables CSV output
	Every    int    `yaml:"every" toml:"every"` // frames between records
	Snapshot bool   `yaml:"snapshot" toml:"snapshot"`
}

type DerivedConfig struct {
	Steps int // fixed steps in Duration, 0 when unbounded
}

// Load reads the embedded defaults and overlays path when it is not empty.
// Files ending in .toml are parsed as TOML, anything else as YAML.
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
		if err := cfg.overlay(path, data); err != nil {
			return nil, err
		}
	}

	cfg.ApplySeed(cfg.Sim.Seed)
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) overlay(path string, data []byte) error {
	if isTOML(path) {
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) computeDerived() {
	c.Derived.Steps = 0
	if c.Sim.Dt > 0 && c.Sim.Duration > 0 {
		c.Derived.Steps = int(math.Round(float64(c.Sim.Duration) / float64(c.Sim.Dt)))
	}
}

// ApplySeed makes seed the run seed. Zero keeps the per-section seeds.
func (c *Config) ApplySeed(seed int64) {
	if seed == 0 {
		return
	}
	c.Sim.Seed = seed
	c.Clouds.Seed = seed
	c.Particles.Seed = uint32(seed)
}

// Finalize recomputes derived values after fields were changed in code, then validates.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// Validate checks every section. Errors wrap core.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Sim.Dt <= 0 {
		return fmt.Errorf("%w: sim dt must be positive, got %g", core.ErrInvalidConfig, c.Sim.Dt)
	}
	if c.Sim.Duration < 0 {
		return fmt.Errorf("%w: sim duration must not be negative, got %g", core.ErrInvalidConfig, c.Sim.Duration)
	}
	switch c.Sim.Backend {
	case BackendCPU, BackendOpenGL, BackendWebGPU:
	default:
		return fmt.Errorf("%w: unknown backend %q", core.ErrInvalidConfig, c.Sim.Backend)
	}
	if c.Telemetry.Every < 0 {
		return fmt.Errorf("%w: telemetry every must not be negative, got %d", core.ErrInvalidConfig, c.Telemetry.Every)
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("%w: view size %dx%d", core.ErrInvalidConfig, c.View.Width, c.View.Height)
	}
	if err := c.Clouds.Validate(); err != nil {
		return fmt.Errorf("clouds: %w", err)
	}
	if err := c.Particles.Validate(); err != nil {
		return fmt.Errorf("particles: %w", err)
	}
	return nil
}

// Light converts the light section for the renderers.
func (c *Config) Light() core.Light {
	l := c.View.Light
	return core.Light{
		Direction: l.Direction,
		Color:     l.Color,
		Intensity: l.Intensity,
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

// WriteTOML writes the configuration to a TOML file.
func (c *Config) WriteTOML(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
