package particles

import (
	"fmt"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

const (
	DefaultCapacity      = 64
	DefaultSpawnInterval = 0.2
)

// Config holds the emitter tuning. Capacity and SpawnInterval are fixed for the life of
// a Simulator; the remaining fields feed the per-frame uniforms and may change between steps.
type Config struct {
	Capacity      int     `yaml:"capacity" toml:"capacity"`
	SpawnInterval float32 `yaml:"spawn_interval" toml:"spawn_interval"` // seconds between spawns
	Seed          uint32  `yaml:"seed" toml:"seed"`

	TTLRange   core.Range `yaml:"ttl_range" toml:"ttl_range"`
	SpeedRange core.Range `yaml:"speed_range" toml:"speed_range"`
	SpinRange  core.Range `yaml:"spin_range" toml:"spin_range"`
	Spread     float32    `yaml:"spread" toml:"spread"` // jitter added to the unit emitter direction

	StartSize  float32    `yaml:"start_size" toml:"start_size"`
	SizeGrowth float32    `yaml:"size_growth" toml:"size_growth"`
	StartColor [4]float32 `yaml:"start_color" toml:"start_color"`

	// Workers bounds the CPU kernel pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" toml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Capacity:      DefaultCapacity,
		SpawnInterval: DefaultSpawnInterval,
		Seed:          7,
		TTLRange:      core.R(2, 4),
		SpeedRange:    core.R(0.8, 1.6),
		SpinRange:     core.R(-1.5, 1.5),
		Spread:        0.35,
		StartSize:     0.15,
		SizeGrowth:    0.6,
		StartColor:    [4]float32{0.75, 0.75, 0.78, 0.6},
	}
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: particle capacity must be positive, got %d", core.ErrInvalidConfig, c.Capacity)
	}
	if c.SpawnInterval <= 0 {
		return fmt.Errorf("%w: particle spawn interval must be positive, got %g", core.ErrInvalidConfig, c.SpawnInterval)
	}
	if c.TTLRange.Min <= 0 {
		return fmt.Errorf("%w: particle ttl must be positive, got %g", core.ErrInvalidConfig, c.TTLRange.Min)
	}
	if c.Spread < 0 {
		return fmt.Errorf("%w: particle spread must not be negative, got %g", core.ErrInvalidConfig, c.Spread)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: particle workers must not be negative, got %d", core.ErrInvalidConfig, c.Workers)
	}
	for name, r := range map[string]core.Range{"ttl": c.TTLRange, "speed": c.SpeedRange, "spin": c.SpinRange} {
		if err := r.Validate(name); err != nil {
			return err
		}
	}
	return nil
}
