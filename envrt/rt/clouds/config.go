package clouds

import (
	"fmt"

	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/mesh"
)

// Mesh noise kinds.
const (
	NoiseUniform = "uniform"
	NoiseSimplex = "simplex"
	NoiseNone    = "none"
)

const (
	DefaultPoolSize            = 20
	DefaultFadeDuration        = 4.0
	DefaultVisibilityThreshold = 0.01
	DefaultRespawnRadius       = 30.0
	DefaultMeshLevel           = 2
)

// meshSeedSalt separates the mesh noise stream from the spawn stream of the same seed.
const meshSeedSalt = 0x5eed

// Config holds the cloud layer tuning. Every randomized field of a cloud is drawn
// from one of the ranges below at spawn time.
type Config struct {
	PoolSize int   `yaml:"pool_size" toml:"pool_size"`
	Seed     int64 `yaml:"seed" toml:"seed"`

	MeshLevel   int        `yaml:"mesh_level" toml:"mesh_level"`
	MeshNoise   string     `yaml:"mesh_noise" toml:"mesh_noise"`
	RadiusRange core.Range `yaml:"radius_range" toml:"radius_range"`

	FadeDuration        float32 `yaml:"fade_duration" toml:"fade_duration"`               // seconds per fade ramp
	VisibilityThreshold float32 `yaml:"visibility_threshold" toml:"visibility_threshold"` // alpha at or below is not drawn
	RespawnRadius       float32 `yaml:"respawn_radius" toml:"respawn_radius"`             // planar meters from origin

	LifetimeRange      core.Range `yaml:"lifetime_range" toml:"lifetime_range"`
	SpeedRange         core.Range `yaml:"speed_range" toml:"speed_range"`
	SpawnX             core.Range `yaml:"spawn_x" toml:"spawn_x"`
	SpawnY             core.Range `yaml:"spawn_y" toml:"spawn_y"`
	SpawnZ             core.Range `yaml:"spawn_z" toml:"spawn_z"`
	ScaleX             core.Range `yaml:"scale_x" toml:"scale_x"`
	ScaleY             core.Range `yaml:"scale_y" toml:"scale_y"`
	ScaleZ             core.Range `yaml:"scale_z" toml:"scale_z"`
	RotationSpeedRange core.Range `yaml:"rotation_speed_range" toml:"rotation_speed_range"`
	FloatSpeedRange    core.Range `yaml:"float_speed_range" toml:"float_speed_range"`
	FloatAmountRange   core.Range `yaml:"float_amount_range" toml:"float_amount_range"`
}

func DefaultConfig() Config {
	return Config{
		PoolSize:            DefaultPoolSize,
		Seed:                1,
		MeshLevel:           DefaultMeshLevel,
		MeshNoise:           NoiseUniform,
		RadiusRange:         mesh.DefaultRadiusRange,
		FadeDuration:        DefaultFadeDuration,
		VisibilityThreshold: DefaultVisibilityThreshold,
		RespawnRadius:       DefaultRespawnRadius,
		LifetimeRange:       core.R(25, 35),
		SpeedRange:          core.R(0.15, 0.4),
		SpawnX:              core.R(-20, 20),
		SpawnY:              core.R(1.5, 5.0),
		SpawnZ:              core.R(-20, 20),
		ScaleX:              core.R(1.8, 2.8),
		ScaleY:              core.R(0.7, 1.1),
		ScaleZ:              core.R(1.5, 2.5),
		RotationSpeedRange:  core.R(-0.03, 0.03),
		FloatSpeedRange:     core.R(0.5, 1.5),
		FloatAmountRange:    core.R(0.05, 0.15),
	}
}

func (c Config) Validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: cloud pool size must be positive, got %d", core.ErrInvalidConfig, c.PoolSize)
	}
	if c.FadeDuration <= 0 {
		return fmt.Errorf("%w: cloud fade duration must be positive, got %g", core.ErrInvalidConfig, c.FadeDuration)
	}
	if c.RespawnRadius <= 0 {
		return fmt.Errorf("%w: cloud respawn radius must be positive, got %g", core.ErrInvalidConfig, c.RespawnRadius)
	}
	if c.LifetimeRange.Min <= 0 {
		return fmt.Errorf("%w: cloud lifetime must be positive, got %g", core.ErrInvalidConfig, c.LifetimeRange.Min)
	}
	if c.MeshLevel < 0 {
		return fmt.Errorf("%w: cloud mesh level must not be negative, got %d", core.ErrInvalidConfig, c.MeshLevel)
	}
	switch c.MeshNoise {
	case NoiseUniform, NoiseSimplex, NoiseNone, "":
	default:
		return fmt.Errorf("%w: unknown cloud mesh noise %q", core.ErrInvalidConfig, c.MeshNoise)
	}
	ranges := []struct {
		name string
		r    core.Range
	}{
		{"radius", c.RadiusRange},
		{"lifetime", c.LifetimeRange},
		{"speed", c.SpeedRange},
		{"spawn_x", c.SpawnX},
		{"spawn_y", c.SpawnY},
		{"spawn_z", c.SpawnZ},
		{"scale_x", c.ScaleX},
		{"scale_y", c.ScaleY},
		{"scale_z", c.ScaleZ},
		{"rotation_speed", c.RotationSpeedRange},
		{"float_speed", c.FloatSpeedRange},
		{"float_amount", c.FloatAmountRange},
	}
	for _, r := range ranges {
		if err := r.r.Validate(r.name); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) meshSeed() int64 { return c.Seed ^ meshSeedSalt }

func (c Config) noise() mesh.Noise {
	switch c.MeshNoise {
	case NoiseNone:
		return nil
	case NoiseSimplex:
		return mesh.NewSimplexNoise(c.meshSeed(), c.RadiusRange, 0)
	default:
		return mesh.NewUniformNoise(c.meshSeed(), c.RadiusRange)
	}
}
