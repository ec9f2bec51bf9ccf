package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/san-kum/tiltfluid/internal/dynamo"
	"github.com/san-kum/tiltfluid/internal/engine"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"gopkg.in/yaml.v3"
)

const (
	DefaultParticleCount     = 300
	DefaultWidth             = 20.0
	DefaultHeight            = 14.0
	DefaultRadius            = 0.25
	DefaultViscosity         = 0.01
	DefaultSurfaceTension    = 0.05
	DefaultInteractionRadius = 2.0
	DefaultGravityScale      = 1.0
	DefaultTouchForce        = 0.005
	DefaultTouchRadius       = 2.0
	DefaultJitter            = 1e-4
	DefaultFrameInterval     = time.Second / 60
	DefaultMaxFrameDelta     = 100 * time.Millisecond
)

// Config is fixed for the lifetime of a session. The loop keeps its own
// copy, so edits after Start have no effect.
type Config struct {
	ParticleCount     int               `yaml:"particle_count"`
	Container         ContainerConfig   `yaml:"container"`
	Particle          ParticleConfig    `yaml:"particle"`
	Viscosity         float64           `yaml:"viscosity"`
	SurfaceTension    float64           `yaml:"surface_tension"`
	InteractionRadius float64           `yaml:"interaction_radius"`
	GravityScale      float64           `yaml:"gravity_scale"`
	TouchForce        float64           `yaml:"touch_force"`
	TouchRadius       float64           `yaml:"touch_radius"`
	Jitter            float64           `yaml:"jitter"`
	Iterations        engine.Iterations `yaml:"iterations"`
	FrameInterval     time.Duration     `yaml:"frame_interval"`
	MaxFrameDelta     time.Duration     `yaml:"max_frame_delta"`
	Seed              int64             `yaml:"seed"`
	Kalman            KalmanConfig      `yaml:"kalman"`
}

type ContainerConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type ParticleConfig struct {
	Radius      float64 `yaml:"radius"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
	Density     float64 `yaml:"density"`
	AirFriction float64 `yaml:"air_friction"`
}

type KalmanConfig struct {
	R float64 `yaml:"r"`
	Q float64 `yaml:"q"`
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

func DefaultConfig() *Config {
	k := sensor.DefaultKalmanParams()
	return &Config{
		ParticleCount: DefaultParticleCount,
		Container:     ContainerConfig{Width: DefaultWidth, Height: DefaultHeight},
		Particle: ParticleConfig{
			Radius:      DefaultRadius,
			Restitution: 0.2,
			Friction:    0.05,
			Density:     1.0,
			AirFriction: 0.01,
		},
		Viscosity:         DefaultViscosity,
		SurfaceTension:    DefaultSurfaceTension,
		InteractionRadius: DefaultInteractionRadius,
		GravityScale:      DefaultGravityScale,
		TouchForce:        DefaultTouchForce,
		TouchRadius:       DefaultTouchRadius,
		Jitter:            DefaultJitter,
		Iterations:        engine.Iterations{Position: 6, Velocity: 4, Constraint: 2},
		FrameInterval:     DefaultFrameInterval,
		MaxFrameDelta:     DefaultMaxFrameDelta,
		Seed:              1,
		Kalman:            KalmanConfig{R: k.R, Q: k.Q, A: k.A, B: k.B, C: k.C},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.ParticleCount > 0, "particle_count must be positive"},
		{c.Particle.Radius > 0, "particle.radius must be positive"},
		{c.Particle.Density > 0, "particle.density must be positive"},
		{c.Container.Width > 2*c.Particle.Radius, "container.width must exceed a particle diameter"},
		{c.Container.Height > 2*c.Particle.Radius, "container.height must exceed a particle diameter"},
		{c.Viscosity >= 0 && c.Viscosity < 1, "viscosity must be in [0, 1)"},
		{c.Particle.AirFriction >= 0 && c.Particle.AirFriction < 1, "particle.air_friction must be in [0, 1)"},
		{c.InteractionRadius > 0, "interaction_radius must be positive"},
		{c.TouchRadius > 0, "touch_radius must be positive"},
		{c.Jitter >= 0, "jitter must not be negative"},
		{c.Iterations.Position >= 0 && c.Iterations.Velocity >= 0 && c.Iterations.Constraint >= 0, "iterations must not be negative"},
		{c.FrameInterval > 0, "frame_interval must be positive"},
		{c.MaxFrameDelta >= c.FrameInterval, "max_frame_delta must be at least frame_interval"},
		{c.Kalman.C != 0, "kalman.c must be non-zero"},
		{finite(c.GravityScale, c.SurfaceTension, c.TouchForce, c.Kalman.R, c.Kalman.Q, c.Kalman.A, c.Kalman.B), "coefficients must be finite"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", dynamo.ErrInvalidConfig, chk.what)
		}
	}
	return nil
}

func (c *Config) KalmanParams() sensor.KalmanParams {
	return sensor.KalmanParams{R: c.Kalman.R, Q: c.Kalman.Q, A: c.Kalman.A, B: c.Kalman.B, C: c.Kalman.C}
}

// ParticleDef is the engine body template for every particle.
func (c *Config) ParticleDef() engine.BodyDef {
	return engine.BodyDef{
		Radius:      c.Particle.Radius,
		Restitution: c.Particle.Restitution,
		Friction:    c.Particle.Friction,
		Density:     c.Particle.Density,
		AirFriction: c.Particle.AirFriction,
	}
}

// ParticleMass is what the engine assigns each particle body.
func (c *Config) ParticleMass() float64 {
	return c.Particle.Density * math.Pi * c.Particle.Radius * c.Particle.Radius
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
