package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/tiltfluid/internal/dynamo"
	"github.com/san-kum/tiltfluid/internal/engine"
)

var Presets = map[string]func(*Config){
	"calm": func(c *Config) {},
	"water": func(c *Config) {
		c.Viscosity = 0.004
		c.SurfaceTension = 0.02
		c.Particle.Restitution = 0.35
		c.Particle.Friction = 0.01
	},
	"honey": func(c *Config) {
		c.Viscosity = 0.08
		c.SurfaceTension = 0.12
		c.Particle.Restitution = 0.05
		c.Particle.Friction = 0.3
		c.Particle.AirFriction = 0.04
	},
	"mercury": func(c *Config) {
		c.ParticleCount = 150
		c.SurfaceTension = 0.3
		c.Particle.Density = 4
		c.Particle.Radius = 0.3
	},
	"swarm": func(c *Config) {
		c.ParticleCount = 1200
		c.Particle.Radius = 0.15
		c.InteractionRadius = 1.2
		c.Iterations = engine.Iterations{Position: 4, Velocity: 3, Constraint: 1}
	},
	"sand": func(c *Config) {
		c.Viscosity = 0.02
		c.SurfaceTension = 0
		c.Jitter = 0
		c.Particle.Friction = 0.8
		c.Particle.Restitution = 0
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// Resolve picks the session configuration: a file wins over a preset, and
// neither means the defaults.
func Resolve(preset, path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if preset == "" {
		return DefaultConfig(), nil
	}
	cfg := GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q (have %s)", dynamo.ErrUnknownPreset, preset, strings.Join(ListPresets(), ", "))
	}
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
