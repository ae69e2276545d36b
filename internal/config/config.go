package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bulbfield/internal/fractal"
)

const (
	DefaultResolution        = fractal.DefaultResolution
	DefaultScale             = fractal.DefaultScale
	DefaultMaxIterations     = fractal.DefaultMaxIterations
	DefaultDistanceThreshold = fractal.DefaultDistanceThreshold
	DefaultPower             = fractal.DefaultPower
	DefaultBlend             = fractal.DefaultBlend
	DefaultKeyMode           = string(fractal.KeyCoordinate)
)

type Config struct {
	Resolution        int     `yaml:"resolution" json:"resolution"`
	Scale             float64 `yaml:"scale" json:"scale"`
	MaxIterations     int     `yaml:"max_iterations" json:"max_iterations"`
	DistanceThreshold float64 `yaml:"distance_threshold" json:"distance_threshold"`
	Power             int     `yaml:"power" json:"power"`
	Blend             float64 `yaml:"blend" json:"blend"`
	KeyMode           string  `yaml:"key_mode" json:"key_mode"`
	Seed              int64   `yaml:"seed" json:"seed"`
	Workers           int     `yaml:"workers" json:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Resolution:        DefaultResolution,
		Scale:             DefaultScale,
		MaxIterations:     DefaultMaxIterations,
		DistanceThreshold: DefaultDistanceThreshold,
		Power:             DefaultPower,
		Blend:             DefaultBlend,
		KeyMode:           DefaultKeyMode,
	}
}

func Load(path string) (*Config, error) {
	return Overlay(path, DefaultConfig())
}

// Overlay reads path on top of a copy of base: fields present in the file
// win, absent fields keep the base value.
func Overlay(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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

// Params converts the file representation into validated generator
// parameters.
func (c *Config) Params() (fractal.Params, error) {
	mode, err := fractal.ParseKeyMode(c.KeyMode)
	if err != nil {
		return fractal.Params{}, err
	}
	p := fractal.Params{
		Resolution:        c.Resolution,
		Scale:             c.Scale,
		MaxIterations:     c.MaxIterations,
		DistanceThreshold: c.DistanceThreshold,
		Power:             c.Power,
		Blend:             c.Blend,
		KeyMode:           mode,
	}
	if err := p.Validate(); err != nil {
		return fractal.Params{}, err
	}
	return p, nil
}

// Clone returns an independent copy, so presets are never mutated.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
