package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPlant        = "linear"
	DefaultTrajectories = 50
	DefaultLength       = 20
	DefaultDt           = 0.05
	DefaultIntegrator   = "rk4"
	DefaultInitSpread   = 1.0
	DefaultExcitation   = 1.0
	DefaultHoldout      = 5
	DefaultHorizon      = 10
)

// Config describes one identification run: which plant generates the data,
// how much of it, and how the model is configured.
type Config struct {
	Plant        string             `yaml:"plant"`
	PlantParams  map[string]float64 `yaml:"plant_params,omitempty"`
	Integrator   string             `yaml:"integrator"`
	Trajectories int                `yaml:"trajectories"`
	Length       int                `yaml:"length"`
	Dt           float64            `yaml:"dt"`
	Seed         int64              `yaml:"seed"`
	Excitation   float64            `yaml:"excitation"`
	InitSpread   float64            `yaml:"init_spread"`
	Holdout      int                `yaml:"holdout"`
	Horizon      int                `yaml:"horizon"`
	Model        Options            `yaml:"model"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:        DefaultPlant,
		Trajectories: DefaultTrajectories,
		Length:       DefaultLength,
		Integrator:   DefaultIntegrator,
		Dt:           DefaultDt,
		Excitation:   DefaultExcitation,
		InitSpread:   DefaultInitSpread,
		Holdout:      DefaultHoldout,
		Horizon:      DefaultHorizon,
		Model:        DefaultOptions(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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
	if c.Trajectories < 1 {
		return fmt.Errorf("%w: trajectories must be positive, got %d", ErrInvalidConfig, c.Trajectories)
	}
	if c.Length < 2 {
		return fmt.Errorf("%w: length must be at least 2, got %d", ErrInvalidConfig, c.Length)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.Holdout < 0 || c.Holdout >= c.Trajectories {
		return fmt.Errorf("%w: holdout must be in [0, %d), got %d", ErrInvalidConfig, c.Trajectories, c.Holdout)
	}
	if c.Horizon < 1 || c.Horizon >= c.Length {
		return fmt.Errorf("%w: horizon must be in [1, %d), got %d", ErrInvalidConfig, c.Length, c.Horizon)
	}
	if c.Excitation < 0 || c.InitSpread < 0 {
		return fmt.Errorf("%w: excitation and init_spread must be non-negative", ErrInvalidConfig)
	}
	return c.Model.Validate()
}
