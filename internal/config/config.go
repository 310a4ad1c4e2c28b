package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lifesim/internal/gpu"
)

const (
	DefaultSide     = 4096
	DefaultDensity  = 0.2
	DefaultTileSize = 8
	DefaultSeed     = 1
	DefaultFPS      = 60
	DefaultWidth    = 1280
	DefaultHeight   = 720
)

const (
	ModeGPU = "gpu"
	ModeCPU = "cpu"
)

var (
	ErrSide    = errors.New("config: side must be positive")
	ErrDensity = errors.New("config: density must be within [0, 1]")
	ErrTile    = errors.New("config: tile size must be positive")
	ErrMode    = errors.New("config: unknown mode")
	ErrDevice  = errors.New("config: unknown device")
	ErrWindow  = errors.New("config: window dimensions must be positive")
)

type Config struct {
	Side     int     `yaml:"side"`
	Density  float64 `yaml:"density"`
	TileSize int     `yaml:"tile_size"`
	Seed     int64   `yaml:"seed"`
	Mode     string  `yaml:"mode"`
	Device   string  `yaml:"device"`
	Workers  int     `yaml:"workers"`
	FPS      int     `yaml:"fps"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Side:     DefaultSide,
		Density:  DefaultDensity,
		TileSize: DefaultTileSize,
		Seed:     DefaultSeed,
		Mode:     ModeGPU,
		Device:   "soft",
		FPS:      DefaultFPS,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
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

// Validate checks the settings fixed at start. A side that is not a multiple
// of the tile size is fine.
func (c *Config) Validate() error {
	if c.Side <= 0 {
		return fmt.Errorf("%w: %d", ErrSide, c.Side)
	}
	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("%w: %g", ErrDensity, c.Density)
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("%w: %d", ErrTile, c.TileSize)
	}
	if c.Mode != ModeGPU && c.Mode != ModeCPU {
		return fmt.Errorf("%w: %q", ErrMode, c.Mode)
	}
	if !knownDevice(c.Device) {
		return fmt.Errorf("%w: %q (available: %v)", ErrDevice, c.Device, gpu.Names())
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrWindow, c.Width, c.Height)
	}
	return nil
}

func knownDevice(name string) bool {
	for _, n := range gpu.Names() {
		if n == name {
			return true
		}
	}
	return false
}
