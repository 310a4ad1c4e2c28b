package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Side != 4096 {
		t.Errorf("expected side 4096, got %d", cfg.Side)
	}
	if cfg.Density != 0.2 {
		t.Errorf("expected density 0.2, got %f", cfg.Density)
	}
	if cfg.TileSize != 8 {
		t.Errorf("expected tile 8, got %d", cfg.TileSize)
	}
	if cfg.Mode != ModeGPU {
		t.Errorf("expected mode gpu, got %s", cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"ok", func(c *Config) {}, nil},
		{"side not multiple of tile", func(c *Config) { c.Side = 1000; c.TileSize = 16 }, nil},
		{"zero side", func(c *Config) { c.Side = 0 }, ErrSide},
		{"density above one", func(c *Config) { c.Density = 1.5 }, ErrDensity},
		{"negative density", func(c *Config) { c.Density = -0.1 }, ErrDensity},
		{"zero tile", func(c *Config) { c.TileSize = 0 }, ErrTile},
		{"bad mode", func(c *Config) { c.Mode = "tpu" }, ErrMode},
		{"bad device", func(c *Config) { c.Device = "vulkan" }, ErrDevice},
		{"bad window", func(c *Config) { c.Width = 0 }, ErrWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.yaml")
	cfg := DefaultConfig()
	cfg.Side = 333
	cfg.Mode = ModeCPU
	cfg.Seed = 42

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch: %+v vs %+v", got, cfg)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.yaml")
	if err := os.WriteFile(path, []byte("side: 128\nmode: cpu\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Side != 128 || cfg.Mode != ModeCPU {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Density != DefaultDensity || cfg.TileSize != DefaultTileSize {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.yaml")
	if err := os.WriteFile(path, []byte("density: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrDensity) {
		t.Errorf("expected ErrDensity, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Side != 256 {
		t.Errorf("expected side 256, got %d", cfg.Side)
	}

	cfg.Side = 1
	if Presets["small"].Side != 256 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
