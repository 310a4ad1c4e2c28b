package config

import "sort"

var Presets = map[string]*Config{
	"tiny": {
		Side: 64, Density: 0.2, TileSize: 8, Seed: 1, Mode: ModeCPU, Device: "soft",
		FPS: 30, Width: 640, Height: 640,
	},
	"small": {
		Side: 256, Density: 0.2, TileSize: 8, Seed: 1, Mode: ModeGPU, Device: "soft",
		FPS: 60, Width: 1024, Height: 1024,
	},
	"medium": {
		Side: 1024, Density: 0.2, TileSize: 8, Seed: 1, Mode: ModeGPU, Device: "soft",
		FPS: 60, Width: DefaultWidth, Height: DefaultHeight,
	},
	"large": {
		Side: 4096, Density: 0.2, TileSize: 16, Seed: 1, Mode: ModeGPU, Device: "opengl",
		FPS: 60, Width: DefaultWidth, Height: DefaultHeight,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
