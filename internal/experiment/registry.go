package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/lifesim/internal/grid"
)

// Seed describes how a starting grid is built.
type Seed struct {
	Side    int
	Density float64
	Seed    int64
}

type Registry struct {
	patterns map[string]func(Seed) (grid.Grid, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		patterns: make(map[string]func(Seed) (grid.Grid, error)),
	}

	r.patterns["random"] = func(s Seed) (grid.Grid, error) {
		if s.Side <= 0 {
			return grid.Grid{}, fmt.Errorf("%w: %d", grid.ErrSide, s.Side)
		}
		return grid.Random(s.Side, s.Density, grid.NewRNG(s.Seed)), nil
	}
	for name, cells := range shapes {
		r.patterns[name] = placeCentered(cells)
	}

	return r
}

func (r *Registry) GetPattern(name string, s Seed) (grid.Grid, error) {
	fn, ok := r.patterns[name]
	if !ok {
		return grid.Grid{}, fmt.Errorf("unknown pattern: %s", name)
	}
	return fn(s)
}

func (r *Registry) ListPatterns() []string {
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// shapes lists live cells as (x, y) offsets from the top-left corner.
var shapes = map[string][][2]int{
	"block":      {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	"blinker":    {{0, 0}, {1, 0}, {2, 0}},
	"glider":     {{1, 0}, {2, 1}, {0, 2}, {1, 2}, {2, 2}},
	"rpentomino": {{1, 0}, {2, 0}, {0, 1}, {1, 1}, {1, 2}},
	"acorn":      {{1, 0}, {3, 1}, {0, 2}, {1, 2}, {4, 2}, {5, 2}, {6, 2}},
	"gosper": {
		{24, 0}, {22, 1}, {24, 1}, {12, 2}, {13, 2}, {20, 2}, {21, 2}, {34, 2}, {35, 2},
		{11, 3}, {15, 3}, {20, 3}, {21, 3}, {34, 3}, {35, 3},
		{0, 4}, {1, 4}, {10, 4}, {16, 4}, {20, 4}, {21, 4},
		{0, 5}, {1, 5}, {10, 5}, {14, 5}, {16, 5}, {17, 5}, {22, 5}, {24, 5},
		{10, 6}, {16, 6}, {24, 6}, {11, 7}, {15, 7}, {12, 8}, {13, 8},
	},
}

func placeCentered(cells [][2]int) func(Seed) (grid.Grid, error) {
	w, h := 0, 0
	for _, c := range cells {
		w = max(w, c[0]+1)
		h = max(h, c[1]+1)
	}
	return func(s Seed) (grid.Grid, error) {
		if s.Side < w || s.Side < h {
			return grid.Grid{}, fmt.Errorf("%w: pattern needs %dx%d, side is %d", grid.ErrSide, w, h, s.Side)
		}
		g := grid.New(s.Side)
		ox, oy := (s.Side-w)/2, (s.Side-h)/2
		for _, c := range cells {
			g.Set(ox+c[0], oy+c[1], grid.Alive)
		}
		return g, nil
	}
}
