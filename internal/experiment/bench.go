package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
	"github.com/san-kum/lifesim/internal/storage"
)

// ModeResult holds one mode's share of a benchmark.
type ModeResult struct {
	Mode    life.Mode
	Metrics map[string]float64
}

type BenchResult struct {
	Modes   []ModeResult
	Timings []storage.Timing
}

// Bench times the same simulation under each mode in turn, switching modes
// in place so every mode continues from where the previous one stopped.
func Bench(ctx context.Context, sim *life.Simulation, generations int, modes ...life.Mode) (*BenchResult, error) {
	if len(modes) == 0 {
		modes = []life.Mode{life.Accelerator, life.CPU}
	}

	out := &BenchResult{}
	for _, mode := range modes {
		if err := sim.SetMode(ctx, mode); err != nil {
			return out, err
		}

		exp := New(Config{Generations: generations, Sync: true})
		exp.Setup(sim, metrics.Default())
		res, err := exp.Run(ctx)
		if err != nil {
			return out, fmt.Errorf("bench %s: %w", mode, err)
		}
		out.Modes = append(out.Modes, ModeResult{Mode: mode, Metrics: res.Metrics})
		out.Timings = append(out.Timings, res.Timings...)
	}
	return out, nil
}

// Speedup is the CPU mean step time divided by the accelerator mean step
// time, or zero when either is missing.
func (b *BenchResult) Speedup() float64 {
	var gpu, cpu float64
	for _, m := range b.Modes {
		switch m.Mode {
		case life.Accelerator:
			gpu = m.Metrics["step_ms"]
		case life.CPU:
			cpu = m.Metrics["step_ms"]
		}
	}
	if gpu == 0 || cpu == 0 {
		return 0
	}
	return cpu / gpu
}

// Flatten merges per-mode metrics into one map keyed "<mode>_<metric>".
func (b *BenchResult) Flatten() map[string]float64 {
	out := make(map[string]float64)
	for _, m := range b.Modes {
		for k, v := range m.Metrics {
			out[m.Mode.String()+"_"+k] = v
		}
	}
	if s := b.Speedup(); s > 0 {
		out["speedup"] = s
	}
	return out
}
