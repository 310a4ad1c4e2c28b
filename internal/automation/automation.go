package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lifesim/internal/compute"
	"github.com/san-kum/lifesim/internal/config"
	"github.com/san-kum/lifesim/internal/experiment"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Zero values fall back to the
// configuration defaults.
type ScenarioStep struct {
	Pattern     string  `yaml:"pattern"`
	Side        int     `yaml:"side"`
	Density     float64 `yaml:"density"`
	Seed        int64   `yaml:"seed"`
	TileSize    int     `yaml:"tile_size"`
	Mode        string  `yaml:"mode"`
	Generations int     `yaml:"generations"`
	SampleEvery int     `yaml:"sample_every"`
	SaveAs      string  `yaml:"save_as"`
}

// ScenarioResult pairs a step with what it produced.
type ScenarioResult struct {
	Step   ScenarioStep
	Result *experiment.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func (s ScenarioStep) withDefaults() ScenarioStep {
	if s.Pattern == "" {
		s.Pattern = "random"
	}
	if s.Side == 0 {
		s.Side = config.DefaultSide
	}
	if s.Density == 0 {
		s.Density = config.DefaultDensity
	}
	if s.Seed == 0 {
		s.Seed = config.DefaultSeed
	}
	if s.TileSize == 0 {
		s.TileSize = config.DefaultTileSize
	}
	if s.Mode == "" {
		s.Mode = config.ModeGPU
	}
	return s
}

// RunScenario executes all steps in a scenario on dev
func RunScenario(ctx context.Context, dev gpu.Device, scenario *Scenario, registry *experiment.Registry) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		step = step.withDefaults()
		fmt.Printf("Running step %d/%d: %s %dx%d (%s)\n", i+1, len(scenario.Steps), step.Pattern, step.Side, step.Side, step.Mode)

		initial, err := registry.GetPattern(step.Pattern, experiment.Seed{
			Side:    step.Side,
			Density: step.Density,
			Seed:    step.Seed,
		})
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		mode, err := life.ParseMode(step.Mode)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := runOnce(ctx, dev, life.Options{
			TileSize: step.TileSize,
			Mode:     mode,
			Initial:  &initial,
		}, experiment.Config{
			Generations: step.Generations,
			SampleEvery: step.SampleEvery,
		})
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, ScenarioResult{Step: step, Result: res})
	}

	return results, nil
}

func runOnce(ctx context.Context, dev gpu.Device, opts life.Options, cfg experiment.Config) (*experiment.Result, error) {
	sim, err := life.New(dev, opts)
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	exp := experiment.New(cfg)
	exp.Setup(sim, metrics.Default())
	return exp.Run(ctx)
}

// TileSweep times the accelerator kernel across workgroup tile sizes on
// the same starting grid.
type TileSweep struct {
	Side        int
	Density     float64
	Seed        int64
	Tiles       []int
	Generations int
}

// SweepResult holds one tile size's timings
type SweepResult struct {
	TileSize   int
	Workgroups uint32
	MeanStep   time.Duration
	MaxStep    time.Duration
}

// RunSweep executes a tile size sweep
func RunSweep(ctx context.Context, dev gpu.Device, sweep *TileSweep) ([]SweepResult, error) {
	if len(sweep.Tiles) == 0 {
		return nil, fmt.Errorf("sweep needs at least one tile size")
	}
	results := make([]SweepResult, 0, len(sweep.Tiles))
	initial := grid.Random(sweep.Side, sweep.Density, grid.NewRNG(sweep.Seed))

	for i, tile := range sweep.Tiles {
		if tile <= 0 {
			return results, fmt.Errorf("sweep %d: %w: %d", i+1, config.ErrTile, tile)
		}
		res, err := runOnce(ctx, dev, life.Options{
			TileSize: tile,
			Mode:     life.Accelerator,
			Initial:  &initial,
		}, experiment.Config{
			Generations: sweep.Generations,
			Sync:        true,
		})
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{
			TileSize:   tile,
			Workgroups: compute.Workgroups(sweep.Side, tile),
			MeanStep:   millis(res.Metrics["step_ms"]),
			MaxStep:    millis(res.Metrics["max_step_ms"]),
		})

		fmt.Printf("Sweep %d/%d: tile=%d\n", i+1, len(sweep.Tiles), tile)
	}

	return results, nil
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// MonteCarloConfig defines repeated random seedings at one density
type MonteCarloConfig struct {
	Side        int
	Density     float64
	NumTrials   int
	Generations int
	TileSize    int
	Mode        life.Mode
	Seed        int64
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID           int
	Seed              int64
	InitialPopulation int
	FinalPopulation   int
	Extinct           bool
}

// RunMonteCarlo seeds NumTrials random grids and records whether each one
// still has live cells after the configured number of generations.
func RunMonteCarlo(ctx context.Context, dev gpu.Device, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := grid.NewRNG(seed)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialSeed := rng.Int64()
		initial := grid.Random(cfg.Side, cfg.Density, grid.NewRNG(trialSeed))

		res, err := runOnce(ctx, dev, life.Options{
			TileSize: cfg.TileSize,
			Mode:     cfg.Mode,
			Initial:  &initial,
		}, experiment.Config{
			Generations: cfg.Generations,
			SampleEvery: cfg.Generations,
		})
		if err != nil {
			return nil, err
		}

		final := int(res.Metrics["population"])
		results = append(results, MonteCarloResult{
			TrialID:           trial,
			Seed:              trialSeed,
			InitialPopulation: initial.Population(),
			FinalPopulation:   final,
			Extinct:           final == 0,
		})

		if (trial+1)%10 == 0 {
			fmt.Printf("Monte Carlo: %d/%d trials complete\n", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts surviving and extinct trials
func MonteCarloStats(results []MonteCarloResult) (surviving int, extinct int) {
	for _, r := range results {
		if r.Extinct {
			extinct++
		} else {
			surviving++
		}
	}
	return
}
