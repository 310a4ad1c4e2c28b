package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
	"github.com/san-kum/lifesim/internal/storage"
)

type Config struct {
	Generations int
	// SampleEvery reads the grid back every n generations to record its
	// population. Zero never reads back.
	SampleEvery int
	// Sync waits for the device after each generation so timings include
	// device execution rather than just submission.
	Sync bool
	// Target, when set, receives every generation.
	Target gpu.Target
}

type Observer interface {
	OnGeneration(s metrics.Sample)
}

type Result struct {
	Generations int
	Timings     []storage.Timing
	Metrics     map[string]float64
	Elapsed     time.Duration
}

type Experiment struct {
	cfg       Config
	sim       *life.Simulation
	metrics   []metrics.Metric
	observers []Observer
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(sim *life.Simulation, ms []metrics.Metric) {
	e.sim = sim
	e.metrics = ms
}

func (e *Experiment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run advances the simulation headlessly. It stops early, returning what it
// has, when ctx is cancelled.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.sim == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be positive, got %d", e.cfg.Generations)
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	result := &Result{
		Timings: make([]storage.Timing, 0, e.cfg.Generations),
		Metrics: make(map[string]float64),
	}
	start := time.Now()

	for i := 0; i < e.cfg.Generations; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		sample, err := e.step(ctx)
		if err != nil {
			return result, err
		}

		metrics.Observe(e.metrics, sample)
		for _, o := range e.observers {
			o.OnGeneration(sample)
		}
		result.Timings = append(result.Timings, storage.Timing{
			Generation: sample.Generation,
			Mode:       e.sim.Mode().String(),
			Step:       sample.Step,
			Population: sample.Population,
		})
		result.Generations++
	}

	if err := e.sim.Device().WaitIdle(ctx); err != nil {
		return result, err
	}
	result.Elapsed = time.Since(start)
	result.Metrics = metrics.Values(e.metrics)
	return result, nil
}

func (e *Experiment) step(ctx context.Context) (metrics.Sample, error) {
	start := time.Now()
	if err := e.sim.Frame(e.cfg.Target); err != nil {
		return metrics.Sample{}, err
	}
	if e.cfg.Sync {
		if err := e.sim.Device().WaitIdle(ctx); err != nil {
			return metrics.Sample{}, err
		}
	}
	step := e.sim.LastStep()
	if e.cfg.Sync {
		step = time.Since(start)
	}

	sample := metrics.Sample{
		Generation: e.sim.Generation(),
		Step:       step,
		Cells:      e.sim.Cells(),
		Population: -1,
	}
	if e.cfg.SampleEvery > 0 && sample.Generation%uint64(e.cfg.SampleEvery) == 0 {
		g, err := e.sim.Snapshot(ctx)
		if err != nil {
			return sample, err
		}
		sample.Population = g.Population()
	}
	return sample, nil
}

func (e *Experiment) Simulation() *life.Simulation {
	return e.sim
}
