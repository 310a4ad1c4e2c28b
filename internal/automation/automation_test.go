package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/lifesim/internal/config"
	"github.com/san-kum/lifesim/internal/experiment"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/life"
)

const scenarioYAML = `name: smoke
description: still life then oscillator
steps:
  - pattern: block
    side: 8
    generations: 4
    sample_every: 2
    save_as: block
  - pattern: blinker
    side: 9
    mode: cpu
    tile_size: 4
    generations: 3
    sample_every: 1
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[0].SaveAs != "block" || sc.Steps[1].TileSize != 4 {
		t.Errorf("fields not decoded: %+v", sc.Steps)
	}
}

func TestLoadScenarioMissing(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStepDefaults(t *testing.T) {
	s := ScenarioStep{}.withDefaults()
	if s.Pattern != "random" || s.Side != config.DefaultSide || s.TileSize != config.DefaultTileSize || s.Mode != config.ModeGPU {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestRunScenario(t *testing.T) {
	dev := gpu.NewSoft(2)
	defer dev.Close()

	sc := &Scenario{Steps: []ScenarioStep{
		{Pattern: "block", Side: 8, Generations: 4, SampleEvery: 2},
		{Pattern: "blinker", Side: 9, Mode: "cpu", TileSize: 4, Generations: 3, SampleEvery: 1},
	}}

	results, err := RunScenario(context.Background(), dev, sc, experiment.NewRegistry())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, want := range []int{4, 3} {
		r := results[i]
		if r.Result.Generations != want {
			t.Errorf("step %d: generations %d, want %d", i, r.Result.Generations, want)
		}
	}
	for i, want := range []float64{4, 3} {
		if got := results[i].Result.Metrics["population"]; got != want {
			t.Errorf("step %d: population %v, want %v", i, got, want)
		}
	}
	if results[1].Result.Timings[0].Mode != "cpu" {
		t.Errorf("blinker step ran in %s", results[1].Result.Timings[0].Mode)
	}
}

func TestRunScenarioBadStep(t *testing.T) {
	dev := gpu.NewSoft(1)
	defer dev.Close()

	sc := &Scenario{Steps: []ScenarioStep{{Pattern: "nope", Side: 8, Generations: 1}}}
	results, err := RunScenario(context.Background(), dev, sc, experiment.NewRegistry())
	if err == nil {
		t.Fatal("expected unknown pattern error")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunSweep(t *testing.T) {
	dev := gpu.NewSoft(2)
	defer dev.Close()

	res, err := RunSweep(context.Background(), dev, &TileSweep{
		Side: 20, Density: 0.3, Seed: 2, Tiles: []int{4, 8, 16}, Generations: 3,
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	for i, want := range []uint32{5, 3, 2} {
		if res[i].Workgroups != want {
			t.Errorf("tile %d: workgroups %d, want %d", res[i].TileSize, res[i].Workgroups, want)
		}
		if res[i].MaxStep < res[i].MeanStep {
			t.Errorf("tile %d: max %v below mean %v", res[i].TileSize, res[i].MaxStep, res[i].MeanStep)
		}
	}
}

func TestRunSweepRejectsBadTile(t *testing.T) {
	dev := gpu.NewSoft(1)
	defer dev.Close()

	_, err := RunSweep(context.Background(), dev, &TileSweep{Side: 8, Tiles: []int{0}, Generations: 1})
	if !errors.Is(err, config.ErrTile) {
		t.Errorf("expected ErrTile, got %v", err)
	}
	if _, err := RunSweep(context.Background(), dev, &TileSweep{Side: 8, Generations: 1}); err == nil {
		t.Error("expected error for empty sweep")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	dev := gpu.NewSoft(2)
	defer dev.Close()

	cfg := &MonteCarloConfig{Side: 12, Density: 0, NumTrials: 3, Generations: 2, Mode: life.Accelerator, Seed: 9}
	res, err := RunMonteCarlo(context.Background(), dev, cfg)
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(res))
	}
	surviving, extinct := MonteCarloStats(res)
	if surviving != 0 || extinct != 3 {
		t.Errorf("empty grids: surviving=%d extinct=%d", surviving, extinct)
	}

	again, err := RunMonteCarlo(context.Background(), dev, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range res {
		if res[i].Seed != again[i].Seed {
			t.Errorf("trial %d: seed %d then %d", i, res[i].Seed, again[i].Seed)
		}
	}
}

func TestMonteCarloStats(t *testing.T) {
	s, e := MonteCarloStats([]MonteCarloResult{{Extinct: true}, {}, {}})
	if s != 2 || e != 1 {
		t.Errorf("got surviving=%d extinct=%d", s, e)
	}
}
