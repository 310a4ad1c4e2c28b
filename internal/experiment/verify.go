package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/lifesim/internal/compute"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
	"github.com/san-kum/lifesim/internal/life"
)

// Mismatch is the first generation on which the kernels disagreed.
type Mismatch struct {
	Generation uint64
	Cells      []int
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("kernels disagree at generation %d on %d cells", m.Generation, len(m.Cells))
}

// Verify steps start on the accelerator and on the CPU kernel side by side
// and compares them after every generation.
func Verify(ctx context.Context, dev gpu.Device, start grid.Grid, tile, workers, generations int) error {
	sim, err := life.New(dev, life.Options{Initial: &start, TileSize: tile, Workers: workers, Mode: life.Accelerator})
	if err != nil {
		return err
	}
	defer sim.Close()

	cpu := compute.NewCPU(workers)
	want := start.Clone()

	for i := 0; i < generations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sim.Frame(nil); err != nil {
			return err
		}
		want = cpu.Step(want)

		got, err := sim.Snapshot(ctx)
		if err != nil {
			return err
		}
		if diff := got.Diff(want); len(diff) > 0 {
			return &Mismatch{Generation: sim.Generation(), Cells: diff}
		}
	}
	return nil
}
