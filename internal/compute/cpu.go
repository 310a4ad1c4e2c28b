package compute

import (
	"fmt"
	"runtime"

	"github.com/san-kum/lifesim/internal/grid"
)

// CPU is the multi-core step kernel. Each worker owns a band of rows of the
// output and reads only from the frozen input.
type CPU struct {
	workers int
}

// NewCPU returns a kernel using workers goroutines; workers <= 0 uses every CPU.
func NewCPU(workers int) *CPU {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPU{workers: workers}
}

func (c *CPU) Name() string { return "cpu" }
func (c *CPU) Workers() int { return c.workers }

// Step returns the generation after in. in is never modified.
func (c *CPU) Step(in grid.Grid) grid.Grid {
	out := grid.New(in.Side)
	c.StepInto(out, in)
	return out
}

// StepInto writes the generation after in into dst. dst and in must not
// share storage.
func (c *CPU) StepInto(dst, in grid.Grid) {
	side := in.Side
	if dst.Side != side || len(dst.Cells) != side*side || len(in.Cells) != side*side {
		panic(fmt.Errorf("%w: step %d -> %d", grid.ErrLength, len(in.Cells), len(dst.Cells)))
	}
	if &dst.Cells[0] == &in.Cells[0] {
		panic("compute: StepInto with aliased input and output")
	}

	src, out := in.Cells, dst.Cells
	ParallelFor(side, c.workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * side
			for x := 0; x < side; x++ {
				out[row+x] = Rule(src[row+x], grid.Neighbors(src, side, x, y))
			}
		}
	})
}
