package grid

import "fmt"

const (
	Dead  uint32 = 0
	Alive uint32 = 1
)

// DefaultDensity is the probability that a cell starts alive.
const DefaultDensity = 0.2

// Grid is one generation. Cells are indexed y*Side + x.
type Grid struct {
	Side  int
	Cells []uint32
}

// New returns an all-dead grid.
func New(side int) Grid {
	if side <= 0 {
		panic(ErrSide)
	}
	return Grid{Side: side, Cells: make([]uint32, side*side)}
}

// FromCells wraps an existing buffer after checking its invariants.
func FromCells(side int, cells []uint32) (Grid, error) {
	g := Grid{Side: side, Cells: cells}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Wrap maps v into [0, n) with modular wraparound.
func Wrap(v, n int) int {
	return ((v % n) + n) % n
}

// Index returns the flat index of (x, y), wrapping both coordinates.
func (g Grid) Index(x, y int) int {
	return Wrap(y, g.Side)*g.Side + Wrap(x, g.Side)
}

// At returns the cell at (x, y) on the torus.
func (g Grid) At(x, y int) uint32 {
	return g.Cells[g.Index(x, y)]
}

// Set stores v at (x, y) on the torus.
func (g Grid) Set(x, y int, v uint32) {
	g.Cells[g.Index(x, y)] = v
}

// Len returns the number of cells.
func (g Grid) Len() int { return g.Side * g.Side }

func (g Grid) Clone() Grid {
	c := make([]uint32, len(g.Cells))
	copy(c, g.Cells)
	return Grid{Side: g.Side, Cells: c}
}

// Equal reports whether both grids have the same side and cells.
func (g Grid) Equal(o Grid) bool {
	if g.Side != o.Side || len(g.Cells) != len(o.Cells) {
		return false
	}
	for i := range g.Cells {
		if g.Cells[i] != o.Cells[i] {
			return false
		}
	}
	return true
}

// Diff returns the indices where g and o disagree. Both grids must share a side.
func (g Grid) Diff(o Grid) []int {
	var out []int
	for i := range g.Cells {
		if i >= len(o.Cells) || g.Cells[i] != o.Cells[i] {
			out = append(out, i)
		}
	}
	return out
}

// Population counts live cells.
func (g Grid) Population() int {
	n := 0
	for _, c := range g.Cells {
		n += int(c)
	}
	return n
}

func (g Grid) Validate() error {
	if g.Side <= 0 {
		return ErrSide
	}
	if len(g.Cells) != g.Side*g.Side {
		return fmt.Errorf("%w: got %d, want %d", ErrLength, len(g.Cells), g.Side*g.Side)
	}
	for i, c := range g.Cells {
		if c > Alive {
			return fmt.Errorf("%w: cell %d = %d", ErrCellValue, i, c)
		}
	}
	return nil
}

// MustValidate panics on a broken invariant. Kernels call it on their input.
func (g Grid) MustValidate() {
	if err := g.Validate(); err != nil {
		panic(err)
	}
}
