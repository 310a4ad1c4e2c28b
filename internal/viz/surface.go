package viz

import (
	"sync"

	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/render"
)

// Surface presents generations on a Braille canvas. Only one frame may be
// in flight; Acquire reports gpu.ErrFrameUnavailable until it is presented.
type Surface struct {
	mu            sync.Mutex
	width, height int
	pending       bool
	shown         *Canvas
	population    int
	presented     uint64
}

// NewSurface returns a surface of w x h terminal cells.
func NewSurface(w, h int) *Surface {
	w, h = max(w, 1), max(h, 1)
	return &Surface{width: w, height: h, shown: NewCanvas(w, h), population: -1}
}

func (s *Surface) Acquire() (gpu.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return nil, gpu.ErrFrameUnavailable
	}
	s.pending = true
	return &termFrame{surface: s, canvas: NewCanvas(s.width, s.height)}, nil
}

// Resize changes the canvas for subsequent frames. The grid is unaffected.
func (s *Surface) Resize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = max(w, 1), max(h, 1)
}

// Latest returns the last presented canvas, its population and how many
// frames have been presented so far.
func (s *Surface) Latest() (*Canvas, int, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown, s.population, s.presented
}

type termFrame struct {
	surface    *Surface
	canvas     *Canvas
	population int
	scratch    []uint32
}

func (f *termFrame) DrawCells(cells []uint32, side int) {
	f.scratch = f.canvas.Plot(cells, side, f.scratch)
	f.population = render.Population(cells[:side*side])
}

func (f *termFrame) Present() {
	s := f.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = f.canvas
	s.population = f.population
	s.pending = false
	s.presented++
}
