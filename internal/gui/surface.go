package gui

import (
	"image/color"
	"sync"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/render"
)

// MaxTexture caps the texture edge; larger grids are sampled down.
const MaxTexture = 2048

type slotState int

const (
	slotFree slotState = iota
	slotDrawing
	slotReady
)

// Surface presents generations through a window texture. Frames are
// rasterized into one of two pixel buffers, possibly off the main thread,
// and uploaded to the texture by Upload on the main thread. Acquire reports
// gpu.ErrFrameUnavailable when both buffers are busy.
type Surface struct {
	edge    int
	texture rl.Texture2D
	dst     rl.Rectangle

	mu      sync.Mutex
	pixels  [2][]color.RGBA
	state   [2]slotState
	scratch [2][]uint32
}

// NewSurface creates the texture; call it after the window is open.
func NewSurface(side, width, height int) *Surface {
	edge := render.Fit(side, MaxTexture)
	img := rl.GenImageColor(edge, edge, ColBg)
	s := &Surface{
		edge:    edge,
		texture: rl.LoadTextureFromImage(img),
	}
	rl.UnloadImage(img)
	for i := range s.pixels {
		s.pixels[i] = make([]color.RGBA, edge*edge)
		s.scratch[i] = make([]uint32, edge*edge)
	}
	s.Resize(width, height)
	return s
}

func (s *Surface) Acquire() (gpu.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.state {
		if st == slotFree {
			s.state[i] = slotDrawing
			return &windowFrame{surface: s, slot: i}, nil
		}
	}
	return nil, gpu.ErrFrameUnavailable
}

// Resize fits the grid square into the window, centered.
func (s *Surface) Resize(width, height int) {
	size := float32(min(width, height))
	s.dst = rl.NewRectangle((float32(width)-size)/2, (float32(height)-size)/2, size, size)
}

// Upload copies the newest presented frame into the texture.
func (s *Surface) Upload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.state {
		if st == slotReady {
			rl.UpdateTexture(s.texture, s.pixels[i])
			s.state[i] = slotFree
		}
	}
}

func (s *Surface) Draw() {
	src := rl.NewRectangle(0, 0, float32(s.edge), float32(s.edge))
	rl.DrawTexturePro(s.texture, src, s.dst, rl.NewVector2(0, 0), 0, rl.White)
}

func (s *Surface) Unload() {
	rl.UnloadTexture(s.texture)
}

type windowFrame struct {
	surface *Surface
	slot    int
}

func (f *windowFrame) DrawCells(cells []uint32, side int) {
	s := f.surface
	sampled := s.scratch[f.slot]
	render.Sample(sampled, s.edge, s.edge, cells, side)
	px := s.pixels[f.slot]
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&px[0])), len(px)*4)
	render.FillBinaryRGBA(buf, sampled, ColCell, ColBg)
}

func (f *windowFrame) Present() {
	s := f.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	// An older frame still waiting for upload is superseded.
	for i, st := range s.state {
		if i != f.slot && st == slotReady {
			s.state[i] = slotFree
		}
	}
	s.state[f.slot] = slotReady
}
