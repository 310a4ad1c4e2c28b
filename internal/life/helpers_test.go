package life_test

import (
	"sync"

	"github.com/san-kum/lifesim/internal/gpu"
)

// spyDevice records what each generation's command stream contains.
type spyDevice struct {
	gpu.Device

	mu         sync.Mutex
	dispatches []gpu.BindGroup
	writes     []gpu.Buffer
	draws      []gpu.Buffer
}

func (d *spyDevice) CreateEncoder(label string) gpu.Encoder {
	return &spyEncoder{Encoder: d.Device.CreateEncoder(label), dev: d}
}

func (d *spyDevice) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatches, d.writes, d.draws = nil, nil, nil
}

type spyEncoder struct {
	gpu.Encoder
	dev *spyDevice
}

func (e *spyEncoder) WriteBuffer(dst gpu.Buffer, data []uint32) {
	e.dev.mu.Lock()
	e.dev.writes = append(e.dev.writes, dst)
	e.dev.mu.Unlock()
	e.Encoder.WriteBuffer(dst, data)
}

func (e *spyEncoder) Dispatch(p gpu.Pipeline, bg gpu.BindGroup, params gpu.Params, gx, gy uint32) {
	e.dev.mu.Lock()
	e.dev.dispatches = append(e.dev.dispatches, bg)
	e.dev.mu.Unlock()
	e.Encoder.Dispatch(p, bg, params, gx, gy)
}

func (e *spyEncoder) Draw(dst gpu.Target, src gpu.Buffer, side int) {
	e.dev.mu.Lock()
	e.dev.draws = append(e.dev.draws, src)
	e.dev.mu.Unlock()
	e.Encoder.Draw(dst, src, side)
}

type frameTarget struct {
	mu       sync.Mutex
	last     []uint32
	presents int
}

func (t *frameTarget) DrawCells(cells []uint32, side int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = append(t.last[:0], cells...)
}

func (t *frameTarget) Present() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.presents++
}

func (t *frameTarget) snapshot() ([]uint32, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uint32(nil), t.last...), t.presents
}

// flakySurface fails to acquire every frame whose index is in skip.
type flakySurface struct {
	target  *frameTarget
	skip    map[int]bool
	calls   int
	resizes int
}

func (s *flakySurface) Acquire() (gpu.Target, error) {
	i := s.calls
	s.calls++
	if s.skip[i] {
		return nil, gpu.ErrFrameUnavailable
	}
	return s.target, nil
}

func (s *flakySurface) Resize(width, height int) { s.resizes++ }
