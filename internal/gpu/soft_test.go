package gpu

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func copyKernel(x, y uint32, p Params, read, write []uint32) {
	if x >= p.Side || y >= p.Side {
		return
	}
	i := y*p.Side + x
	write[i] = read[i] + 1
}

type recordingTarget struct {
	mu       sync.Mutex
	frames   [][]uint32
	presents int
}

func (r *recordingTarget) DrawCells(cells []uint32, side int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]uint32, len(cells))
	copy(cp, cells)
	r.frames = append(r.frames, cp)
}

func (r *recordingTarget) Present() {
	r.mu.Lock()
	r.presents++
	r.mu.Unlock()
}

func newTestDevice(t *testing.T) (*Soft, Pipeline) {
	t.Helper()
	dev := NewSoft(4)
	t.Cleanup(func() { dev.Close() })
	p, err := dev.CreatePipeline(PipelineDescriptor{Label: "copy", TileSize: 8, Kernel: copyKernel})
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	return dev, p
}

func TestWorkgroups(t *testing.T) {
	tests := []struct {
		side, tile int
		want       uint32
	}{
		{16, 8, 2},
		{17, 8, 3},
		{10, 8, 2},
		{1, 8, 1},
		{4096, 8, 512},
	}
	for _, tt := range tests {
		if got := Workgroups(tt.side, tt.tile); got != tt.want {
			t.Errorf("Workgroups(%d, %d) = %d, want %d", tt.side, tt.tile, got, tt.want)
		}
	}
}

func TestSoftDispatchThenDraw(t *testing.T) {
	dev, p := newTestDevice(t)
	const side = 10

	a, _ := dev.CreateBufferInit("a", make([]uint32, side*side))
	b, _ := dev.CreateBuffer("b", side*side)
	target := &recordingTarget{}

	enc := dev.CreateEncoder("frame")
	g := Workgroups(side, p.TileSize())
	enc.Dispatch(p, BindGroup{Read: a, Write: b}, Params{Side: side}, g, g)
	enc.Draw(target, b, side)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := dev.Submit(cb); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := dev.WaitIdle(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if len(target.frames) != 1 || target.presents != 1 {
		t.Fatalf("expected one presented frame, got %d/%d", len(target.frames), target.presents)
	}
	for i, c := range target.frames[0] {
		if c != 1 {
			t.Fatalf("cell %d = %d, render pass ran before dispatch", i, c)
		}
	}

	stats := dev.Stats()
	if stats.Invocations != 2*2*8*8 {
		t.Errorf("expected rounded-up dispatch of 256 invocations, got %d", stats.Invocations)
	}
	if stats.Dispatches != 1 || stats.Draws != 1 || stats.Submissions != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestSoftSubmissionOrder(t *testing.T) {
	dev, p := newTestDevice(t)
	const side = 4

	a, _ := dev.CreateBuffer("a", side*side)
	b, _ := dev.CreateBuffer("b", side*side)
	bufs := [2]Buffer{a, b}

	for i := 0; i < 6; i++ {
		enc := dev.CreateEncoder("step")
		enc.Dispatch(p, BindGroup{Read: bufs[i%2], Write: bufs[(i+1)%2]}, Params{Side: side}, 1, 1)
		cb, err := enc.Finish()
		if err != nil {
			t.Fatalf("finish: %v", err)
		}
		if err := dev.Submit(cb); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	out, err := dev.ReadBuffer(context.Background(), a)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for i, c := range out {
		if c != 6 {
			t.Fatalf("cell %d = %d, want 6", i, c)
		}
	}
}

func TestSoftUpload(t *testing.T) {
	dev, _ := newTestDevice(t)
	buf, _ := dev.CreateBuffer("buf", 4)

	enc := dev.CreateEncoder("upload")
	data := []uint32{1, 0, 1, 1}
	enc.WriteBuffer(buf, data)
	data[0] = 9
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	dev.Submit(cb)

	out, err := dev.ReadBuffer(context.Background(), buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out[0] != 1 || out[3] != 1 {
		t.Errorf("upload not copied at record time: %v", out)
	}
}

func TestSoftEncoderValidation(t *testing.T) {
	dev, p := newTestDevice(t)
	other := NewSoft(1)
	defer other.Close()

	a, _ := dev.CreateBuffer("a", 16)
	small, _ := dev.CreateBuffer("small", 4)
	foreign, _ := other.CreateBuffer("foreign", 16)

	tests := []struct {
		name   string
		record func(Encoder)
		want   error
	}{
		{"aliased", func(e Encoder) { e.Dispatch(p, BindGroup{Read: a, Write: a}, Params{Side: 4}, 1, 1) }, ErrAliasedBinding},
		{"too small", func(e Encoder) { e.Dispatch(p, BindGroup{Read: a, Write: small}, Params{Side: 4}, 1, 1) }, ErrBufferSize},
		{"foreign", func(e Encoder) { e.WriteBuffer(foreign, []uint32{1}) }, ErrForeignResource},
		{"overflow", func(e Encoder) { e.WriteBuffer(small, make([]uint32, 5)) }, ErrBufferSize},
		{"nil target", func(e Encoder) { e.Draw(nil, a, 4) }, ErrFrameUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := dev.CreateEncoder(tt.name)
			tt.record(enc)
			if _, err := enc.Finish(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSoftClosed(t *testing.T) {
	dev := NewSoft(1)
	buf, _ := dev.CreateBuffer("buf", 1)
	if err := dev.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	cb, _ := dev.CreateEncoder("late").Finish()
	if err := dev.Submit(cb); !errors.Is(err, ErrClosed) {
		t.Errorf("submit after close: got %v", err)
	}
	if _, err := dev.ReadBuffer(context.Background(), buf); !errors.Is(err, ErrClosed) {
		t.Errorf("read after close: got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	if _, err := Open("nope"); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}

	dev, err := Open("soft")
	if err != nil {
		t.Fatalf("open soft: %v", err)
	}
	defer dev.Close()
	if dev.Name() != "soft" {
		t.Errorf("name = %q", dev.Name())
	}

	found := false
	for _, n := range Names() {
		if n == "soft" {
			found = true
		}
	}
	if !found {
		t.Errorf("soft not listed in %v", Names())
	}
}
