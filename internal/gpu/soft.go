package gpu

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultQueueDepth bounds how many submitted command buffers may wait
// behind the one executing before Submit applies back-pressure.
const DefaultQueueDepth = 2

func init() {
	Register("soft", func() (Device, error) {
		dev := NewSoft(0)
		log.Printf("gpu-soft: software queue ready (%d workers)", dev.workers)
		return dev, nil
	})
}

// SoftStats counts work executed by a Soft device.
type SoftStats struct {
	Submissions int64
	Uploads     int64
	Dispatches  int64
	Invocations int64
	Draws       int64
}

// Soft is a software accelerator. Command buffers run on a single queue
// goroutine in submission order; each compute dispatch fans its workgroup
// rows out across host cores.
type Soft struct {
	workers int
	queue   chan []softCommand
	done    chan struct{}

	mu     sync.Mutex
	closed bool

	submissions atomic.Int64
	uploads     atomic.Int64
	dispatches  atomic.Int64
	invocations atomic.Int64
	draws       atomic.Int64
}

// NewSoft starts a software device. workers <= 0 uses every CPU.
func NewSoft(workers int) *Soft {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Soft{
		workers: workers,
		queue:   make(chan []softCommand, DefaultQueueDepth),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Soft) Name() string { return "soft" }

func (s *Soft) Stats() SoftStats {
	return SoftStats{
		Submissions: s.submissions.Load(),
		Uploads:     s.uploads.Load(),
		Dispatches:  s.dispatches.Load(),
		Invocations: s.invocations.Load(),
		Draws:       s.draws.Load(),
	}
}

func (s *Soft) run() {
	defer close(s.done)
	for cmds := range s.queue {
		for _, c := range cmds {
			c.run(s)
		}
	}
}

func (s *Soft) enqueue(cmds []softCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.queue <- cmds
	return nil
}

type softBuffer struct {
	dev   *Soft
	label string
	data  []uint32
}

func (b *softBuffer) Label() string { return b.label }
func (b *softBuffer) Len() int      { return len(b.data) }

func (s *Soft) CreateBuffer(label string, cells int) (Buffer, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("%w: %s wants %d cells", ErrBufferSize, label, cells)
	}
	return &softBuffer{dev: s, label: label, data: make([]uint32, cells)}, nil
}

func (s *Soft) CreateBufferInit(label string, data []uint32) (Buffer, error) {
	b, err := s.CreateBuffer(label, len(data))
	if err != nil {
		return nil, err
	}
	copy(b.(*softBuffer).data, data)
	return b, nil
}

type softPipeline struct {
	dev    *Soft
	label  string
	tile   int
	kernel KernelFunc
}

func (p *softPipeline) Label() string { return p.label }
func (p *softPipeline) TileSize() int { return p.tile }

func (s *Soft) CreatePipeline(desc PipelineDescriptor) (Pipeline, error) {
	if desc.Kernel == nil {
		return nil, fmt.Errorf("%w: %s has no host kernel", ErrPipeline, desc.Label)
	}
	if desc.TileSize <= 0 {
		return nil, fmt.Errorf("%w: %s tile size %d", ErrPipeline, desc.Label, desc.TileSize)
	}
	return &softPipeline{dev: s, label: desc.Label, tile: desc.TileSize, kernel: desc.Kernel}, nil
}

func (s *Soft) CreateEncoder(label string) Encoder {
	return &softEncoder{dev: s, label: label}
}

func (s *Soft) Submit(cb CommandBuffer) error {
	scb, ok := cb.(*softCommandBuffer)
	if !ok || scb.dev != s {
		return ErrForeignResource
	}
	if err := s.enqueue(scb.cmds); err != nil {
		return err
	}
	s.submissions.Add(1)
	return nil
}

func (s *Soft) ReadBuffer(ctx context.Context, b Buffer) ([]uint32, error) {
	sb, err := s.buffer(b)
	if err != nil {
		return nil, err
	}
	reply := make(chan []uint32, 1)
	if err := s.enqueue([]softCommand{readCommand{src: sb, reply: reply}}); err != nil {
		return nil, err
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Soft) WaitIdle(ctx context.Context) error {
	fence := make(chan struct{})
	if err := s.enqueue([]softCommand{fenceCommand{done: fence}}); err != nil {
		return err
	}
	select {
	case <-fence:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the device.
func (s *Soft) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *Soft) buffer(b Buffer) (*softBuffer, error) {
	sb, ok := b.(*softBuffer)
	if !ok || sb.dev != s {
		return nil, fmt.Errorf("%w: buffer %v", ErrForeignResource, b)
	}
	return sb, nil
}

type softCommandBuffer struct {
	dev   *Soft
	label string
	cmds  []softCommand
}

func (c *softCommandBuffer) Label() string { return c.label }
func (c *softCommandBuffer) Len() int      { return len(c.cmds) }

type softEncoder struct {
	dev   *Soft
	label string
	cmds  []softCommand
	err   error
}

func (e *softEncoder) fail(err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: %w", e.label, err)
	}
}

func (e *softEncoder) WriteBuffer(dst Buffer, data []uint32) {
	sb, err := e.dev.buffer(dst)
	if err != nil {
		e.fail(err)
		return
	}
	if len(data) > len(sb.data) {
		e.fail(fmt.Errorf("%w: write of %d cells into %s (%d)", ErrBufferSize, len(data), sb.label, len(sb.data)))
		return
	}
	cp := make([]uint32, len(data))
	copy(cp, data)
	e.cmds = append(e.cmds, writeCommand{dst: sb, data: cp})
}

func (e *softEncoder) Dispatch(p Pipeline, bg BindGroup, params Params, groupsX, groupsY uint32) {
	sp, ok := p.(*softPipeline)
	if !ok || sp.dev != e.dev {
		e.fail(fmt.Errorf("%w: pipeline %v", ErrForeignResource, p))
		return
	}
	read, err := e.dev.buffer(bg.Read)
	if err != nil {
		e.fail(err)
		return
	}
	write, err := e.dev.buffer(bg.Write)
	if err != nil {
		e.fail(err)
		return
	}
	if read == write {
		e.fail(fmt.Errorf("%w: %s", ErrAliasedBinding, read.label))
		return
	}
	cells := int(params.Side) * int(params.Side)
	if len(read.data) < cells || len(write.data) < cells {
		e.fail(fmt.Errorf("%w: side %d needs %d cells", ErrBufferSize, params.Side, cells))
		return
	}
	e.cmds = append(e.cmds, dispatchCommand{pipe: sp, read: read, write: write, params: params, gx: groupsX, gy: groupsY})
}

func (e *softEncoder) Draw(dst Target, src Buffer, side int) {
	if dst == nil {
		e.fail(fmt.Errorf("%w: nil target", ErrFrameUnavailable))
		return
	}
	sb, err := e.dev.buffer(src)
	if err != nil {
		e.fail(err)
		return
	}
	if len(sb.data) < side*side {
		e.fail(fmt.Errorf("%w: draw of side %d from %s", ErrBufferSize, side, sb.label))
		return
	}
	e.cmds = append(e.cmds, drawCommand{dst: dst, src: sb, side: side})
}

func (e *softEncoder) Finish() (CommandBuffer, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &softCommandBuffer{dev: e.dev, label: e.label, cmds: e.cmds}, nil
}

type softCommand interface {
	run(s *Soft)
}

type writeCommand struct {
	dst  *softBuffer
	data []uint32
}

func (c writeCommand) run(s *Soft) {
	copy(c.dst.data, c.data)
	s.uploads.Add(1)
}

type dispatchCommand struct {
	pipe        *softPipeline
	read, write *softBuffer
	params      Params
	gx, gy      uint32
}

func (c dispatchCommand) run(s *Soft) {
	tile := uint32(c.pipe.tile)
	kernel := c.pipe.kernel

	var g errgroup.Group
	g.SetLimit(s.workers)
	for gy := uint32(0); gy < c.gy; gy++ {
		g.Go(func() error {
			for gx := uint32(0); gx < c.gx; gx++ {
				for ly := uint32(0); ly < tile; ly++ {
					for lx := uint32(0); lx < tile; lx++ {
						kernel(gx*tile+lx, gy*tile+ly, c.params, c.read.data, c.write.data)
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	s.dispatches.Add(1)
	s.invocations.Add(int64(c.gx) * int64(c.gy) * int64(tile) * int64(tile))
}

type drawCommand struct {
	dst  Target
	src  *softBuffer
	side int
}

func (c drawCommand) run(s *Soft) {
	c.dst.DrawCells(c.src.data[:c.side*c.side], c.side)
	c.dst.Present()
	s.draws.Add(1)
}

type readCommand struct {
	src   *softBuffer
	reply chan []uint32
}

func (c readCommand) run(*Soft) {
	out := make([]uint32, len(c.src.data))
	copy(out, c.src.data)
	c.reply <- out
}

type fenceCommand struct {
	done chan struct{}
}

func (c fenceCommand) run(*Soft) { close(c.done) }
