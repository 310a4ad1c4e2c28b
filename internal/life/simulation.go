package life

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/lifesim/internal/compute"
	"github.com/san-kum/lifesim/internal/config"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
)

type Options struct {
	Side     int
	Density  float64
	Seed     int64
	TileSize int
	Workers  int
	Mode     Mode

	// Initial replaces the random seed grid when set.
	Initial *grid.Grid
}

// OptionsFromConfig maps validated configuration onto simulation options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Side:     cfg.Side,
		Density:  cfg.Density,
		Seed:     cfg.Seed,
		TileSize: cfg.TileSize,
		Workers:  cfg.Workers,
		Mode:     mode,
	}, nil
}

// Simulation is one running Game of Life. It is not safe for concurrent use;
// the device queue provides all the concurrency.
type Simulation struct {
	dev  gpu.Device
	pipe gpu.Pipeline
	cpu  *compute.CPU
	bufs *Buffers

	side int
	tile int

	// host is authoritative in CPU mode and may lag in accelerator mode.
	host    grid.Grid
	scratch grid.Grid

	mode     Mode
	lastStep time.Duration
	closed   bool
}

// New seeds a grid and uploads it to dev. The caller keeps ownership of dev.
func New(dev gpu.Device, opts Options) (*Simulation, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = compute.DefaultTileSize
	}
	if opts.Mode != Accelerator && opts.Mode != CPU {
		return nil, fmt.Errorf("%w: %v", ErrMode, opts.Mode)
	}

	var host grid.Grid
	if opts.Initial != nil {
		if opts.Side != 0 && opts.Initial.Side != opts.Side {
			return nil, fmt.Errorf("%w: %d != %d", ErrSide, opts.Initial.Side, opts.Side)
		}
		if err := opts.Initial.Validate(); err != nil {
			return nil, err
		}
		host = opts.Initial.Clone()
	} else {
		if opts.Side <= 0 {
			return nil, fmt.Errorf("%w: %d", grid.ErrSide, opts.Side)
		}
		if opts.Density < 0 || opts.Density > 1 {
			return nil, fmt.Errorf("%w: %g", grid.ErrDensity, opts.Density)
		}
		host = grid.Random(opts.Side, opts.Density, grid.NewRNG(opts.Seed))
	}

	pipe, err := dev.CreatePipeline(compute.LifePipeline(opts.TileSize))
	if err != nil {
		return nil, fmt.Errorf("life: pipeline: %w", err)
	}
	bufs, err := NewBuffers(dev, host)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		dev:     dev,
		pipe:    pipe,
		cpu:     compute.NewCPU(opts.Workers),
		bufs:    bufs,
		side:    host.Side,
		tile:    opts.TileSize,
		host:    host,
		scratch: grid.New(host.Side),
		mode:    opts.Mode,
	}, nil
}

// Frame produces one generation and, when target is non-nil, draws it.
// Compute, upload and draw go into one command buffer and one submission.
func (s *Simulation) Frame(target gpu.Target) error {
	if s.closed {
		return ErrClosed
	}
	start := time.Now()

	enc := s.dev.CreateEncoder(fmt.Sprintf("generation-%d", s.bufs.Generation()+1))
	next := s.bufs.Next()

	switch s.mode {
	case Accelerator:
		groups := compute.Workgroups(s.side, s.tile)
		enc.Dispatch(s.pipe, s.bufs.BindGroup(), gpu.Params{Side: uint32(s.side)}, groups, groups)
	case CPU:
		s.cpu.StepInto(s.scratch, s.host)
		s.host, s.scratch = s.scratch, s.host
		enc.WriteBuffer(next, s.host.Cells)
	}

	// next becomes current once the parity flips below.
	if target != nil {
		enc.Draw(target, next, s.side)
	}

	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("life: record generation: %w", err)
	}
	if err := s.dev.Submit(cb); err != nil {
		return fmt.Errorf("life: submit generation: %w", err)
	}
	s.bufs.Advance()
	s.lastStep = time.Since(start)
	return nil
}

// Tick acquires a frame from surface and runs Frame. An unavailable frame
// skips display for this generation only.
func (s *Simulation) Tick(surface gpu.Surface) error {
	target, err := surface.Acquire()
	switch {
	case errors.Is(err, gpu.ErrFrameUnavailable):
		target = nil
	case err != nil:
		return err
	}
	return s.Frame(target)
}

// SetMode switches kernels. Leaving accelerator mode reads the current
// device buffer back into the host copy.
func (s *Simulation) SetMode(ctx context.Context, m Mode) error {
	if s.closed {
		return ErrClosed
	}
	if m != Accelerator && m != CPU {
		return fmt.Errorf("%w: %v", ErrMode, m)
	}
	if s.mode == Accelerator && m == CPU {
		cells, err := s.dev.ReadBuffer(ctx, s.bufs.Current())
		if err != nil {
			return fmt.Errorf("life: read back generation %d: %w", s.bufs.Generation(), err)
		}
		host, err := grid.FromCells(s.side, cells[:s.side*s.side])
		if err != nil {
			return err
		}
		s.host = host
	}
	s.mode = m
	return nil
}

// Toggle flips between accelerator and CPU mode.
func (s *Simulation) Toggle(ctx context.Context) error {
	if s.mode == Accelerator {
		return s.SetMode(ctx, CPU)
	}
	return s.SetMode(ctx, Accelerator)
}

func (s *Simulation) Mode() Mode { return s.mode }

// LastStep is the wall time of the last Frame call. In accelerator mode it
// covers recording and submission, not device execution.
func (s *Simulation) LastStep() time.Duration { return s.lastStep }

func (s *Simulation) Generation() uint64 { return s.bufs.Generation() }

func (s *Simulation) Side() int { return s.side }

func (s *Simulation) Cells() int { return s.side * s.side }

func (s *Simulation) Device() gpu.Device { return s.dev }

// Current returns the device buffer to render from.
func (s *Simulation) Current() gpu.Buffer { return s.bufs.Current() }

// Buffers exposes the coordinator for inspection.
func (s *Simulation) Buffers() *Buffers { return s.bufs }

// Host returns a copy of the host grid. It is only current in CPU mode;
// use Snapshot otherwise.
func (s *Simulation) Host() grid.Grid { return s.host.Clone() }

// Snapshot waits for submitted work and returns the current generation.
func (s *Simulation) Snapshot(ctx context.Context) (grid.Grid, error) {
	if s.closed {
		return grid.Grid{}, ErrClosed
	}
	cells, err := s.dev.ReadBuffer(ctx, s.bufs.Current())
	if err != nil {
		return grid.Grid{}, fmt.Errorf("life: snapshot: %w", err)
	}
	return grid.FromCells(s.side, cells[:s.side*s.side])
}

// Close waits for in-flight generations. The device stays open.
func (s *Simulation) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dev.WaitIdle(context.Background())
}
