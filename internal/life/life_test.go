package life_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lifesim/internal/compute"
	"github.com/san-kum/lifesim/internal/config"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
	"github.com/san-kum/lifesim/internal/life"
)

// reference steps g n times on the CPU kernel.
func reference(g grid.Grid, n int) grid.Grid {
	cpu := compute.NewCPU(1)
	for i := 0; i < n; i++ {
		g = cpu.Step(g)
	}
	return g
}

var _ = Describe("Buffers", func() {
	var (
		dev  *gpu.Soft
		bufs *life.Buffers
	)

	BeforeEach(func() {
		dev = gpu.NewSoft(2)
		DeferCleanup(dev.Close)

		var err error
		bufs, err = life.NewBuffers(dev, grid.New(4))
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts reading A and writing B", func() {
		Expect(bufs.Generation()).To(BeZero())
		Expect(bufs.Current()).To(BeIdenticalTo(bufs.A()))
		Expect(bufs.Next()).To(BeIdenticalTo(bufs.B()))
		Expect(bufs.BindGroup()).To(Equal(gpu.BindGroup{Read: bufs.A(), Write: bufs.B()}))
	})

	It("alternates by parity", func() {
		for k := 1; k <= 7; k++ {
			bufs.Advance()
			Expect(bufs.Generation()).To(BeEquivalentTo(k))
			if k%2 == 0 {
				Expect(bufs.Current()).To(BeIdenticalTo(bufs.A()))
			} else {
				Expect(bufs.Current()).To(BeIdenticalTo(bufs.B()))
			}
			bg := bufs.BindGroup()
			Expect(bg.Read).To(BeIdenticalTo(bufs.Current()))
			Expect(bg.Write).To(BeIdenticalTo(bufs.Next()))
			Expect(bg.Read).NotTo(BeIdenticalTo(bg.Write))
		}
	})
})

var _ = Describe("Simulation", func() {
	var (
		ctx  context.Context
		soft *gpu.Soft
		spy  *spyDevice
		opts life.Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		soft = gpu.NewSoft(4)
		DeferCleanup(soft.Close)
		spy = &spyDevice{Device: soft}
		opts = life.Options{Side: 16, Density: grid.DefaultDensity, Seed: 3, TileSize: 8, Workers: 2}
	})

	newSim := func(o life.Options) *life.Simulation {
		sim, err := life.New(spy, o)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sim.Close)
		return sim
	}

	Describe("accelerator mode", func() {
		It("dispatches from the current buffer into the next one", func() {
			sim := newSim(opts)
			for k := 0; k < 5; k++ {
				spy.reset()
				cur, next := sim.Current(), sim.Buffers().Next()

				Expect(sim.Frame(nil)).To(Succeed())

				Expect(spy.dispatches).To(HaveLen(1))
				Expect(spy.dispatches[0].Read).To(BeIdenticalTo(cur))
				Expect(spy.dispatches[0].Write).To(BeIdenticalTo(next))
				Expect(spy.writes).To(BeEmpty())
				Expect(sim.Current()).To(BeIdenticalTo(next))
			}
		})

		It("leaves the generation in A after an even count", func() {
			sim := newSim(opts)
			for k := 1; k <= 6; k++ {
				Expect(sim.Frame(nil)).To(Succeed())
				Expect(sim.Generation()).To(BeEquivalentTo(k))
				if k%2 == 0 {
					Expect(sim.Current()).To(BeIdenticalTo(sim.Buffers().A()))
				} else {
					Expect(sim.Current()).To(BeIdenticalTo(sim.Buffers().B()))
				}
			}
		})

		It("matches the CPU kernel", func() {
			start := grid.Random(16, grid.DefaultDensity, grid.NewRNG(opts.Seed))
			sim := newSim(opts)
			for i := 0; i < 9; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
			}
			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Diff(reference(start, 9))).To(BeEmpty())
		})

		It("handles sides that are not a multiple of the tile", func() {
			opts.Side = 13
			start := grid.Random(13, grid.DefaultDensity, grid.NewRNG(opts.Seed))
			sim := newSim(opts)
			for i := 0; i < 4; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
			}
			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Diff(reference(start, 4))).To(BeEmpty())
		})

		It("leaves the host copy untouched", func() {
			sim := newSim(opts)
			before := sim.Host()
			Expect(sim.Frame(nil)).To(Succeed())
			Expect(sim.Host().Equal(before)).To(BeTrue())
		})
	})

	Describe("CPU mode", func() {
		BeforeEach(func() {
			opts.Mode = life.CPU
		})

		It("uploads the new generation into the next buffer", func() {
			sim := newSim(opts)
			for k := 0; k < 3; k++ {
				spy.reset()
				next := sim.Buffers().Next()
				Expect(sim.Frame(nil)).To(Succeed())
				Expect(spy.dispatches).To(BeEmpty())
				Expect(spy.writes).To(HaveLen(1))
				Expect(spy.writes[0]).To(BeIdenticalTo(next))
			}
		})

		It("keeps host and device in agreement", func() {
			start := grid.Random(16, grid.DefaultDensity, grid.NewRNG(opts.Seed))
			sim := newSim(opts)
			for i := 0; i < 5; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
			}
			dev, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(dev.Equal(sim.Host())).To(BeTrue())
			Expect(dev.Diff(reference(start, 5))).To(BeEmpty())
		})
	})

	Describe("switching modes", func() {
		It("reads the device generation back before stepping on the CPU", func() {
			start := grid.Random(16, grid.DefaultDensity, grid.NewRNG(opts.Seed))
			sim := newSim(opts)
			for i := 0; i < 3; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
			}

			Expect(sim.Toggle(ctx)).To(Succeed())
			Expect(sim.Mode()).To(Equal(life.CPU))
			Expect(sim.Host().Diff(reference(start, 3))).To(BeEmpty())

			Expect(sim.Frame(nil)).To(Succeed())
			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Diff(reference(start, 4))).To(BeEmpty())
		})

		It("stays consistent across repeated toggles", func() {
			start := grid.Random(16, grid.DefaultDensity, grid.NewRNG(opts.Seed))
			sim := newSim(opts)
			for i := 0; i < 10; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
				if i%3 == 2 {
					Expect(sim.Toggle(ctx)).To(Succeed())
				}
			}
			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Diff(reference(start, 10))).To(BeEmpty())
		})

		It("rejects unknown modes", func() {
			sim := newSim(opts)
			Expect(sim.SetMode(ctx, life.Mode(9))).To(MatchError(life.ErrMode))
		})
	})

	Describe("presentation", func() {
		It("draws the new current generation once per frame", func() {
			target := &frameTarget{}
			sim := newSim(opts)
			for i := 0; i < 3; i++ {
				spy.reset()
				Expect(sim.Frame(target)).To(Succeed())
				Expect(spy.draws).To(ConsistOf(BeIdenticalTo(sim.Current())))
			}
			Expect(soft.WaitIdle(ctx)).To(Succeed())

			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			cells, presents := target.snapshot()
			Expect(cells).To(Equal(got.Cells))
			Expect(presents).To(Equal(3))
		})

		It("skips display but still computes when no frame is available", func() {
			surface := &flakySurface{target: &frameTarget{}, skip: map[int]bool{1: true, 2: true}}
			sim := newSim(opts)
			before := soft.Stats()
			for i := 0; i < 4; i++ {
				Expect(sim.Tick(surface)).To(Succeed())
			}
			Expect(soft.WaitIdle(ctx)).To(Succeed())

			after := soft.Stats()
			Expect(sim.Generation()).To(BeEquivalentTo(4))
			Expect(after.Dispatches - before.Dispatches).To(BeEquivalentTo(4))
			Expect(after.Draws - before.Draws).To(BeEquivalentTo(2))
			Expect(after.Submissions - before.Submissions).To(BeEquivalentTo(4))
		})

		It("propagates other acquire errors", func() {
			sim := newSim(opts)
			boom := errors.New("lost surface")
			err := sim.Tick(failingSurface{err: boom})
			Expect(err).To(MatchError(boom))
			Expect(sim.Generation()).To(BeZero())
		})

		It("formats the title from the observables", func() {
			sim := newSim(opts)
			Expect(sim.Frame(nil)).To(Succeed())
			title := life.Title(sim)
			Expect(title).To(HavePrefix("lifesim | Mode: GPU (soft)"))
			Expect(title).To(HaveSuffix("| 256 Cells"))

			Expect(sim.Toggle(ctx)).To(Succeed())
			Expect(strings.Contains(life.Title(sim), "Mode: CPU")).To(BeTrue())
		})
	})

	Describe("construction", func() {
		It("uses an explicit initial grid", func() {
			g := grid.New(8)
			g.Set(1, 0, grid.Alive)
			g.Set(2, 1, grid.Alive)
			g.Set(0, 2, grid.Alive)
			g.Set(1, 2, grid.Alive)
			g.Set(2, 2, grid.Alive)

			sim := newSim(life.Options{Initial: &g, TileSize: 4})
			for i := 0; i < 32; i++ {
				Expect(sim.Frame(nil)).To(Succeed())
			}
			got, err := sim.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			// A glider on an 8x8 torus returns home after 32 generations.
			Expect(got.Equal(g)).To(BeTrue())
		})

		It("rejects invalid options", func() {
			_, err := life.New(soft, life.Options{Side: 0})
			Expect(err).To(MatchError(grid.ErrSide))

			_, err = life.New(soft, life.Options{Side: 8, Density: 2})
			Expect(err).To(MatchError(grid.ErrDensity))

			g := grid.New(4)
			_, err = life.New(soft, life.Options{Side: 8, Initial: &g})
			Expect(err).To(MatchError(life.ErrSide))
		})

		It("maps configuration", func() {
			cfg := config.DefaultConfig()
			cfg.Mode = config.ModeCPU
			o, err := life.OptionsFromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(o.Mode).To(Equal(life.CPU))
			Expect(o.Side).To(Equal(cfg.Side))

			cfg.Mode = "tpu"
			_, err = life.OptionsFromConfig(cfg)
			Expect(err).To(MatchError(life.ErrMode))
		})

		It("refuses work after Close", func() {
			sim, err := life.New(soft, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Close()).To(Succeed())
			Expect(sim.Frame(nil)).To(MatchError(life.ErrClosed))
			_, err = sim.Snapshot(ctx)
			Expect(err).To(MatchError(life.ErrClosed))
		})
	})
})

type failingSurface struct{ err error }

func (s failingSurface) Acquire() (gpu.Target, error) { return nil, s.err }
func (s failingSurface) Resize(int, int)              {}
