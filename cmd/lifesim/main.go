package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/lifesim/internal/automation"
	"github.com/san-kum/lifesim/internal/config"
	"github.com/san-kum/lifesim/internal/experiment"
	"github.com/san-kum/lifesim/internal/export"
	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/gui"
	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
	"github.com/san-kum/lifesim/internal/storage"
	"github.com/san-kum/lifesim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	side      int
	density   float64
	seed      int64
	tileSize  int
	mode      string
	device    string
	workers   int
	frameRate int

	pattern     string
	sampleEvery int
	framesDir   string
	imageLimit  int
	tiles       []int
	trials      int
)

// main registers commands and flags, opens the window GUI when no subcommand
// is given and exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "lifesim",
		Short:        "toroidal game of life on cpu and gpu",
		SilenceUsage: true,
		RunE:         runGUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".lifesim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.IntVar(&side, "side", config.DefaultSide, "grid side length")
	pf.Float64Var(&density, "density", config.DefaultDensity, "initial live probability")
	pf.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.IntVar(&tileSize, "tile", config.DefaultTileSize, "workgroup tile size")
	pf.StringVar(&mode, "mode", config.ModeGPU, "initial execution mode (gpu|cpu)")
	pf.StringVar(&device, "device", "soft", "compute device")
	pf.IntVar(&workers, "workers", 0, "cpu workers (0 = all cores)")
	pf.IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	pf.StringVar(&pattern, "pattern", "random", "initial pattern")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run simulation in a window",
		RunE:  runGUI,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live terminal visualization",
		RunE:  runLive,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run generations headlessly and store timings",
		RunE:  runHeadless,
	}
	runCmd.Flags().Int("generations", 100, "generations to run")
	runCmd.Flags().IntVar(&sampleEvery, "sample", 10, "read population back every n generations (0 = never)")
	runCmd.Flags().StringVar(&framesDir, "frames", "", "write every generation as PNG into this directory")
	runCmd.Flags().IntVar(&imageLimit, "max-px", 1024, "maximum image edge in pixels")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark gpu against cpu execution",
		RunE:  runBench,
	}
	benchCmd.Flags().Int("generations", 50, "generations per mode")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "check that gpu and cpu kernels agree",
		RunE:  runVerify,
	}
	verifyCmd.Flags().Int("generations", 32, "generations to compare")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render generation n to a png or svg file",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().Int("generations", 0, "generations to run first")
	snapshotCmd.Flags().String("out", "snapshot.png", "output file (.png or .svg)")
	snapshotCmd.Flags().IntVar(&imageLimit, "max-px", 1024, "maximum image edge in pixels")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run timings",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run timings to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRunJSON,
	}
	exportJSONCmd.Flags().String("out", "", "output file (default <run_id>.json)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	patternsCmd := &cobra.Command{
		Use:   "patterns",
		Short: "list initial patterns",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListPatterns() {
				fmt.Println(name)
			}
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "list compute devices",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range gpu.Names() {
				fmt.Println(name)
			}
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "time the gpu kernel across tile sizes",
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntSliceVar(&tiles, "tiles", []int{4, 8, 16, 32}, "tile sizes to compare")
	sweepCmd.Flags().Int("generations", 20, "generations per tile size")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "count extinct random seedings",
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of random seedings")
	monteCarloCmd.Flags().Int("generations", 200, "generations per trial")

	rootCmd.AddCommand(guiCmd, liveCmd, runCmd, benchCmd, verifyCmd, snapshotCmd,
		listCmd, plotCmd, exportJSONCmd, presetsCmd, patternsCmd, devicesCmd,
		scenarioCmd, sweepCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, preset, config file and changed flags, in that
// order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("side") {
		cfg.Side = side
	}
	if flags.Changed("density") {
		cfg.Density = density
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("tile") {
		cfg.TileSize = tileSize
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initialGrid(cfg *config.Config) (life.Options, error) {
	opts, err := life.OptionsFromConfig(cfg)
	if err != nil {
		return opts, err
	}
	g, err := experiment.NewRegistry().GetPattern(pattern, experiment.Seed{
		Side:    cfg.Side,
		Density: cfg.Density,
		Seed:    cfg.Seed,
	})
	if err != nil {
		return opts, err
	}
	opts.Initial = &g
	return opts, nil
}

// openSimulation opens the configured device and seeds a simulation on it.
// A device that cannot be opened is fatal; there is no CPU-only fallback.
func openSimulation(cfg *config.Config) (gpu.Device, *life.Simulation, error) {
	opts, err := initialGrid(cfg)
	if err != nil {
		return nil, nil, err
	}
	dev, err := gpu.Open(cfg.Device)
	if err != nil {
		return nil, nil, err
	}
	sim, err := life.New(dev, opts)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return dev, sim, nil
}

func closeSimulation(dev gpu.Device, sim *life.Simulation) {
	if err := sim.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close simulation: %v\n", err)
	}
	dev.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gui.InitWindow(cfg.Width, cfg.Height, cfg.FPS)
	defer gui.CloseWindow()

	dev, sim, err := openSimulation(cfg)
	if err != nil {
		return err
	}
	defer closeSimulation(dev, sim)

	return gui.NewApp(sim).RunLoop()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dev, sim, err := openSimulation(cfg)
	if err != nil {
		return err
	}
	defer closeSimulation(dev, sim)

	return viz.Run(sim, cfg.FPS)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	dev, sim, err := openSimulation(cfg)
	if err != nil {
		return err
	}
	defer closeSimulation(dev, sim)

	expCfg := experiment.Config{Generations: generations, SampleEvery: sampleEvery}
	var frames *export.FrameWriter
	if framesDir != "" {
		frames, err = export.NewFrameWriter(framesDir, imageLimit)
		if err != nil {
			return err
		}
		expCfg.Target = frames
	}

	exp := experiment.New(expCfg)
	exp.Setup(sim, metrics.Default())

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d generations of %dx%d on %s (%s)...\n", generations, cfg.Side, cfg.Side, dev.Name(), sim.Mode())
	result, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	runID, err := st.Save(runMetadata("run", cfg, dev, result.Generations, result.Metrics), result.Timings)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d generations in %v\n", result.Generations, result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	printMetrics(result.Metrics)

	if frames != nil {
		n, err := frames.Written()
		if err != nil {
			return fmt.Errorf("write frames: %w", err)
		}
		fmt.Printf("frames: %d in %s\n", n, framesDir)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	dev, sim, err := openSimulation(cfg)
	if err != nil {
		return err
	}
	defer closeSimulation(dev, sim)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %dx%d for %d generations per mode on %s...\n", cfg.Side, cfg.Side, generations, dev.Name())
	res, err := experiment.Bench(ctx, sim, generations)
	if err != nil {
		return err
	}

	flat := res.Flatten()
	runID, err := st.Save(runMetadata("bench", cfg, dev, len(res.Timings), flat), res.Timings)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tMEAN\tMAX\tCELLS/S")
	for _, m := range res.Modes {
		fmt.Fprintf(w, "%s\t%.3fms\t%.3fms\t%.3g\n",
			m.Mode,
			m.Metrics["step_ms"],
			m.Metrics["max_step_ms"],
			m.Metrics["cells_per_sec"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if s := res.Speedup(); s > 0 {
		fmt.Printf("\nspeedup: %.2fx\n", s)
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := initialGrid(cfg)
	if err != nil {
		return err
	}
	dev, err := gpu.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing %s against cpu for %d generations of %dx%d...\n", dev.Name(), generations, cfg.Side, cfg.Side)
	if err := experiment.Verify(ctx, dev, *opts.Initial, cfg.TileSize, cfg.Workers, generations); err != nil {
		return err
	}
	fmt.Println("ok: kernels agree")
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dev, sim, err := openSimulation(cfg)
	if err != nil {
		return err
	}
	defer closeSimulation(dev, sim)

	for i := 0; i < generations; i++ {
		if err := sim.Frame(nil); err != nil {
			return err
		}
	}
	g, err := sim.Snapshot(context.Background())
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".svg":
		svg := export.GridSVG(g.Cells, g.Side, imageLimit, 2)
		if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
			return err
		}
	case ".png":
		if err := export.GridPNG(outPath, g.Cells, g.Side, imageLimit); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported snapshot format: %s", outPath)
	}

	fmt.Printf("generation %d (population %d) written to %s\n", sim.Generation(), g.Population(), outPath)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	dev, err := gpu.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	results, err := automation.RunScenario(ctx, dev, sc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Step.SaveAs == "" {
			continue
		}
		stepCfg := *cfg
		stepCfg.Side = r.Step.Side
		stepCfg.Density = r.Step.Density
		stepCfg.Seed = r.Step.Seed
		stepCfg.TileSize = r.Step.TileSize
		meta := runMetadata("scenario", &stepCfg, dev, r.Result.Generations, r.Result.Metrics)
		meta.ID = r.Step.SaveAs
		if _, err := st.Save(meta, r.Result.Timings); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", r.Step.SaveAs)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dev, err := gpu.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, dev, &automation.TileSweep{
		Side:        cfg.Side,
		Density:     cfg.Density,
		Seed:        cfg.Seed,
		Tiles:       tiles,
		Generations: generations,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TILE\tGROUPS\tMEAN\tMAX")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%dx%d\t%v\t%v\n", r.TileSize, r.Workgroups, r.Workgroups, r.MeanStep, r.MaxStep)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	generations, _ := cmd.Flags().GetInt("generations")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := life.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	dev, err := gpu.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, dev, &automation.MonteCarloConfig{
		Side:        cfg.Side,
		Density:     cfg.Density,
		NumTrials:   trials,
		Generations: generations,
		TileSize:    cfg.TileSize,
		Mode:        m,
		Seed:        cfg.Seed,
	})
	if err != nil {
		return err
	}

	surviving, extinct := automation.MonteCarloStats(results)
	fmt.Printf("density %.3f after %d generations: %d surviving, %d extinct\n", cfg.Density, generations, surviving, extinct)
	return nil
}

func runMetadata(kind string, cfg *config.Config, dev gpu.Device, gens int, values map[string]float64) storage.RunMetadata {
	return storage.RunMetadata{
		Kind:        kind,
		Timestamp:   time.Now(),
		Side:        cfg.Side,
		TileSize:    cfg.TileSize,
		Density:     cfg.Density,
		Seed:        cfg.Seed,
		Device:      dev.Name(),
		Workers:     cfg.Workers,
		Generations: gens,
		Host:        storage.Host(),
		Metrics:     values,
	}
}

func printMetrics(values map[string]float64) {
	fmt.Println("\nmetrics:")
	for name, val := range values {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSIDE\tDEVICE\tGENS\tCPU")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Side,
			run.Device,
			run.Generations,
			run.Host.CPUModel,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	timings, err := st.LoadTimings(runID)
	if err != nil {
		return err
	}
	if len(timings) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kind: %s on %s\n", meta.Kind, meta.Device)
	fmt.Printf("samples: %d\n\n", len(timings))

	for _, m := range []string{"gpu", "cpu"} {
		data := storage.StepSeries(timings, m)
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s update time (ms)", m)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	var pops []float64
	for _, t := range timings {
		if t.Population >= 0 {
			pops = append(pops, float64(t.Population))
		}
	}
	if len(pops) > 1 {
		fmt.Println(asciigraph.Plot(pops,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("population"),
		))
	}
	return nil
}

func exportRunJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	timings, err := st.LoadTimings(runID)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = runID + ".json"
	}
	if err := export.ExportJSON(path, *meta, timings); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIDE\tTILE\tMODE\tDEVICE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", name, p.Side, p.TileSize, p.Mode, p.Device)
	}
	return w.Flush()
}
