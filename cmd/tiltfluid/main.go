package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tiltfluid/internal/analysis"
	"github.com/san-kum/tiltfluid/internal/automation"
	"github.com/san-kum/tiltfluid/internal/bridge"
	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/logging"
	"github.com/san-kum/tiltfluid/internal/metrics"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"github.com/san-kum/tiltfluid/internal/sim"
	"github.com/san-kum/tiltfluid/internal/storage"
	"github.com/san-kum/tiltfluid/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	dataDir    string
	logLevel   string
	logJSON    bool
	configFile string
	preset     string
	seed       int64
	particles  int
	ticks      int
	theme      string
	gifPath    string
	svgPath    string
	every      uint64
	runs       int
	workers    int
	addr       string
	column     string
	format     string
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tiltfluid",
		Short:        "tilt-driven particle fluid",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tiltfluid", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json")

	sessionFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		c.Flags().StringVar(&preset, "preset", "", "use preset configuration")
		c.Flags().Int64Var(&seed, "seed", 1, "random seed")
		c.Flags().IntVar(&particles, "particles", config.DefaultParticleCount, "particle count")
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a session in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sessionFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "deep", "color theme")
	liveCmd.Flags().StringVar(&gifPath, "gif", "tiltfluid.gif", "where G saves recordings")

	runCmd := &cobra.Command{
		Use:   "run [script.yaml]",
		Short: "run a scripted session headlessly and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScript,
	}
	sessionFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", 600, "ticks to run without a script")
	runCmd.Flags().Uint64Var(&every, "every", 1, "record one frame per this many ticks")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final particle layout as svg")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "kinetic_energy", fmt.Sprintf("series to plot %v", storage.Columns()))

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json or csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json or csv")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "slosh frequency of a recorded series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "centroid_x", fmt.Sprintf("series to analyze %v", storage.Columns()))

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s particles=%d viscosity=%.3f surface_tension=%.3f\n",
					name, cfg.ParticleCount, cfg.Viscosity, cfg.SurfaceTension)
			}
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a session to a device over websocket",
		RunE:  serve,
	}
	sessionFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().Uint64Var(&every, "every", 2, "broadcast one frame per this many ticks")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time headless ticks",
		RunE:  bench,
	}
	sessionFlags(benchCmd)
	benchCmd.Flags().IntVar(&ticks, "ticks", 1000, "ticks to run")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [script.yaml]",
		Short: "run a script over consecutive seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ensemble,
	}
	sessionFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ticks, "ticks", 600, "ticks to run without a script")
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of seeds")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "parallel sessions (0 = one per seed)")

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, serveCmd, benchCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return logging.New(logging.Options{Level: logLevel, JSON: logJSON})
}

// loadConfig resolves the preset or config file, then applies the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, presetName string) (*config.Config, error) {
	cfg, err := config.Resolve(presetName, configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("particles") {
		cfg.ParticleCount = particles
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	name := preset
	if len(args) > 0 {
		name = args[0]
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: logLevel, JSON: logJSON, Output: filepath.Join(dataDir, "live.log")})
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := viz.Options{Theme: theme, GIFPath: gifPath, Logger: log, Preset: name}
	if name == "" && configFile == "" {
		opts.Config = *config.DefaultConfig()
		return viz.RunMenu(opts)
	}
	cfg, err := loadConfig(cmd, name)
	if err != nil {
		return err
	}
	opts.Config = *cfg
	return viz.Run(opts)
}

// loadScript reads the script argument, or builds an idle script of --ticks.
func loadScript(args []string) (*automation.Script, error) {
	if len(args) == 0 {
		return automation.Idle(ticks), nil
	}
	return automation.LoadScript(args[0])
}

func scriptConfig(cmd *cobra.Command, script *automation.Script) (*config.Config, string, error) {
	name := preset
	if name == "" {
		name = script.Preset
	}
	cfg, err := loadConfig(cmd, name)
	return cfg, name, err
}

func runScript(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	script, err := loadScript(args)
	if err != nil {
		return err
	}
	cfg, name, err := scriptConfig(cmd, script)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var final []r2.Vec
	opts := automation.Options{
		Logger:      log,
		RecordEvery: every,
		Observer: sim.ObserverFunc(func(f *sim.Frame) {
			final = append(final[:0], f.Positions...)
		}),
	}

	fmt.Printf("running %s with %d particles...\n", script.Name, cfg.ParticleCount)
	start := time.Now()
	res, err := automation.Run(cmd.Context(), script, cfg, opts)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	meta := storage.RunMetadata{
		Name:        script.Name,
		Preset:      name,
		Seed:        res.Seed,
		Particles:   cfg.ParticleCount,
		Ticks:       res.Ticks,
		Elapsed:     res.Elapsed,
		Fingerprint: fmt.Sprintf("%016x", res.Fingerprint),
		Metrics:     res.Metrics,
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	cfg.Seed = res.Seed
	runID, err := st.Save(meta, cfg, res.Frames)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", wall)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (%.2fs simulated)\n", res.Ticks, res.Elapsed.Seconds())
	fmt.Printf("fingerprint: %s\n", meta.Fingerprint)
	if res.Err != nil {
		fmt.Printf("stopped early: %v\n", res.Err)
	}
	printMetrics(res.Metrics)

	if svgPath != "" {
		canvas := viz.NewCanvas(60, 24)
		viz.NewRenderer(cfg.Container.Width, cfg.Container.Height, canvas).Draw(canvas, final)
		if err := os.WriteFile(svgPath, []byte(viz.CanvasToSVG(canvas, 4, string(viz.GetTheme("").Fluid))), 0644); err != nil {
			return err
		}
		fmt.Printf("layout: %s\n", svgPath)
	}
	return nil
}

func printMetrics(ms map[string]float64) {
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, ms[name])
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
	fmt.Fprintln(w, "ID\tNAME\tPRESET\tTIME\tSEED\tPARTICLES\tTICKS\tSIM")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.2fs\n",
			run.ID,
			run.Name,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Particles,
			run.Ticks,
			run.Elapsed.Seconds(),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}
	data, err := storage.Column(rows, column)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(data))
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(column),
	))

	s := metrics.Summarize(data)
	fmt.Printf("\nmean %.6f  std %.6f  min %.6f  max %.6f\n", s.Mean, s.StdDev, s.Min, s.Max)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	data, err := storage.Column(rows, column)
	if err != nil {
		return err
	}
	if len(rows) < 2 || rows[len(rows)-1].Elapsed <= rows[0].Elapsed {
		return fmt.Errorf("no data")
	}
	rate := float64(len(rows)-1) / (rows[len(rows)-1].Elapsed - rows[0].Elapsed)

	spec, err := analysis.PowerSpectrum(data, rate)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("series: %s at %.1f samples/s\n\n", column, rate)

	plotData := spec.Power[:max(len(spec.Power)/4, 2)]
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+column+")"),
	))
	fmt.Println()

	freq, _ := spec.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return storage.ExportJSON(w, *meta, rows)
	case "csv":
		return storage.ExportCSV(w, rows)
	default:
		return fmt.Errorf("unknown format %q (json, csv)", format)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := bridge.New(*cfg, bridge.Options{Logger: log, BroadcastEvery: every})
	fmt.Printf("serving on %s (ws /ws, health /healthz)\n", addr)
	return srv.Run(ctx, addr)
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}
	script := automation.Idle(ticks)
	script.Events = append(script.Events, automation.Event{Motion: &sensor.Motion{AY: 9.8}})

	fmt.Printf("benchmarking %d particles for %d ticks...\n", cfg.ParticleCount, ticks)
	start := time.Now()
	res, err := automation.Run(context.Background(), script, cfg, automation.Options{RecordEvery: uint64(ticks) + 1})
	if err != nil {
		return err
	}
	wall := time.Since(start)
	if res.Err != nil {
		return res.Err
	}

	perTick := wall / time.Duration(max(res.Ticks, 1))
	fmt.Printf("total: %v\n", wall)
	fmt.Printf("per tick: %v\n", perTick)
	fmt.Printf("ticks/sec: %.0f\n", float64(res.Ticks)/wall.Seconds())
	fmt.Printf("realtime factor: %.1fx\n", res.Elapsed.Seconds()/wall.Seconds())
	return nil
}

func ensemble(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	script, err := loadScript(args)
	if err != nil {
		return err
	}
	cfg, _, err := scriptConfig(cmd, script)
	if err != nil {
		return err
	}
	first := cfg.Seed
	if script.Seed != nil && !cmd.Flags().Changed("seed") {
		first = *script.Seed
	}
	// Each session takes its seed from the ensemble, not the script.
	script.Seed = nil

	n := workers
	if n <= 0 {
		n = runs
	}
	fmt.Printf("running %s over %d seeds from %d...\n", script.Name, runs, first)
	start := time.Now()
	results, err := automation.RunEnsemble(cmd.Context(), script, cfg, automation.Seeds(first, runs), n,
		automation.Options{Logger: log, RecordEvery: uint64(script.Ticks) + 1})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	series := make(map[string][]float64)
	failed := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTICKS\tFINGERPRINT\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%d\t%d\t%016x\t%s\n", r.Seed, r.Ticks, r.Fingerprint, status)
		for name, v := range r.Metrics {
			series[name] = append(series[name], v)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range names {
		s := metrics.Summarize(series[name])
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions stopped early", failed, len(results))
	}
	return nil
}
