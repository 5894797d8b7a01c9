package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/export"
	"github.com/san-kum/emsim/internal/fdtd"
	"github.com/san-kum/emsim/internal/metrics"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/storage"
	"github.com/san-kum/emsim/internal/tui"
	"github.com/san-kum/emsim/internal/viz"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

var (
	dataDir  string
	logLevel string

	// Run/live output
	noSave   bool
	plain    bool
	lifetime time.Duration

	// plot/export
	frameIndex   int
	outPath      string
	compareRuns  int
	configPreset string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "emsim",
		Short:         "1D FDTD electromagnetic wave simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".emsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().BoolVar(&plain, "plain", false, "plain ANSI output instead of the full-screen view")
	liveCmd.Flags().DurationVar(&lifetime, "duration", 0, "close the plain view after this long (0 = never)")

	compareCmd := &cobra.Command{
		Use:   "compare [preset...]",
		Short: "run presets concurrently and compare their metrics",
		RunE:  comparePresets,
	}
	compareCmd.Flags().IntVar(&compareRuns, "runs", 1, "runs per repeating preset")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored Ez profile",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&frameIndex, "frame", -1, "stored frame index (negative counts from the end)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export stored frames as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and frames as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	for _, format := range []string{"png", "svg"} {
		cmd := &cobra.Command{
			Use:   fmt.Sprintf("export-%s [run_id]", format),
			Short: fmt.Sprintf("render a stored Ez profile as %s", format),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return exportImage(args[0], format)
			},
		}
		cmd.Flags().IntVar(&frameIndex, "frame", -1, "stored frame index (negative counts from the end)")
		cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>."+format+")")
		rootCmd.AddCommand(cmd)
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write a preset as a yaml config file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&configPreset, "preset", "mur", "preset to write")

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, configCmd)
	addBatchCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// signalContext cancels on SIGINT. An interrupted run still reports and
// stores what it has.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newSimulator(cfg *config.Config) (*sim.Simulator, *storage.Recorder, error) {
	sc, err := cfg.SimConfig()
	if err != nil {
		return nil, nil, err
	}
	s := sim.New(sc)
	for _, m := range metrics.Default(sc.Params) {
		s.AddMetric(m)
	}
	rec := storage.NewRecorder(cfg.RecordEvery)
	s.AddObserver(rec)

	p := sc.Params
	logger.Debug("configured simulation",
		"name", sc.Name, "boundary", sc.Boundary, "mode", sc.Mode,
		"nx", p.NX, "nt", p.NT, "courant", p.CourantNumber())
	if !p.Stable() {
		logger.Warn("courant condition violated; the run will diverge", "courant", p.CourantNumber())
	}
	return s, rec, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, rec, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	if s.Config().Mode == sim.ModeRepeating && s.Config().MaxRuns == 0 {
		return fmt.Errorf("repeating mode needs --max-runs when run headless")
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("running simulation", "name", cfg.Name)
	start := time.Now()
	result, err := s.Run(ctx, nil)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("simulation finished", "stop", result.Stop, "elapsed", elapsed)

	return report(cmd.OutOrStdout(), result, rec, elapsed)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, rec, err := newSimulator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	title := liveTitle(s.Config().Boundary)
	start := time.Now()

	var result *sim.Result
	if plain {
		p := tui.NewPrinter(cmd.OutOrStdout(), title, cfg.FPS, lifetime)
		p.Start()
		result, err = s.Run(ctx, p)
		p.Stop()
		if err != nil {
			return err
		}
	} else {
		live := viz.NewLive(title, cfg.Grid.NT, cfg.FPS, tea.WithAltScreen())
		live.Start()
		result, err = s.Run(ctx, live)
		if err != nil {
			_ = live.Close()
			return err
		}
		if err := live.Finish(result); err != nil {
			return err
		}
	}

	return report(cmd.OutOrStdout(), result, rec, time.Since(start))
}

func liveTitle(b fdtd.BoundaryMode) string {
	if b == fdtd.BoundaryMur {
		return "1D FDTD with Mur ABC"
	}
	return "1D FDTD"
}

// report stores the run unless --no-save and prints the summary.
func report(w io.Writer, result *sim.Result, rec *storage.Recorder, elapsed time.Duration) error {
	runID := ""
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(result, rec)
		if err != nil {
			return err
		}
		runID = id
		logger.Debug("stored run", "id", runID, "frames", len(rec.Records()))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "name:\t%s\n", result.Name)
	if runID != "" {
		fmt.Fprintf(tw, "run id:\t%s\n", runID)
	}
	fmt.Fprintf(tw, "boundary:\t%s\n", result.Boundary)
	fmt.Fprintf(tw, "runs:\t%d\n", result.Runs)
	fmt.Fprintf(tw, "steps:\t%d\n", result.StepsTaken)
	fmt.Fprintf(tw, "stop:\t%s\n", result.Stop)
	fmt.Fprintf(tw, "elapsed:\t%v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(tw, "\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Fprintf(tw, "  %s:\t%.6g\n", name, result.Metrics[name])
	}
	return tw.Flush()
}

func comparePresets(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = []string{"mur", "fixed"}
	}

	cfgs := make([]sim.Config, 0, len(names))
	for _, name := range names {
		pc := config.GetPreset(name)
		if pc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		sc, err := pc.SimConfig()
		if err != nil {
			return err
		}
		if sc.Mode == sim.ModeRepeating && sc.MaxRuns == 0 {
			sc.MaxRuns = compareRuns
		}
		cfgs = append(cfgs, sc)
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("comparing presets", "presets", names)
	results, err := sim.Compare(ctx, cfgs, func(c sim.Config) []sim.Metric {
		return metrics.Default(c.Params)
	})
	if err != nil {
		return err
	}

	metricNames := slices.Sorted(maps.Keys(results[0].Metrics))

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "PRESET\tBOUNDARY\tRUNS\tSTEPS\tSTOP")
	for _, m := range metricNames {
		fmt.Fprintf(tw, "\t%s", m)
	}
	fmt.Fprintln(tw)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s", r.Name, r.Boundary, r.Runs, r.StepsTaken, r.Stop)
		for _, m := range metricNames {
			fmt.Fprintf(tw, "\t%.6g", r.Metrics[m])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBOUNDARY\tMODE\tNX\tNT\tRUNS\tSTOP")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Boundary,
			run.Mode,
			run.NX,
			run.NT,
			run.Runs,
			run.Stop,
		)
	}

	return w.Flush()
}

// storedFrame loads frame i of a run; negative i counts from the end.
func storedFrame(runID string, i int) (*storage.RunMetadata, storage.Record, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, storage.Record{}, err
	}
	records, err := st.LoadFrames(runID)
	if err != nil {
		return nil, storage.Record{}, err
	}
	if len(records) == 0 {
		return nil, storage.Record{}, fmt.Errorf("run %s has no stored frames", runID)
	}
	if i < 0 {
		i += len(records)
	}
	if i < 0 || i >= len(records) {
		return nil, storage.Record{}, fmt.Errorf("frame %d out of range [0, %d)", i, len(records))
	}
	return meta, records[i], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, rec, err := storedFrame(args[0], frameIndex)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "boundary: %s\n", meta.Boundary)
	fmt.Fprintf(out, "run %d, time step %d\n\n", rec.Run, rec.Step)

	graph := asciigraph.Plot(rec.Ez,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.LowerBound(-1.5),
		asciigraph.UpperBound(1.5),
		asciigraph.Caption(fmt.Sprintf("Ez vs grid cell (step %d)", rec.Step)),
	)
	fmt.Fprintln(out, graph)
	return nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	if _, err := st.Load(runID); err != nil {
		return err
	}

	src, err := os.Open(filepath.Join(dataDir, runID, "frames.csv"))
	if err != nil {
		return err
	}
	defer src.Close()

	w, closeFn, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w, closeFn, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(w, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportImage(runID, format string) error {
	meta, rec, err := storedFrame(runID, frameIndex)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = runID + "." + format
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Title = fmt.Sprintf("%s - Time step: %d", meta.Name, rec.Step)
	if err := export.Write(f, format, rec.Ez, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("exported profile", "path", path, "step", rec.Step)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBOUNDARY\tMODE\tNX\tNT\tCOURANT")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\n",
			name, c.Boundary, c.Mode, c.Grid.NX, c.Grid.NT, c.Params().CourantNumber())
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(configPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", configPreset, config.ListPresets())
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	logger.Info("wrote config", "path", args[0], "preset", configPreset)
	return nil
}
