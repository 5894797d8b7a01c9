package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/emsim/internal/automation"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/optim"
	"github.com/san-kum/emsim/internal/storage"
)

var (
	sweepPreset string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepMetric string
	searchGrid  []string
)

func addBatchCommands(root *cobra.Command) {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of presets and overrides",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepPreset, "preset", "mur", "base preset")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "courant", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search for the setting that minimizes a metric",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}
	searchCmd.Flags().StringVar(&sweepPreset, "preset", "mur", "base preset")
	searchCmd.Flags().StringVar(&sweepMetric, "metric", "edge_residual", "metric to minimize")
	searchCmd.Flags().StringArrayVar(&searchGrid, "grid", nil, "name=v1,v2,... (repeatable)")

	root.AddCommand(scenarioCmd, sweepCmd, searchCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, st, logger)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tBOUNDARY\tSTEPS\tSTOP\tPEAK\tRUN ID")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.4f\t%s\n",
			i+1, r.Result.Name, r.Result.Boundary, r.Result.StepsTaken,
			r.Result.Stop, r.Result.Metrics["peak_ez"], r.RunID)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func basePreset() (*config.Config, error) {
	cfg := config.GetPreset(sweepPreset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", sweepPreset, config.ListPresets())
	}
	if cfg.MaxRuns == 0 {
		cfg.MaxRuns = 1
	}
	return cfg, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := basePreset()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("sweeping", "param", sweepParam, "min", sweepMin, "max", sweepMax, "steps", sweepSteps)
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK\tEDGE RESIDUAL\tENERGY\tSTABILITY\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		m := r.Result.Metrics
		fmt.Fprintf(w, "%g\t%.4g\t%.4g\t%.4g\t%.3f\n",
			r.ParamValue, m["peak_ez"], m["edge_residual"], m["energy"], m["stability"])
	}
	return w.Flush()
}

// parseGrid turns ["courant=0.3,0.5", ...] into names and value lists.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid grid %q, want name=v1,v2", spec)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(searchGrid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names, ranges, err := parseGrid(searchGrid)
	if err != nil {
		return err
	}
	base, err := basePreset()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	g := optim.NewGridSearch(names, ranges)
	logger.Info("grid search", "points", len(g.Points()), "metric", sweepMetric)
	best, val, err := g.Search(ctx, base, sweepMetric)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no grid point produced a finite %s", sweepMetric)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "best %s: %.6g\n", sweepMetric, val)
	for _, name := range names {
		fmt.Fprintf(out, "  %s = %g\n", name, best[name])
	}
	return nil
}
