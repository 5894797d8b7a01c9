package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/emsim/internal/config"
)

// simFlags holds the values shared by run and live.
type simFlags struct {
	preset      string
	configFile  string
	name        string
	boundary    string
	mode        string
	maxRuns     int
	nx          int
	nt          int
	dx          float64
	dt          float64
	courant     float64
	src         int
	pulseCenter float64
	pulseWidth  float64
	recordEvery int
	fps         int
}

var flags simFlags

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&flags.preset, "preset", "", "use preset configuration")
	f.StringVar(&flags.configFile, "config", "", "config file path (yaml)")
	f.StringVar(&flags.name, "name", def.Name, "run name")
	f.StringVar(&flags.boundary, "boundary", def.Boundary, "boundary condition (fixed, mur)")
	f.StringVar(&flags.mode, "mode", def.Mode, "run mode (single, repeating)")
	f.IntVar(&flags.maxRuns, "max-runs", 0, "stop repeating mode after this many runs (0 = until closed)")
	f.IntVar(&flags.nx, "nx", def.Grid.NX, "grid cells")
	f.IntVar(&flags.nt, "nt", def.Grid.NT, "time steps per run")
	f.Float64Var(&flags.dx, "dx", def.Grid.Dx, "cell size (m)")
	f.Float64Var(&flags.dt, "dt", 0, "time step (s); derived from --courant when zero")
	f.Float64Var(&flags.courant, "courant", def.Grid.Courant, "courant number c*dt/dx")
	f.IntVar(&flags.src, "src", def.Source.Cell, "source cell")
	f.Float64Var(&flags.pulseCenter, "pulse-center", def.Source.Center, "pulse peak time (steps)")
	f.Float64Var(&flags.pulseWidth, "pulse-width", def.Source.Width, "pulse width (steps)")
	f.IntVar(&flags.recordEvery, "record-every", def.RecordEvery, "store every n-th frame")
	f.IntVar(&flags.fps, "fps", def.FPS, "frame rate for live views")
}

// resolveConfig starts from the preset, overlays the config file and then
// any flag set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if flags.preset != "" {
		cfg = config.GetPreset(flags.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", flags.preset, config.ListPresets())
		}
	}

	if flags.configFile != "" {
		if err := config.Overlay(flags.configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		cfg.Name = flags.name
	}
	if changed("boundary") {
		cfg.Boundary = flags.boundary
	}
	if changed("mode") {
		cfg.Mode = flags.mode
	}
	if changed("max-runs") {
		cfg.MaxRuns = flags.maxRuns
	}
	if changed("nx") {
		cfg.Grid.NX = flags.nx
	}
	if changed("nt") {
		cfg.Grid.NT = flags.nt
	}
	if changed("dx") {
		cfg.Grid.Dx = flags.dx
	}
	if changed("courant") {
		cfg.Grid.Courant = flags.courant
		if !changed("dt") {
			cfg.Grid.Dt = 0
		}
	}
	if changed("dt") {
		cfg.Grid.Dt = flags.dt
	}
	if changed("src") {
		cfg.Source.Cell = flags.src
	}
	if changed("pulse-center") {
		cfg.Source.Center = flags.pulseCenter
	}
	if changed("pulse-width") {
		cfg.Source.Width = flags.pulseWidth
	}
	if changed("record-every") {
		cfg.RecordEvery = flags.recordEvery
	}
	if changed("fps") {
		cfg.FPS = flags.fps
	}

	return cfg, nil
}
