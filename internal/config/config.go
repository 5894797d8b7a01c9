package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/emsim/internal/fdtd"
	"github.com/san-kum/emsim/internal/sim"
)

const (
	DefaultCourant     = fdtd.DefaultCourant
	DefaultRecordEvery = 10
	DefaultFPS         = 60
)

type Config struct {
	Name        string       `yaml:"name"`
	Boundary    string       `yaml:"boundary"`
	Mode        string       `yaml:"mode"`
	MaxRuns     int          `yaml:"max_runs"`
	Grid        GridConfig   `yaml:"grid"`
	Source      SourceConfig `yaml:"source"`
	RecordEvery int          `yaml:"record_every"`
	FPS         int          `yaml:"fps"`
}

type GridConfig struct {
	NX int     `yaml:"nx"`
	NT int     `yaml:"nt"`
	C  float64 `yaml:"c"`
	Dx float64 `yaml:"dx"`
	// Dt is derived from Courant when left at zero.
	Dt      float64 `yaml:"dt,omitempty"`
	Courant float64 `yaml:"courant"`
	Eps0    float64 `yaml:"eps0"`
	Mu0     float64 `yaml:"mu0"`
}

type SourceConfig struct {
	Cell   int     `yaml:"cell"`
	Center float64 `yaml:"pulse_center"`
	Width  float64 `yaml:"pulse_width"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "mur",
		Boundary: string(fdtd.BoundaryMur),
		Mode:     string(sim.ModeSingle),
		Grid: GridConfig{
			NX:      fdtd.DefaultNX,
			NT:      fdtd.DefaultNT,
			C:       fdtd.SpeedOfLight,
			Dx:      fdtd.DefaultDx,
			Courant: DefaultCourant,
			Eps0:    fdtd.Eps0,
			Mu0:     fdtd.Mu0,
		},
		Source: SourceConfig{
			Cell:   fdtd.DefaultSource,
			Center: fdtd.DefaultPulseCenter,
			Width:  fdtd.DefaultPulseWidth,
		},
		RecordEvery: DefaultRecordEvery,
		FPS:         DefaultFPS,
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay reads path on top of cfg; keys absent from the file keep their
// current values.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// TimeStep returns Dt, or courant*dx/c when Dt is unset.
func (c *Config) TimeStep() float64 {
	if c.Grid.Dt > 0 {
		return c.Grid.Dt
	}
	courant := c.Grid.Courant
	if courant == 0 {
		courant = DefaultCourant
	}
	if c.Grid.C == 0 {
		return 0
	}
	return courant * c.Grid.Dx / c.Grid.C
}

func (c *Config) Params() fdtd.Params {
	return fdtd.Params{
		NX:          c.Grid.NX,
		NT:          c.Grid.NT,
		C:           c.Grid.C,
		Dx:          c.Grid.Dx,
		Dt:          c.TimeStep(),
		Eps0:        c.Grid.Eps0,
		Mu0:         c.Grid.Mu0,
		Src:         c.Source.Cell,
		PulseCenter: c.Source.Center,
		PulseWidth:  c.Source.Width,
	}
}

// SimConfig resolves the string fields and builds the driver configuration.
// Parameter ranges are checked later by the driver.
func (c *Config) SimConfig() (sim.Config, error) {
	boundary, err := fdtd.ParseBoundary(c.Boundary)
	if err != nil {
		return sim.Config{}, err
	}
	mode, err := sim.ParseMode(c.Mode)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Name:     c.Name,
		Params:   c.Params(),
		Boundary: boundary,
		Mode:     mode,
		MaxRuns:  c.MaxRuns,
	}, nil
}
