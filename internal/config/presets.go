package config

import (
	"sort"

	"github.com/san-kum/emsim/internal/fdtd"
)

var Presets = map[string]func() *Config{
	// Absorbing edges, one long run.
	"mur": func() *Config {
		return DefaultConfig()
	},
	// Reflecting walls, rerun from zero while the display stays open.
	"fixed": func() *Config {
		c := DefaultConfig()
		c.Name = "fixed"
		c.Boundary = string(fdtd.BoundaryFixed)
		c.Mode = "repeating"
		c.Grid.NT = 800
		return c
	},
	"short": func() *Config {
		c := DefaultConfig()
		c.Name = "short"
		c.Grid.NX = 60
		c.Grid.NT = 400
		c.Source = SourceConfig{Cell: 30, Center: 20, Width: 6}
		c.RecordEvery = 1
		return c
	},
	// Courant number above one; the field diverges.
	"unstable": func() *Config {
		c := DefaultConfig()
		c.Name = "unstable"
		c.Boundary = string(fdtd.BoundaryFixed)
		c.Grid.Courant = 1.05
		c.Grid.NT = 600
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
