package config

import (
	"fmt"
	"math"
	"sort"
)

// Tunables are the numeric settings that sweeps and searches may vary.
var Tunables = map[string]func(c *Config, v float64){
	"nx":           func(c *Config, v float64) { c.Grid.NX = int(math.Round(v)) },
	"nt":           func(c *Config, v float64) { c.Grid.NT = int(math.Round(v)) },
	"dx":           func(c *Config, v float64) { c.Grid.Dx = v; c.Grid.Dt = 0 },
	"courant":      func(c *Config, v float64) { c.Grid.Courant = v; c.Grid.Dt = 0 },
	"src":          func(c *Config, v float64) { c.Source.Cell = int(math.Round(v)) },
	"pulse_center": func(c *Config, v float64) { c.Source.Center = v },
	"pulse_width":  func(c *Config, v float64) { c.Source.Width = v },
}

// SetParam assigns a tunable by name. Changing dx or courant clears an
// explicit dt so that the step is derived again.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := Tunables[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %v)", name, ListTunables())
	}
	set(c, v)
	return nil
}

func ListTunables() []string {
	names := make([]string, 0, len(Tunables))
	for name := range Tunables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
