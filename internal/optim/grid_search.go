// Package optim searches configuration grids for the setting that
// minimizes a run metric.
package optim

import (
	"context"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/metrics"
	"github.com/san-kum/emsim/internal/sim"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points enumerates the grid, last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, maps.Clone(current))
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, paramName)
}

// Search runs every grid point derived from base concurrently and returns
// the point with the smallest value of metricName. Points whose metric is
// NaN or +Inf never win; if no point is finite, Search fails.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	if !knownMetric(base, metricName) {
		return nil, 0, fmt.Errorf("grid search: unknown metric %q", metricName)
	}

	points := g.Points()
	cfgs := make([]sim.Config, len(points))
	for i, point := range points {
		cfg := base.Clone()
		for _, name := range g.paramNames {
			if err := cfg.SetParam(name, point[name]); err != nil {
				return nil, 0, err
			}
		}
		sc, err := cfg.SimConfig()
		if err != nil {
			return nil, 0, err
		}
		cfgs[i] = sc
	}

	results, err := sim.Compare(ctx, cfgs, func(c sim.Config) []sim.Metric {
		return metrics.Default(c.Params)
	})
	if err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	for i, res := range results {
		if val := res.Metrics[metricName]; val < best {
			best = val
			bestParams = points[i]
		}
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("grid search: no point produced a finite %s", metricName)
	}
	return bestParams, best, nil
}

func knownMetric(base *config.Config, name string) bool {
	for _, m := range metrics.Default(base.Params()) {
		if m.Name() == name {
			return true
		}
	}
	return false
}
