package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/emsim/internal/fdtd"
	"github.com/san-kum/emsim/internal/sim"
)

func TestPeakField(t *testing.T) {
	m := NewPeakField()

	m.Observe(sim.Frame{Step: 0, Ez: []float64{0.1, -0.4, 0.2}})
	m.Observe(sim.Frame{Step: 1, Ez: []float64{0.3, -0.2, 0.1}})

	if m.Value() != 0.4 || m.Step() != 0 {
		t.Errorf("expected peak 0.4 at step 0, got %f at %d", m.Value(), m.Step())
	}

	m.Reset()
	if m.Value() != 0 || m.Step() != -1 {
		t.Error("expected reset peak")
	}
}

func TestEdgeResidual(t *testing.T) {
	m := NewEdgeResidual(5, 2)

	m.Observe(sim.Frame{Step: 4, Ez: []float64{9, 0, 0, 0, 0, 9}})
	if m.Value() != 0 {
		t.Errorf("frames before step 5 must be ignored, got %f", m.Value())
	}

	m.Observe(sim.Frame{Step: 5, Ez: []float64{0, 0.2, 5, 5, -0.3, 0}})
	if m.Value() != 0.3 {
		t.Errorf("expected 0.3, got %f", m.Value())
	}

	m.Observe(sim.Frame{Step: 6, Ez: []float64{1}})
	if m.Value() != 1 {
		t.Errorf("short grid: expected 1, got %f", m.Value())
	}
}

func TestFieldEnergy(t *testing.T) {
	m := NewFieldEnergy(2, 3, 0.5)
	m.Observe(sim.Frame{Ez: []float64{1, 2}, Hy: []float64{1, 0}})

	want := 0.5 * 0.5 * (2*5 + 3*1)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}

	m.Observe(sim.Frame{Ez: []float64{0, 0}, Hy: []float64{0, 0}})
	if m.Value() != 0 || m.Peak() != want {
		t.Errorf("expected current 0 and peak %f, got %f and %f", want, m.Value(), m.Peak())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	if m.Value() != 1 {
		t.Error("empty stability should be 1")
	}

	m.Observe(sim.Frame{Ez: []float64{1, 2}})
	m.Observe(sim.Frame{Ez: []float64{1, math.NaN()}})
	m.Observe(sim.Frame{Ez: []float64{11}})
	m.Observe(sim.Frame{Ez: []float64{-3}})

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestDefault_SeparatesBoundaries(t *testing.T) {
	residual := map[fdtd.BoundaryMode]float64{}
	for _, mode := range []fdtd.BoundaryMode{fdtd.BoundaryMur, fdtd.BoundaryFixed} {
		cfg := sim.DefaultConfig()
		cfg.Boundary = mode

		s := sim.New(cfg)
		for _, m := range Default(cfg.Params) {
			s.AddMetric(m)
		}
		res, err := s.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("%s: run failed: %v", mode, err)
		}
		if res.Metrics["stability"] != 1 {
			t.Errorf("%s: expected a stable run, got %f", mode, res.Metrics["stability"])
		}
		if res.Metrics["peak_ez"] < 1 {
			t.Errorf("%s: expected peak above 1, got %f", mode, res.Metrics["peak_ez"])
		}
		residual[mode] = res.Metrics["edge_residual"]
	}

	if residual[fdtd.BoundaryMur]*10 > residual[fdtd.BoundaryFixed] {
		t.Errorf("edge residual mur=%g fixed=%g, expected an order of magnitude apart",
			residual[fdtd.BoundaryMur], residual[fdtd.BoundaryFixed])
	}
}
