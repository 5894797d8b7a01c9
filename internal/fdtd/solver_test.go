package fdtd

import (
	"context"
	"errors"
	"math"
	"testing"
)

func newTestSolver(t *testing.T, p Params, mode BoundaryMode) *Solver {
	t.Helper()
	s, err := NewSolver(p, mode)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	return s
}

func maxAbs(s []float64) float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func TestNewSolver_Invalid(t *testing.T) {
	p := DefaultParams()
	p.Src = p.NX

	if _, err := NewSolver(p, BoundaryMur); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := NewSolver(DefaultParams(), "pml"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for unknown boundary, got %v", err)
	}
}

func TestSolver_PulsePeak(t *testing.T) {
	s := newTestSolver(t, DefaultParams(), BoundaryMur)

	if maxAbs(s.Field().Ez) != 0 {
		t.Fatal("field not zero before the first step")
	}

	var at30, at40, at50 float64
	for step, ez := range s.Frames(context.Background()) {
		switch step {
		case 30:
			at30 = ez[50]
		case 40:
			at40 = ez[50]
		case 50:
			at50 = ez[50]
		}
		if step == 50 {
			break
		}
	}

	if math.Abs(at40-1.0) > 0.05 {
		t.Errorf("expected Ez[50] ~ 1.0 at step 40, got %f", at40)
	}
	if at40 <= at30 || at40 <= at50 {
		t.Errorf("Ez[50] not a local maximum at step 40: %f, %f, %f", at30, at40, at50)
	}
}

func TestSolver_Causality(t *testing.T) {
	p := DefaultParams()
	s := newTestSolver(t, p, BoundaryMur)
	f := s.Field()

	for k := 0; k < 100; k++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", k, err)
		}
		for i := 1; i < p.NX-1; i++ {
			d := i - p.Src
			if d < 0 {
				d = -d
			}
			if d > k && f.Ez[i] != 0 {
				t.Fatalf("step %d: Ez[%d]=%g before the wavefront arrived", k, i, f.Ez[i])
			}
		}
		for i := 0; i < p.NX; i++ {
			if (i < p.Src-k || i > p.Src+k-1) && f.Hy[i] != 0 {
				t.Fatalf("step %d: Hy[%d]=%g before the wavefront arrived", k, i, f.Hy[i])
			}
		}
	}
}

func TestSolver_EdgeArrival(t *testing.T) {
	s := newTestSolver(t, DefaultParams(), BoundaryMur)
	left, right := -1, -1

	for step, ez := range s.Frames(context.Background()) {
		if left < 0 && ez[0] != 0 {
			left = step
		}
		if right < 0 && ez[len(ez)-1] != 0 {
			right = step
		}
		if step == 200 {
			break
		}
	}

	if left != 49 {
		t.Errorf("expected Ez[0] to leave zero at step 49, got %d", left)
	}
	if right != 148 {
		t.Errorf("expected Ez[199] to leave zero at step 148, got %d", right)
	}
}

func TestSolver_AbsorbingVersusFixed(t *testing.T) {
	p := DefaultParams()

	edge := map[BoundaryMode]float64{}
	final := map[BoundaryMode]float64{}
	for _, mode := range []BoundaryMode{BoundaryMur, BoundaryFixed} {
		s := newTestSolver(t, p, mode)
		for step, ez := range s.Frames(context.Background()) {
			// Reflection off the left wall peaks around step 160.
			if (mode == BoundaryFixed && step == 160) || (mode == BoundaryMur && step == 200) {
				edge[mode] = maxAbs(ez[:10])
			}
		}
		final[mode] = maxAbs(s.Field().Ez)
	}

	if edge[BoundaryMur] > 0.01 {
		t.Errorf("mur: residual near left edge %f, want < 0.01", edge[BoundaryMur])
	}
	if edge[BoundaryFixed] < 0.5 {
		t.Errorf("fixed: expected a reflected pulse near the wall, got %f", edge[BoundaryFixed])
	}
	if final[BoundaryMur] > 0.05 {
		t.Errorf("mur: residual after %d steps %f, want < 0.05", p.NT, final[BoundaryMur])
	}
	if final[BoundaryFixed] < 0.5 {
		t.Errorf("fixed: expected trapped pulse after %d steps, got %f", p.NT, final[BoundaryFixed])
	}
}

func TestSolver_FixedStaysBounded(t *testing.T) {
	p := DefaultParams()
	s := newTestSolver(t, p, BoundaryFixed)

	var first, last float64
	for step, ez := range s.Frames(context.Background()) {
		m := maxAbs(ez)
		if math.IsNaN(m) || m > 2.5 {
			t.Fatalf("step %d: field grew to %f", step, m)
		}
		if step < 500 {
			first = math.Max(first, m)
		}
		if step >= p.NT-500 {
			last = math.Max(last, m)
		}
	}

	if last > first*1.01 {
		t.Errorf("amplitude grew from %f to %f", first, last)
	}
	if s.Field().Ez[0] != 0 {
		t.Errorf("fixed wall Ez[0] moved: %g", s.Field().Ez[0])
	}
}

func TestSolver_Symmetry(t *testing.T) {
	p := DefaultParams()
	p.NX = 201
	p.Src = 100
	s := newTestSolver(t, p, BoundaryFixed)
	f := s.Field()

	// The wavefront reaches the walls after 100 steps.
	for k := 0; k < 99; k++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", k, err)
		}
		for d := 1; d < 100; d++ {
			if diff := math.Abs(f.Ez[p.Src+d] - f.Ez[p.Src-d]); diff > 1e-12 {
				t.Fatalf("step %d: Ez asymmetric at offset %d by %g", k, d, diff)
			}
		}
		// Hy[i] sits at i+1/2, mirrored onto 2*src-i-1 with opposite sign.
		for i := p.Src; i < p.NX-1; i++ {
			if diff := math.Abs(f.Hy[i] + f.Hy[2*p.Src-i-1]); diff > 1e-12 {
				t.Fatalf("step %d: Hy not antisymmetric at %d by %g", k, i, diff)
			}
		}
	}
}

func TestSolver_Deterministic(t *testing.T) {
	p := DefaultParams()
	p.NT = 600
	a := newTestSolver(t, p, BoundaryMur)
	b := newTestSolver(t, p, BoundaryMur)

	for k := 0; k < p.NT; k++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
		if err := b.Step(); err != nil {
			t.Fatal(err)
		}
		for i := range a.Field().Ez {
			if a.Field().Ez[i] != b.Field().Ez[i] || a.Field().Hy[i] != b.Field().Hy[i] {
				t.Fatalf("step %d: trajectories diverged at cell %d", k, i)
			}
		}
	}
}

func TestSolver_ResetReplays(t *testing.T) {
	p := DefaultParams()
	p.NT = 300
	s := newTestSolver(t, p, BoundaryMur)

	var first []float64
	for _, ez := range s.Frames(context.Background()) {
		first = ez
	}
	if s.StepIndex() != p.NT {
		t.Fatalf("expected step index %d, got %d", p.NT, s.StepIndex())
	}

	s.Reset()
	if s.StepIndex() != 0 || maxAbs(s.Field().Ez) != 0 || s.Field().LeftPrev != 0 {
		t.Fatal("reset did not clear solver state")
	}

	var second []float64
	for _, ez := range s.Frames(context.Background()) {
		second = ez
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay differs at cell %d", i)
		}
	}
}

func TestSolver_FramesStop(t *testing.T) {
	p := DefaultParams()
	p.NT = 10

	s := newTestSolver(t, p, BoundaryFixed)
	n := 0
	for range s.Frames(context.Background()) {
		n++
	}
	if n != 10 {
		t.Errorf("expected 10 frames, got %d", n)
	}

	s = newTestSolver(t, p, BoundaryFixed)
	ctx, cancel := context.WithCancel(context.Background())
	n = 0
	for step := range s.Frames(ctx) {
		n++
		if step == 2 {
			cancel()
		}
	}
	cancel()
	if n != 3 || s.StepIndex() != 3 {
		t.Errorf("expected to stop after 3 steps, got %d frames, index %d", n, s.StepIndex())
	}

	s = newTestSolver(t, p, BoundaryFixed)
	for step := range s.Frames(context.Background()) {
		if step == 4 {
			break
		}
	}
	if s.StepIndex() != 5 {
		t.Errorf("expected step index 5 after break, got %d", s.StepIndex())
	}
}

func TestSolver_FramesStepError(t *testing.T) {
	p := DefaultParams()
	p.NT = 10

	s := newTestSolver(t, p, BoundaryFixed)
	s.SetSource(NewGaussianPulse(p.NX, p.PulseCenter, p.PulseWidth))

	n := 0
	for range s.Frames(context.Background()) {
		n++
	}
	if n != 0 {
		t.Errorf("expected no frames, got %d", n)
	}
	if !errors.Is(s.Err(), ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange from Err, got %v", s.Err())
	}

	s.Reset()
	if s.Err() != nil {
		t.Errorf("Reset should clear the error, got %v", s.Err())
	}

	s = newTestSolver(t, p, BoundaryFixed)
	for range s.Frames(context.Background()) {
	}
	if s.Err() != nil {
		t.Errorf("unexpected error after a full run: %v", s.Err())
	}
}

func TestSolver_FramesAreCopies(t *testing.T) {
	p := DefaultParams()
	p.NT = 60
	s := newTestSolver(t, p, BoundaryFixed)

	var kept []float64
	for step, ez := range s.Frames(context.Background()) {
		if step == 45 {
			kept = ez
		}
	}
	v := kept[p.Src]
	if v == s.Field().Ez[p.Src] {
		t.Errorf("retained frame tracks the live field (%f)", v)
	}
}
