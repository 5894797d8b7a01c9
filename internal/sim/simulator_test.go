package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/emsim/internal/fdtd"
	"github.com/san-kum/emsim/internal/sim"
)

// recordingSink keeps every frame and closes after limit frames (0 = never).
type recordingSink struct {
	frames []sim.Frame
	limit  int
	err    error
}

func (r *recordingSink) Frame(f sim.Frame) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingSink) Active() bool {
	return r.limit == 0 || len(r.frames) < r.limit
}

type countingMetric struct {
	observed int
	resets   int
}

func (c *countingMetric) Name() string      { return "count" }
func (c *countingMetric) Observe(sim.Frame) { c.observed++ }
func (c *countingMetric) Value() float64    { return float64(c.observed) }

func (c *countingMetric) Reset() {
	c.observed = 0
	c.resets++
}

func shortConfig(nt int, boundary fdtd.BoundaryMode, mode sim.RunMode) sim.Config {
	p := fdtd.DefaultParams()
	p.NT = nt
	return sim.Config{Name: "test", Params: p, Boundary: boundary, Mode: mode}
}

func maxAbs(s []float64) float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("configuration", func() {
		It("rejects invalid parameters before stepping", func() {
			cfg := shortConfig(10, fdtd.BoundaryMur, sim.ModeSingle)
			cfg.Params.Src = -1
			sink := &recordingSink{}

			res, err := sim.New(cfg).Run(ctx, sink)
			Expect(errors.Is(err, fdtd.ErrInvalidParameter)).To(BeTrue())
			Expect(res).To(BeNil())
			Expect(sink.frames).To(BeEmpty())
		})

		It("rejects repeating mode with neither sink nor run limit", func() {
			cfg := shortConfig(10, fdtd.BoundaryFixed, sim.ModeRepeating)
			_, err := sim.New(cfg).Run(ctx, nil)
			Expect(errors.Is(err, fdtd.ErrInvalidParameter)).To(BeTrue())
		})

		It("rejects an unknown boundary", func() {
			cfg := shortConfig(10, "pml", sim.ModeSingle)
			_, err := sim.New(cfg).Run(ctx, nil)
			Expect(errors.Is(err, fdtd.ErrInvalidParameter)).To(BeTrue())
		})
	})

	Describe("single-run mode", func() {
		It("emits one frame per step in order", func() {
			sink := &recordingSink{}
			res, err := sim.New(shortConfig(50, fdtd.BoundaryMur, sim.ModeSingle)).Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Stop).To(Equal(sim.StopCompleted))
			Expect(res.Runs).To(Equal(1))
			Expect(res.StepsTaken).To(Equal(50))
			Expect(sink.frames).To(HaveLen(50))
			for i, f := range sink.frames {
				Expect(f.Step).To(Equal(i))
				Expect(f.Run).To(Equal(0))
				Expect(f.Ez).To(HaveLen(200))
			}
			Expect(res.Final).To(Equal(sink.frames[49].Ez))
		})

		It("hands out frames that are not mutated by later steps", func() {
			sink := &recordingSink{}
			_, err := sim.New(shortConfig(60, fdtd.BoundaryFixed, sim.ModeSingle)).Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())

			Expect(sink.frames[0].Ez[50]).To(BeNumerically("~", math.Exp(-0.5*(40.0/12.0)*(40.0/12.0)), 1e-12))
			Expect(sink.frames[40].Ez[50]).NotTo(Equal(sink.frames[59].Ez[50]))
		})

		It("accumulates state across steps", func() {
			res, err := sim.New(shortConfig(300, fdtd.BoundaryMur, sim.ModeSingle)).Run(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(maxAbs(res.Final)).To(BeNumerically(">", 0.5))
		})

		It("runs zero steps when nt is zero", func() {
			sink := &recordingSink{}
			res, err := sim.New(shortConfig(0, fdtd.BoundaryMur, sim.ModeSingle)).Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stop).To(Equal(sim.StopCompleted))
			Expect(sink.frames).To(BeEmpty())
			Expect(maxAbs(res.Final)).To(BeZero())
		})
	})

	Describe("repeating-run mode", func() {
		It("restarts from a zero field while the sink stays active", func() {
			sink := &recordingSink{limit: 25}
			res, err := sim.New(shortConfig(10, fdtd.BoundaryFixed, sim.ModeRepeating)).Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Stop).To(Equal(sim.StopSinkClosed))
			Expect(res.Runs).To(Equal(3))
			Expect(sink.frames).To(HaveLen(25))

			Expect(sink.frames[10].Run).To(Equal(1))
			Expect(sink.frames[10].Step).To(Equal(0))
			Expect(sink.frames[20].Step).To(Equal(0))
			// Every run starts from the same state, so runs are identical.
			for i := 0; i < 10; i++ {
				Expect(sink.frames[10+i].Ez).To(Equal(sink.frames[i].Ez))
			}
		})

		It("stops after max runs when headless", func() {
			cfg := shortConfig(20, fdtd.BoundaryFixed, sim.ModeRepeating)
			cfg.MaxRuns = 4
			m := &countingMetric{}
			s := sim.New(cfg)
			s.AddMetric(m)

			res, err := s.Run(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stop).To(Equal(sim.StopMaxRuns))
			Expect(res.Runs).To(Equal(4))
			Expect(res.StepsTaken).To(Equal(80))
			Expect(m.resets).To(Equal(4))
			Expect(res.Metrics["count"]).To(Equal(20.0))
		})
	})

	Describe("stopping", func() {
		It("treats cancellation as a normal stop at a step boundary", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var seen []int
			sink := sim.SinkFunc(func(f sim.Frame) bool {
				seen = append(seen, f.Step)
				if f.Step == 6 {
					cancel()
				}
				return true
			})

			res, err := sim.New(shortConfig(100, fdtd.BoundaryMur, sim.ModeSingle)).Run(cctx, sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stop).To(Equal(sim.StopCanceled))
			Expect(res.StepsTaken).To(Equal(7))
			Expect(seen).To(HaveLen(7))
		})

		It("stops once a callback sink closes", func() {
			sink := sim.SinkFunc(func(f sim.Frame) bool { return f.Step < 4 })
			res, err := sim.New(shortConfig(100, fdtd.BoundaryFixed, sim.ModeRepeating)).Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Stop).To(Equal(sim.StopSinkClosed))
			Expect(res.StepsTaken).To(Equal(5))
		})

		It("aborts with the sink's error", func() {
			boom := errors.New("display lost")
			sink := &recordingSink{err: boom}
			res, err := sim.New(shortConfig(10, fdtd.BoundaryMur, sim.ModeSingle)).Run(ctx, sink)
			Expect(err).To(MatchError(boom))
			Expect(res.StepsTaken).To(Equal(1))
		})
	})

	Describe("observers", func() {
		It("sees every frame before the sink", func() {
			var order []string
			s := sim.New(shortConfig(3, fdtd.BoundaryMur, sim.ModeSingle))
			s.AddObserver(observerFunc(func(sim.Frame) { order = append(order, "observer") }))

			sink := sim.SinkFunc(func(sim.Frame) bool {
				order = append(order, "sink")
				return true
			})
			_, err := s.Run(ctx, sink)
			Expect(err).NotTo(HaveOccurred())
			Expect(order).To(Equal([]string{"observer", "sink", "observer", "sink", "observer", "sink"}))
		})
	})
})

type observerFunc func(sim.Frame)

func (f observerFunc) OnStep(fr sim.Frame) { f(fr) }

var _ = Describe("Compare", func() {
	It("runs both boundaries independently", func() {
		mur := shortConfig(2500, fdtd.BoundaryMur, sim.ModeSingle)
		fixed := shortConfig(2500, fdtd.BoundaryFixed, sim.ModeSingle)
		fixed.Name = "fixed"

		results, err := sim.Compare(context.Background(), []sim.Config{mur, fixed}, func(sim.Config) []sim.Metric {
			return []sim.Metric{&countingMetric{}}
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))

		Expect(results[0].Boundary).To(Equal(fdtd.BoundaryMur))
		Expect(results[1].Name).To(Equal("fixed"))
		Expect(maxAbs(results[0].Final)).To(BeNumerically("<", 0.05))
		Expect(maxAbs(results[1].Final)).To(BeNumerically(">", 0.5))
		Expect(results[0].Metrics["count"]).To(Equal(2500.0))
	})

	It("fails when any configuration is invalid", func() {
		bad := shortConfig(10, fdtd.BoundaryMur, sim.ModeSingle)
		bad.Params.Dx = 0
		_, err := sim.Compare(context.Background(), []sim.Config{shortConfig(10, fdtd.BoundaryMur, sim.ModeSingle), bad}, nil)
		Expect(errors.Is(err, fdtd.ErrInvalidParameter)).To(BeTrue())
	})
})
