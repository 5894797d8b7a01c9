package sim

import (
	"fmt"

	"github.com/san-kum/emsim/internal/fdtd"
)

type RunMode string

const (
	// ModeSingle runs nt steps once; the field accumulates across steps.
	ModeSingle RunMode = "single"
	// ModeRepeating resets the field and reruns nt steps while the sink is active.
	ModeRepeating RunMode = "repeating"
)

func ParseMode(s string) (RunMode, error) {
	switch s {
	case "single", "":
		return ModeSingle, nil
	case "repeating", "repeat", "loop":
		return ModeRepeating, nil
	}
	return "", fmt.Errorf("%w: unknown run mode %q (want single or repeating)", fdtd.ErrInvalidParameter, s)
}

// Frame is the state emitted after one completed step. Ez and Hy are
// copies and may be retained by the receiver.
type Frame struct {
	Run  int
	Step int
	Ez   []float64
	Hy   []float64
}

// Sink is the visualization collaborator. Active is polled once per step
// boundary; the driver stops cleanly as soon as it returns false.
type Sink interface {
	Frame(f Frame) error
	Active() bool
}

type Observer interface {
	OnStep(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Config struct {
	Name     string
	Params   fdtd.Params
	Boundary fdtd.BoundaryMode
	Mode     RunMode
	// MaxRuns bounds the repeating mode; zero means until the sink closes.
	MaxRuns int
}

func DefaultConfig() Config {
	return Config{
		Name:     "mur",
		Params:   fdtd.DefaultParams(),
		Boundary: fdtd.BoundaryMur,
		Mode:     ModeSingle,
	}
}

type StopReason string

const (
	StopCompleted  StopReason = "completed"
	StopCanceled   StopReason = "canceled"
	StopSinkClosed StopReason = "sink_closed"
	StopMaxRuns    StopReason = "max_runs"
)

type Result struct {
	Name       string
	Params     fdtd.Params
	Boundary   fdtd.BoundaryMode
	Mode       RunMode
	Runs       int
	StepsTaken int
	Stop       StopReason
	Final      []float64
	FinalHy    []float64
	Metrics    map[string]float64
}

type funcSink struct {
	fn   func(Frame) bool
	open bool
}

// SinkFunc adapts a callback into a Sink that closes once fn returns false.
func SinkFunc(fn func(Frame) bool) Sink {
	return &funcSink{fn: fn, open: true}
}

func (s *funcSink) Frame(f Frame) error {
	if !s.fn(f) {
		s.open = false
	}
	return nil
}

func (s *funcSink) Active() bool { return s.open }
