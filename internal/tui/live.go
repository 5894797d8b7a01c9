// Package tui renders Ez profiles as plain ANSI text, for terminals where
// the full-screen view is unavailable.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/emsim/internal/sim"
)

const (
	width       = 70
	height      = 20
	fieldLimit  = 1.5
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Printer is a sim.Sink that redraws the whole profile at most frameRate
// times per second. It stays active until Stop or until its lifetime, if
// any, has elapsed.
type Printer struct {
	out       io.Writer
	title     string
	frameRate int
	lifetime  time.Duration

	started   time.Time
	lastFrame time.Time
	stopped   bool
	drawn     int
	canvas    [][]rune
	now       func() time.Time
}

// NewPrinter writes to out. A lifetime of zero keeps the printer active
// until Stop is called.
func NewPrinter(out io.Writer, title string, frameRate int, lifetime time.Duration) *Printer {
	if frameRate <= 0 {
		frameRate = 30
	}
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &Printer{
		out:       out,
		title:     title,
		frameRate: frameRate,
		lifetime:  lifetime,
		canvas:    canvas,
		now:       time.Now,
	}
}

func (r *Printer) Start() {
	r.started = r.now()
	fmt.Fprint(r.out, hideCursor)
}

func (r *Printer) Stop() {
	if r.stopped {
		return
	}
	r.stopped = true
	fmt.Fprint(r.out, showCursor)
}

// Drawn reports how many frames were actually rendered.
func (r *Printer) Drawn() int { return r.drawn }

func (r *Printer) Active() bool {
	if r.stopped {
		return false
	}
	if r.lifetime > 0 && !r.started.IsZero() && r.now().Sub(r.started) >= r.lifetime {
		return false
	}
	return true
}

func (r *Printer) Frame(f sim.Frame) error {
	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return nil
	}
	r.lastFrame = now

	r.clear()
	r.drawProfile(f.Ez)
	r.drawn++
	return r.render(f)
}

func (r *Printer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *Printer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *Printer) row(v float64) int {
	if math.IsNaN(v) {
		return height / 2
	}
	v = max(-fieldLimit, min(fieldLimit, v))
	return int(math.Round((fieldLimit - v) / (2 * fieldLimit) * float64(height-1)))
}

// drawProfile samples ez onto the canvas columns and fills each column from
// the zero axis to the sample.
func (r *Printer) drawProfile(ez []float64) {
	axis := r.row(0)
	for x := 0; x < width; x++ {
		r.set(x, axis, '-')
	}
	if len(ez) == 0 {
		return
	}

	for x := 0; x < width; x++ {
		y := r.row(ez[x*len(ez)/width])
		lo, hi := min(y, axis), max(y, axis)
		for yy := lo; yy <= hi; yy++ {
			r.set(x, yy, '|')
		}
		r.set(x, y, '*')
	}
}

func (r *Printer) render(f sim.Frame) error {
	peak := 0.0
	for _, v := range f.Ez {
		peak = math.Max(peak, math.Abs(v))
	}

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s - Time step: %d  run %d\n", r.title, f.Step, f.Run))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  cells=%d  max|Ez|=%.4f\n", len(f.Ez), peak))

	_, err := io.WriteString(r.out, b.String())
	return err
}
