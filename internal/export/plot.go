// Package export renders stored Ez profiles as image files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmptyProfile = errors.New("export: empty profile")

// Formats accepted by Write.
var Formats = []string{"png", "svg", "pdf"}

const defaultLimit = 1.5

type Options struct {
	Title  string
	Width  float64 // points
	Height float64 // points
}

func DefaultOptions() Options {
	return Options{Width: 720, Height: 360}
}

// ProfilePlot builds a line chart of Ez against grid cell. The y range is
// fixed at ±1.5 unless the data exceeds it, so frames of one run share axes.
func ProfilePlot(ez []float64, opts Options) (*plot.Plot, error) {
	if len(ez) == 0 {
		return nil, ErrEmptyProfile
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Grid cell (x)"
	p.Y.Label.Text = "Electric field (Ez)"

	xs := make([]float64, len(ez))
	if len(xs) > 1 {
		floats.Span(xs, 0, float64(len(ez)-1))
	}

	pts := make(plotter.XYs, len(ez))
	for i := range ez {
		pts[i].X = xs[i]
		pts[i].Y = ez[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("build line: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	line.Width = vg.Points(2)

	p.Add(plotter.NewGrid(), line)

	limit := math.Max(defaultLimit, floats.Norm(ez, math.Inf(1)))
	p.Y.Min, p.Y.Max = -limit, limit
	p.X.Min, p.X.Max = 0, math.Max(1, float64(len(ez)-1))

	return p, nil
}

// Write renders ez in the given format ("png", "svg" or "pdf") to w.
func Write(w io.Writer, format string, ez []float64, opts Options) error {
	p, err := ProfilePlot(ez, opts)
	if err != nil {
		return err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	wt, err := p.WriterTo(vg.Points(opts.Width), vg.Points(opts.Height), format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}
