package viz

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/emsim/internal/sim"
)

const (
	graphWidth      = 80
	graphHeight     = 16
	historyCapacity = 600
	fieldLimit      = 1.5

	minInterval = time.Millisecond
	maxInterval = time.Second
)

type frameMsg sim.Frame

type doneMsg struct {
	result *sim.Result
}

// playback is shared between the model and the sink goroutine.
type playback struct {
	paused   atomic.Bool
	interval atomic.Int64
}

func (p *playback) delay() time.Duration { return time.Duration(p.interval.Load()) }

func (p *playback) scale(f float64) {
	d := time.Duration(float64(p.delay()) * f)
	d = max(minInterval, min(maxInterval, d))
	p.interval.Store(int64(d))
}

// Model renders the most recent Ez frame.
type Model struct {
	title    string
	nt       int
	frame    sim.Frame
	hasFrame bool
	peaks    []float64
	canvas   *Canvas
	braille  bool
	showHelp bool
	done     bool
	result   *sim.Result
	ctl      *playback
}

func NewModel(title string, nt int, ctl *playback) Model {
	if ctl == nil {
		ctl = &playback{}
	}
	return Model{
		title:  title,
		nt:     nt,
		peaks:  make([]float64, 0, historyCapacity),
		canvas: NewCanvas(graphWidth, graphHeight/2),
		ctl:    ctl,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.ctl.paused.Store(!m.ctl.paused.Load())
		case "+", "=":
			m.ctl.scale(0.5)
		case "-", "_":
			m.ctl.scale(2)
		case "v":
			m.braille = !m.braille
		case "?":
			m.showHelp = !m.showHelp
		}
	case frameMsg:
		m.frame = sim.Frame(msg)
		m.hasFrame = true
		m.peaks = append(m.peaks, peakAbs(m.frame.Ez))
		if len(m.peaks) > historyCapacity {
			m.peaks = m.peaks[1:]
		}
	case doneMsg:
		m.done = true
		m.result = msg.result
	}
	return m, nil
}

func (m Model) status() string {
	switch {
	case m.done:
		return statusDone.Render("FINISHED")
	case m.ctl.paused.Load():
		return statusPaused.Render("PAUSED")
	default:
		return statusRunning.Render("RUNNING")
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s - Time step: %d", m.title, m.frame.Step)) + "\n")

	var plot string
	switch {
	case !m.hasFrame:
		plot = "waiting for first frame..."
	case m.braille:
		m.canvas.Profile(m.frame.Ez, fieldLimit)
		plot = m.canvas.String()
	default:
		data, ok := plottable(m.frame.Ez)
		if !ok {
			plot = "field diverged: no finite values"
			break
		}
		plot = asciigraph.Plot(data,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.LowerBound(-fieldLimit),
			asciigraph.UpperBound(fieldLimit),
			asciigraph.Caption("Ez vs grid cell"),
		)
	}
	plotView := graphStyle.Render(plot)

	var s strings.Builder
	s.WriteString(m.status() + "\n\n")
	s.WriteString(labelStyle.Render("Run") + valueStyle.Render(fmt.Sprintf("%d", m.frame.Run)) + "\n")
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.frame.Step, m.nt)) + "\n")
	if m.nt > 0 {
		s.WriteString(progressBar(float64(m.frame.Step+1)/float64(m.nt), 20) + "\n")
	}
	peak := 0.0
	if len(m.peaks) > 0 {
		peak = m.peaks[len(m.peaks)-1]
	}
	s.WriteString(labelStyle.Render("max |Ez|") + valueStyle.Render(fmt.Sprintf("%.4f", peak)) + "\n")
	s.WriteString(sparkline(m.peaks, 30) + "\n")
	s.WriteString(labelStyle.Render("Delay") + valueStyle.Render(m.ctl.delay().String()) + "\n")
	if m.result != nil {
		s.WriteString(labelStyle.Render("Stop") + valueStyle.Render(string(m.result.Stop)) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause +/-:Speed V:View ?:Help Q:Quit"))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, plotView, statsStyle.Render(s.String())))

	if m.showHelp {
		b.WriteString(`

  Space  pause/resume stepping
  + / -  halve/double the delay between frames
  V      toggle Braille canvas and line graph
  Q      close the view; the run stops at the next step
`)
	}
	return b.String()
}

// peakAbs is max |v|, reported as +Inf once any value is non-finite.
func peakAbs(ez []float64) float64 {
	peak := 0.0
	for _, v := range ez {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// plottable replaces non-finite values with NaN, which asciigraph leaves as
// gaps. It reports false when nothing finite is left.
func plottable(ez []float64) ([]float64, bool) {
	out := make([]float64, len(ez))
	finite := false
	for i, v := range ez {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
		finite = true
	}
	return out, finite
}

// Live is a sim.Sink backed by a Bubble Tea program. The view stays open
// after the run finishes until the user quits.
type Live struct {
	program *tea.Program
	ctl     *playback
	closed  atomic.Bool
	done    chan struct{}
	err     error
	once    sync.Once
}

func NewLive(title string, nt, fps int, opts ...tea.ProgramOption) *Live {
	ctl := &playback{}
	if fps <= 0 {
		fps = 60
	}
	ctl.interval.Store(int64(time.Second / time.Duration(fps)))

	return &Live{
		program: tea.NewProgram(NewModel(title, nt, ctl), opts...),
		ctl:     ctl,
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background.
func (l *Live) Start() {
	l.once.Do(func() {
		go func() {
			_, l.err = l.program.Run()
			l.closed.Store(true)
			close(l.done)
		}()
	})
}

// Frame forwards f to the view and waits one frame interval, longer while
// paused, so the run advances at display speed.
func (l *Live) Frame(f sim.Frame) error {
	if l.closed.Load() {
		return nil
	}
	l.program.Send(frameMsg(f))

	for {
		select {
		case <-l.done:
			return nil
		case <-time.After(l.ctl.delay()):
		}
		if !l.ctl.paused.Load() {
			return nil
		}
	}
}

func (l *Live) Active() bool { return !l.closed.Load() }

// Finish shows the run summary and blocks until the view is closed.
func (l *Live) Finish(res *sim.Result) error {
	if !l.closed.Load() {
		l.program.Send(doneMsg{result: res})
	}
	<-l.done
	return l.err
}

// Close quits the program without waiting for the user.
func (l *Live) Close() error {
	l.program.Quit()
	<-l.done
	return l.err
}
