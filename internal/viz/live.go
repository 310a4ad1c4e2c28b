package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lifesim/internal/life"
	"github.com/san-kum/lifesim/internal/metrics"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 120
	gifPath         = "lifesim.gif"
)

type TickMsg time.Time

// Model drives one simulation from the terminal.
type Model struct {
	sim      *life.Simulation
	surface  *Surface
	metrics  []metrics.Metric
	interval time.Duration

	running   bool
	showHelp  bool
	recorder  *Recorder
	presented uint64
	skipped   int
	status    string
	err       error

	stepHistory []float64
	popHistory  []float64
}

// NewModel wraps sim; fps sets the tick rate.
func NewModel(sim *life.Simulation, fps int) Model {
	if fps <= 0 {
		fps = 60
	}
	return Model{
		sim:         sim,
		surface:     NewSurface(width, height),
		metrics:     metrics.Default(),
		interval:    time.Second / time.Duration(fps),
		running:     true,
		stepHistory: make([]float64, 0, historyCapacity),
		popHistory:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if err := m.sim.Toggle(context.Background()); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.status = fmt.Sprintf("switched to %s", strings.ToUpper(m.sim.Mode().String()))
		case "p":
			m.running = !m.running
		case "t":
			NextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.surface.Resize(msg.Width-statsWidth-6, msg.Height-2)
	case TickMsg:
		if m.running {
			if err := m.step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() error {
	if err := m.sim.Tick(m.surface); err != nil {
		return err
	}

	canvas, population, presented := m.surface.Latest()
	fresh := presented != m.presented
	if !fresh {
		m.skipped++
		population = -1
	}
	m.presented = presented

	sample := metrics.Sample{
		Generation: m.sim.Generation(),
		Step:       m.sim.LastStep(),
		Cells:      m.sim.Cells(),
		Population: population,
	}
	metrics.Observe(m.metrics, sample)

	m.stepHistory = pushHistory(m.stepHistory, float64(sample.Step)/float64(time.Millisecond))
	if population >= 0 {
		m.popHistory = pushHistory(m.popHistory, float64(population))
	}
	if m.recorder != nil && fresh {
		m.recorder.Capture(canvas)
	}
	return nil
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = &Recorder{}
		m.status = "recording"
		return
	}
	if err := m.recorder.Save(gifPath); err != nil {
		m.status = fmt.Sprintf("gif: %v", err)
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), gifPath)
	}
	m.recorder = nil
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	st := themeStyles(CurrentTheme)
	canvas, population, _ := m.surface.Latest()
	canvasView := st.canvas.Render(canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render("LIFESIM") + "\n")

	status := st.running.Render("RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	if m.recorder != nil {
		status += " " + st.recording.Render("● REC")
	}
	s.WriteString(status + "\n\n")

	if len(m.stepHistory) > 1 {
		chart := asciigraph.Plot(m.stepHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Update ms"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.popHistory) > 1 {
		chart := asciigraph.Plot(m.popHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Population"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Mode", strings.ToUpper(m.sim.Mode().String()))
	row("Device", m.sim.Device().Name())
	row("Generation", fmt.Sprintf("%d", m.sim.Generation()))
	row("Update", m.sim.LastStep().Round(time.Microsecond).String())
	row("Cells", fmt.Sprintf("%d", m.sim.Cells()))
	if population >= 0 {
		row("Population", fmt.Sprintf("%d", population))
	}
	row("Skipped", fmt.Sprintf("%d", m.skipped))
	vals := metrics.Values(m.metrics)
	row("Mean", fmt.Sprintf("%.2fms", vals["step_ms"]))
	row("Throughput", fmt.Sprintf("%.3g cells/s", vals["cells_per_sec"]))

	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("─────────────────────\nSP:GPU/CPU P:Pause Q:Quit\nT:Theme  G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Toggle GPU/CPU execution ║
║  P        - Pause/Resume             ║
║  Q        - Quit                     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run shows sim in the terminal until the user quits.
func Run(sim *life.Simulation, fps int) error {
	p := tea.NewProgram(NewModel(sim, fps), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}
