package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/pid"
	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/task"
)

const (
	width           = 64
	height          = 22
	historyCapacity = 300
	trailCapacity   = 400
	frameRate       = 30
	logLines        = 6
	gainStep        = 1.25
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type TickMsg time.Time

// Model runs a simulated robot in the terminal. Terminal keys are fed to the
// robot as remote presses; the simulation itself can be frozen or sped up
// independently of the robot's own pause.
type Model struct {
	bench  *sim.Bench
	remote *KeyRemote
	log    *diag.Recorder
	title  string

	canvas  *Canvas
	view    Viewport
	trail   []plant.Point
	ranges  []float64
	last    sim.Sample
	running bool
	speed   int
	err     error

	showHelp  bool
	recording bool
	recorder  *GIFRecorder
}

// NewModel wraps a bench whose supervisor reads remote and logs to log.
func NewModel(bench *sim.Bench, remote *KeyRemote, log *diag.Recorder, title string) Model {
	c := NewCanvas(width, height)
	return Model{
		bench:   bench,
		remote:  remote,
		log:     log,
		title:   title,
		canvas:  c,
		view:    FieldView(c, bench.Rig.Field()),
		trail:   make([]plant.Point, 0, trailCapacity),
		ranges:  make([]float64, 0, historyCapacity),
		running: true,
		speed:   max(int(time.Second/frameRate/bench.Supervisor.Config().Period), 1),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case "f":
			m.running = !m.running
		case "+", "=":
			m.speed = min(m.speed*2, 256)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == CurrentTheme.Name {
					SetTheme(names[(i+1)%len(names)])
					break
				}
			}
		case "k", "K":
			m.scaleGain("range", m.bench.Chassis.RangePID(), key == "K")
		case "l", "L":
			m.scaleGain("line", m.bench.Chassis.LinePID(), key == "L")
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.recorder = NewGIFRecorder(width, height)
			}
		default:
			if k, ok := RemoteKey(key); ok {
				m.remote.Press(k)
			}
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance(m.speed)
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

// advance steps the simulation n control periods.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		m.last = m.bench.Sim.Step()
		if err := m.bench.Rig.Err(); err != nil {
			m.err = err
			return
		}
	}
	m.trail = append(m.trail, plant.Point{X: m.last.X, Y: m.last.Y})
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	m.ranges = append(m.ranges, m.last.Range)
	if len(m.ranges) > historyCapacity {
		m.ranges = m.ranges[1:]
	}
}

// scaleGain steps a controller's Kp by gainStep while the robot runs.
func (m *Model) scaleGain(name string, c *pid.Controller, up bool) {
	kp := c.Params()["Kp"]
	if up {
		kp *= gainStep
	} else {
		kp /= gainStep
	}
	if err := c.SetParam("Kp", kp); err != nil {
		m.log.Printf("tune: %v", err)
		return
	}
	m.log.Printf("%s Kp = %.3f", name, kp)
}

func (m *Model) stopRecording() {
	if !m.recording {
		return
	}
	if err := m.recorder.Save("romibot.gif"); err != nil {
		m.log.Printf("gif: %v", err)
	}
	m.recording = false
	m.recorder = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	DrawField(m.canvas, m.view, m.bench.Rig.Field())
	DrawTrail(m.canvas, m.view, m.trail)
	x, y, h := m.bench.Rig.Pose()
	DrawRobot(m.canvas, m.view, x, y, h)
}

func (m Model) status() string {
	c := m.bench.Supervisor.Context()
	th := CurrentTheme
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Foreground(th.Error).Render("FAULT: " + m.err.Error())
	case !m.running:
		return lipgloss.NewStyle().Foreground(th.Muted).Render("FROZEN")
	case c.Mode.Paused && !c.Mode.ResumeAt.IsZero():
		left := c.Mode.ResumeAt.Sub(c.Now).Seconds()
		return lipgloss.NewStyle().Foreground(th.Warning).Render(fmt.Sprintf("WAITING (%.1fs)", left))
	case c.Mode.Paused:
		return lipgloss.NewStyle().Foreground(th.Warning).Render("PAUSED")
	}
	return lipgloss.NewStyle().Foreground(th.Success).Render("RUNNING")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	c := m.bench.Supervisor.Context()
	l, r, lift := m.bench.Rig.Efforts()
	x, y, h := m.bench.Rig.Pose()
	grip, _ := m.bench.Rig.Gripper()

	var s strings.Builder
	title := lipgloss.NewStyle().Foreground(CurrentTheme.Title).Bold(true).MarginBottom(1)
	s.WriteString(title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.ranges) > 1 {
		chart := asciigraph.Plot(m.ranges, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("Range (in)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	state := c.State.String()
	switch cfg := m.bench.Supervisor.Config(); {
	case cfg.LineTest:
		state = "LINE TEST"
	case cfg.RangeTest:
		state = fmt.Sprintf("RANGE TEST (%.2f in)", cfg.RangeTarget)
	}
	s.WriteString(row("Time", fmt.Sprintf("%.2fs  x%d", m.bench.Rig.Elapsed().Seconds(), m.speed)))
	s.WriteString(row("State", state))
	s.WriteString(row("Routine", m.bench.Sequencers[c.Mode.Variant].Variant().Name))
	if c.Mode.Tweak {
		s.WriteString(row("Mode", "manual adjustment"))
	}
	s.WriteString(row("Range", fmt.Sprintf("%.2f in", c.Range)))
	rg, lg := m.bench.Chassis.RangePID().Params(), m.bench.Chassis.LinePID().Params()
	s.WriteString(row("Gains", fmt.Sprintf("range kp %.2f ki %.2f  line kp %.3f", rg["Kp"], rg["Ki"], lg["Kp"])))
	s.WriteString(row("Pose", fmt.Sprintf("(%.1f, %.1f) %.0f°", x, y, h)))
	s.WriteString(row("Wheels", fmt.Sprintf("%4.0f %4.0f", l, r)))
	s.WriteString(row("Lift", fmt.Sprintf("%6d  effort %4.0f", m.bench.Rig.Position(), lift)))
	s.WriteString(row("Gripper", fmt.Sprintf("%d", grip)))
	s.WriteString(row("Progress", ProgressBar(progress(c.State), 20)))

	s.WriteString("\n" + Separator(40) + "\n")
	lines := m.log.Lines()
	if len(lines) > logLines {
		lines = lines[len(lines)-logLines:]
	}
	for _, line := range lines {
		s.WriteString(logStyle.Render(line) + "\n")
	}
	if m.recording {
		s.WriteString(StatusRecording.Render("● REC") + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Play/Pause S:Setup X:Stop B:Back 7:Auto2\nK/k L/l:Gain F:Freeze +/-:Speed G:Record T:Theme ?:Help Q:Quit"))
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════════╗
║              REMOTE BUTTONS              ║
╠══════════════════════════════════════════╣
║  Space/P   - Play/Pause                  ║
║  S         - Setup (manual adjustment)   ║
║  Up/Down   - Lift up/down (manual)       ║
║  Enter     - Stop lift (manual)          ║
║  Left/Right- Gripper open/close (manual) ║
║  X         - Stop mode                   ║
║  B         - Back (restart when stopped) ║
║  7         - Select the 45 degree roof   ║
╠══════════════════════════════════════════╣
║  K/k       - Range Kp up/down            ║
║  L/l       - Line Kp up/down             ║
║  F         - Freeze simulation           ║
║  +/-       - Simulation speed            ║
║  G         - Toggle GIF recording        ║
║  T         - Cycle themes                ║
║  Q         - Quit                        ║
╚══════════════════════════════════════════╝
`

// progress is how far through the routine a state is, 0..1.
func progress(s task.State) float64 {
	if s > task.Idle {
		return 0
	}
	return float64(s) / float64(task.Idle)
}

// Run starts the live view and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
