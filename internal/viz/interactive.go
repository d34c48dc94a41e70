package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var presetInfo = map[string]string{
	"roof25":    "25 degree roof, unattended",
	"roof45":    "45 degree roof, unattended",
	"line-test": "line following bench test",
}

const (
	stateMenu = iota
	stateSim
)

// Launcher builds the live view for a preset.
type Launcher func(preset string) (Model, error)

type menu struct {
	state, cursor int
	presets       []string
	launch        Launcher
	err           error
	live          Model
}

// NewMenu lists presets and launches the chosen one.
func NewMenu(presets []string, launch Launcher) tea.Model {
	return menu{presets: presets, launch: launch}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		live, err := m.launch(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live, m.state, m.err = live, stateSim, nil
		return m, m.live.Init()
	}
	return m, nil
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}
	var (
		h      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
		sub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
		mark   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
		name   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
		desc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
		dimmed = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
		errSt  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("ROMIBOT") + "\n    " + sub.Render("panel swap bench") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, p := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", mark.Render("▸"), name.Render(fmt.Sprintf("%-12s", p)), desc.Render(presetInfo[p])))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", dimmed.Render(fmt.Sprintf("  %-12s", p)), dimmed.Render(presetInfo[p])))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errSt.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + sub.Render("j/k navigate  enter start  q quit") + "\n")
	return b.String()
}

// RunInteractive shows the preset menu and blocks until the user quits.
func RunInteractive(presets []string, launch Launcher) error {
	_, err := tea.NewProgram(NewMenu(presets, launch), tea.WithAltScreen()).Run()
	return err
}
