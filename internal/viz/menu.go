package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/tiltfluid/internal/config"
)

var (
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

var presetInfo = map[string]string{
	"calm":    "defaults, gentle settling",
	"water":   "low viscosity, lively splashes",
	"honey":   "thick and slow",
	"mercury": "dense beads that cling together",
	"swarm":   "many small particles",
	"sand":    "grainy, no bounce",
}

// Menu lets the user pick a preset before the live view starts.
type Menu struct {
	presets []string
	cursor  int
	base    Options
	size    *tea.WindowSizeMsg
	err     error
}

func NewMenu(base Options) Menu {
	return Menu{presets: config.ListPresets(), base: base}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var key tea.KeyMsg
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = &msg
		return m, nil
	case tea.KeyMsg:
		key = msg
	default:
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(m.presets)) % len(m.presets)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(m.presets)
	case "enter", " ":
		return m.launch()
	}
	return m, nil
}

func (m Menu) launch() (tea.Model, tea.Cmd) {
	name := m.presets[m.cursor]
	opts := m.base
	opts.Preset = name
	opts.Config = *config.GetPreset(name)
	live, err := NewModel(opts)
	if err != nil {
		m.err = err
		return m, nil
	}
	// The live view missed the size the terminal reported to the menu.
	if m.size != nil {
		live.Update(*m.size)
	}
	return live, live.Init()
}

func (m Menu) View() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("tiltfluid") + dim.Render("  pick a fluid") + "\n\n")
	for i, name := range m.presets {
		line := fmt.Sprintf("%-10s %s", name, dim.Render(presetInfo[name]))
		if i == m.cursor {
			b.WriteString("  " + cyan.Render("▸ ") + white.Render(line) + "\n")
		} else {
			b.WriteString("    " + dim.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n  " + m.err.Error() + "\n")
	}
	b.WriteString("\n  " + dim.Render("↑↓ select · enter start · q quit") + "\n")
	return b.String()
}

// RunMenu shows the preset picker and then the live view.
func RunMenu(base Options) error {
	_, err := tea.NewProgram(NewMenu(base), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
