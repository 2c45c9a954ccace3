// Package tui holds the interactive run picker and styled report rendering.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/totto/penpot-wizard-sub002/internal/config"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c", "ctrl+d"), key.WithHelp("q", "quit")),
}

// Picker is the Bubble Tea model listing run configs.
type Picker struct {
	runs     []config.RunConfig
	cursor   int
	chosen   int
	quitting bool
}

// NewPicker creates a picker over runs.
func NewPicker(runs []config.RunConfig) Picker {
	return Picker{runs: runs, chosen: -1}
}

// Init implements tea.Model.
func (m Picker) Init() tea.Cmd { return nil }

// Update moves the cursor and handles selection.
func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case len(m.runs) == 0:
	case key.Matches(km, keys.Down):
		m.cursor = (m.cursor + 1) % len(m.runs)
	case key.Matches(km, keys.Up):
		m.cursor = (m.cursor - 1 + len(m.runs)) % len(m.runs)
	case key.Matches(km, keys.Choose):
		m.chosen = m.cursor
		return m, tea.Quit
	}
	return m, nil
}

// View renders the run list.
func (m Picker) View() string {
	if m.quitting || m.chosen >= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select a validation run") + "\n\n")
	for i, rc := range m.runs {
		line := rc.Name
		if rc.Description != "" {
			line += "  " + mutedStyle.Render(rc.Description)
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+rc.Name) + strings.TrimPrefix(line, rc.Name) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	hints := make([]string, 0, 4)
	for _, k := range []key.Binding{keys.Up, keys.Down, keys.Choose, keys.Quit} {
		hints = append(hints, k.Help().Key+" "+k.Help().Desc)
	}
	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%d runs · %s", len(m.runs), strings.Join(hints, " · "))))
	return b.String()
}

// Chosen returns the selected run, if any.
func (m Picker) Chosen() (config.RunConfig, bool) {
	if m.chosen < 0 {
		return config.RunConfig{}, false
	}
	return m.runs[m.chosen], true
}

// Pick runs the picker on the terminal. ok is false when the user quit.
func Pick(runs []config.RunConfig, opts ...tea.ProgramOption) (config.RunConfig, bool, error) {
	final, err := tea.NewProgram(NewPicker(runs), opts...).Run()
	if err != nil {
		return config.RunConfig{}, false, fmt.Errorf("run picker: %w", err)
	}
	rc, ok := final.(Picker).Chosen()
	return rc, ok, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
