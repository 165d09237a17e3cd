// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package picker implements the model selection list shown before a chat
// starts when no model has been chosen.
package picker

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/doctalk/internal/ui/styles"
	"github.com/jeranaias/doctalk/internal/util"
)

// ErrNoModels is returned by Run when there is nothing to pick from.
var ErrNoModels = errors.New("no models installed (try: ollama pull <model>)")

const defaultWidth = 60

var (
	titleStyle    = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	itemStyle     = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	selectedStyle = lipgloss.NewStyle().Foreground(styles.Purple).Background(styles.SelectionBg).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// Model is the bubbletea model for the picker.
type Model struct {
	keys   KeyMap
	title  string
	items  []string
	cursor int
	width  int

	chosen    string
	cancelled bool
}

// New creates a picker over items with the cursor on current when present.
func New(title string, items []string, current string) Model {
	m := Model{
		keys:  DefaultKeyMap(),
		title: title,
		items: append([]string(nil), items...),
		width: defaultWidth,
	}
	for i, it := range m.items {
		if it == current {
			m.cursor = i
			break
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Home):
			m.cursor = 0
		case key.Matches(msg, m.keys.End):
			if len(m.items) > 0 {
				m.cursor = len(m.items) - 1
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.items) > 0 {
				m.chosen = m.items[m.cursor]
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	width := m.width - 4
	if width < 10 {
		width = 10
	}
	for i, it := range m.items {
		name := util.TruncateWidth(it, width)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + name))
		} else {
			b.WriteString(itemStyle.Render("  " + name))
		}
		b.WriteString("\n")
	}

	help := make([]string, 0, 4)
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(strings.Join(help, "  ")))
	b.WriteString("\n")
	return b.String()
}

// Cursor returns the highlighted index.
func (m Model) Cursor() int {
	return m.cursor
}

// Selected returns the chosen item, or false when the picker was cancelled.
func (m Model) Selected() (string, bool) {
	if m.cancelled || m.chosen == "" {
		return "", false
	}
	return m.chosen, true
}

// Run shows the picker on in/out and blocks until the user chooses or
// cancels. ok is false on cancel.
func Run(in io.Reader, out io.Writer, title string, items []string, current string) (string, bool, error) {
	if len(items) == 0 {
		return "", false, ErrNoModels
	}
	p := tea.NewProgram(New(title, items, current), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("model picker: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return "", false, fmt.Errorf("model picker: unexpected model %T", final)
	}
	choice, ok := m.Selected()
	return choice, ok, nil
}
