// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package picker

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_CursorOnCurrent(t *testing.T) {
	m := New("Select model", []string{"a", "b", "c"}, "b")
	assert.Equal(t, 1, m.Cursor())

	m = New("Select model", []string{"a", "b"}, "missing")
	assert.Equal(t, 0, m.Cursor())
}

func TestUpdate_Navigation(t *testing.T) {
	m := New("Select model", []string{"a", "b", "c"}, "")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown}, keyRunes("j"), keyRunes("j"))
	assert.Equal(t, 2, m.Cursor(), "cursor stops at the last item")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.Cursor())

	m, _ = press(m, keyRunes("g"))
	assert.Equal(t, 0, m.Cursor())

	m, _ = press(m, keyRunes("k"))
	assert.Equal(t, 0, m.Cursor(), "cursor stops at the first item")

	m, _ = press(m, keyRunes("G"))
	assert.Equal(t, 2, m.Cursor())
}

func TestUpdate_Select(t *testing.T) {
	m := New("Select model", []string{"llama3:8b", "qwen2.5:14b"}, "")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	choice, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, "qwen2.5:14b", choice)
}

func TestUpdate_Cancel(t *testing.T) {
	m := New("Select model", []string{"a"}, "")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestUpdate_WindowSize(t *testing.T) {
	m := New("Select model", []string{strings.Repeat("x", 100)}, "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Select model")
	assert.Contains(t, view, "...")
	assert.NotContains(t, view, strings.Repeat("x", 100))
}

func TestView_ShowsItemsAndHelp(t *testing.T) {
	view := New("Select model", []string{"a", "b"}, "b").View()
	assert.Contains(t, view, "> b")
	assert.Contains(t, view, "  a")
	assert.Contains(t, view, "Enter select")
}

func TestRun_NoModels(t *testing.T) {
	_, _, err := Run(strings.NewReader(""), &bytes.Buffer{}, "Select", nil, "")
	assert.ErrorIs(t, err, ErrNoModels)
}
