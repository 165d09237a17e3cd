// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - shared lipgloss styles for command output and the chat REPL.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/doctalk/internal/ui/styles"
)

func init() {
	configureColorProfile()
}

// configureColorProfile applies NO_COLOR, FORCE_COLOR and TTY detection.
func configureColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// LabelStyle is used for left-aligned field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	// ValueStyle is used for values next to labels
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// DimStyle is used for hints and secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// PromptStyle is the chat input prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// WelcomeStyle is the chat banner
	WelcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)

// RenderSeparator renders a horizontal rule of width columns.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 30
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderField renders "label value" with aligned labels.
func RenderField(label, value string) string {
	return "  " + LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}
