// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns model replies into terminal output. Without markdown it
// passes text through unchanged.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer creates a renderer. Markdown rendering is only used when
// enabled and stdout is a terminal so piped output stays plain.
func NewRenderer(markdown bool, wordWrap int) *Renderer {
	if !markdown || !IsStdoutTTY() {
		return &Renderer{}
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}
	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		// Fall back to plain text
		return &Renderer{}
	}
	return &Renderer{md: md}
}

// Render renders content, returning it unchanged when rendering fails.
func (r *Renderer) Render(content string) string {
	if r == nil || r.md == nil {
		return content
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return out
}
