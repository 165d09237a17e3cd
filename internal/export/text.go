// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/doctalk/internal/model"
	"github.com/jeranaias/doctalk/internal/util"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter writes the transcript as it appears on screen.
type TextExporter struct{}

// Export renders tr with Text. Metadata is not part of the text format.
func (TextExporter) Export(tr *model.Transcript, _ Meta) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	return []byte(Text(tr)), nil
}

// FileExtension returns the file extension for plain text.
func (TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (TextExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}

// Text renders every turn as "{label}: {text}" on its own line, in order.
// Multi-line turn text continues on the following lines.
func Text(tr *model.Transcript) string {
	var sb strings.Builder
	for _, t := range tr.Turns() {
		sb.WriteString(t.Line())
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteText writes the text export of tr to path. The file is replaced
// atomically, so an interrupted export never leaves a partial file.
func WriteText(path string, tr *model.Transcript) error {
	return util.AtomicWriteFile(path, []byte(Text(tr)), 0644)
}

// =============================================================================
// PARSING
// =============================================================================

// ParsedTurn is a turn recovered from a text export.
type ParsedTurn struct {
	Speaker model.Speaker
	Text    string
}

// lineLabels maps the label prefixes that start a turn.
var lineLabels = func() map[string]model.Speaker {
	m := make(map[string]model.Speaker)
	for _, s := range model.Speakers() {
		m[s.Label()] = s
	}
	m["User"] = model.SpeakerUser
	return m
}()

// ParseText reads a text export back into turns. A line beginning with a
// known label followed by ": " starts a new turn; any other line continues
// the previous one. Content before the first labelled line is an error.
func ParseText(s string) ([]ParsedTurn, error) {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil, nil
	}

	var turns []ParsedTurn
	for i, line := range strings.Split(s, "\n") {
		if speaker, text, ok := splitLabel(line); ok {
			turns = append(turns, ParsedTurn{Speaker: speaker, Text: text})
			continue
		}
		if len(turns) == 0 {
			return nil, fmt.Errorf("line %d: text before the first turn", i+1)
		}
		last := &turns[len(turns)-1]
		last.Text += "\n" + line
	}
	return turns, nil
}

func splitLabel(line string) (model.Speaker, string, bool) {
	label, text, found := strings.Cut(line, ": ")
	if !found {
		// "You:" with empty text
		if l, ok := strings.CutSuffix(line, ":"); ok {
			if s, known := lineLabels[l]; known {
				return s, "", true
			}
		}
		return "", "", false
	}
	s, known := lineLabels[label]
	if !known {
		return "", "", false
	}
	return s, text, true
}
