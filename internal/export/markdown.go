// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/doctalk/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
	now     func() time.Time
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts, now: time.Now}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(tr *model.Transcript, meta Meta) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if tr.Len() == 0 {
		return nil, fmt.Errorf("transcript has no turns")
	}

	title := "Chat"
	if meta.Document != "" {
		title = "Chat about " + meta.Document
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title)))
		if meta.Model != "" {
			sb.WriteString(fmt.Sprintf("model: %s\n", escapeYAML(meta.Model)))
		}
		if meta.Document != "" {
			sb.WriteString(fmt.Sprintf("document: %s\n", escapeYAML(meta.Document)))
		}
		if !meta.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", meta.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("turns: %d\n", tr.Len()))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.now().Format(time.RFC3339)))
		sb.WriteString("generator: doctalk\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		if meta.Model != "" {
			sb.WriteString(fmt.Sprintf("- **Model**: %s\n", meta.Model))
		}
		if meta.Document != "" {
			sb.WriteString(fmt.Sprintf("- **Document**: %s\n", meta.Document))
		}
		if !meta.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(meta.CreatedAt)))
		}
		sb.WriteString(fmt.Sprintf("- **Turns**: %d\n", tr.Len()))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	turns := tr.Turns()
	for i, t := range turns {
		if e.options.IncludeTimestamps && !t.Timestamp().IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", t.Speaker().Label(), formatShortTimestamp(t.Timestamp())))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", t.Speaker().Label()))
		}

		text := strings.TrimSpace(t.Text())
		if t.Speaker() == model.SpeakerSystem {
			text = "*" + escapeMarkdown(text) + "*"
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")

		if i < len(turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from doctalk on %s*\n", e.now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
