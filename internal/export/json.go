// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/doctalk/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON format. Metadata and timestamps
// are always included regardless of options.
type JSONExporter struct {
	options *Options
	now     func() time.Time
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts, now: time.Now}
}

type jsonTranscript struct {
	SessionID  string     `json:"session_id,omitempty"`
	Model      string     `json:"model,omitempty"`
	Document   string     `json:"document,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ExportedAt time.Time  `json:"exported_at"`
	Turns      []jsonTurn `json:"turns"`
}

type jsonTurn struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Label     string    `json:"label"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(tr *model.Transcript, meta Meta) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	out := jsonTranscript{
		SessionID:  meta.SessionID,
		Model:      meta.Model,
		Document:   meta.Document,
		ExportedAt: e.now(),
		Turns:      make([]jsonTurn, 0, tr.Len()),
	}
	if !meta.CreatedAt.IsZero() {
		created := meta.CreatedAt
		out.CreatedAt = &created
	}
	for _, t := range tr.Turns() {
		out.Turns = append(out.Turns, jsonTurn{
			ID:        t.ID(),
			Speaker:   t.Speaker().String(),
			Label:     t.Speaker().Label(),
			Text:      t.Text(),
			Timestamp: t.Timestamp(),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
