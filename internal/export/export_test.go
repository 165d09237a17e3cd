// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/doctalk/internal/model"
)

func sampleTranscript() *model.Transcript {
	at := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	return model.NewTranscript(
		model.NewTurnAt(model.SpeakerSystem, "File 'notes.txt' content loaded. You can now chat about it.", at),
		model.NewTurnAt(model.SpeakerUser, "Hello", at),
		model.NewTurnAt(model.SpeakerModel, "Hi there", at.Add(time.Second)),
	)
}

// =============================================================================
// TEXT
// =============================================================================

func TestText(t *testing.T) {
	got := Text(sampleTranscript())
	want := "System: File 'notes.txt' content loaded. You can now chat about it.\n" +
		"You: Hello\n" +
		"Model: Hi there\n"
	assert.Equal(t, want, got)
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "", Text(model.NewTranscript()))
}

func TestParseText_RoundTrip(t *testing.T) {
	tr := model.NewTranscript(
		model.NewTurn(model.SpeakerUser, "Summarize this"),
		model.NewTurn(model.SpeakerModel, "Line one\nline two\n\n- bullet"),
		model.NewTurn(model.SpeakerUser, ""),
		model.NewTurn(model.SpeakerModel, "Error: model not found"),
	)

	parsed, err := ParseText(Text(tr))
	require.NoError(t, err)
	require.Len(t, parsed, tr.Len())
	for i, turn := range tr.Turns() {
		assert.Equal(t, turn.Speaker(), parsed[i].Speaker, "turn %d", i)
		assert.Equal(t, turn.Text(), parsed[i].Text, "turn %d", i)
	}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ParsedTurn
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{
			name:  "canonical user label",
			input: "User: hi\nModel: yo\n",
			want:  []ParsedTurn{{model.SpeakerUser, "hi"}, {model.SpeakerModel, "yo"}},
		},
		{
			name:  "unknown label continues",
			input: "Model: answer\nNote: not a speaker\n",
			want:  []ParsedTurn{{model.SpeakerModel, "answer\nNote: not a speaker"}},
		},
		{
			name:  "bare label",
			input: "You:\nModel: ok",
			want:  []ParsedTurn{{model.SpeakerUser, ""}, {model.SpeakerModel, "ok"}},
		},
		{name: "leading text", input: "preamble\nYou: hi", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseText(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chat.txt")
	tr := sampleTranscript()

	require.NoError(t, WriteText(path, tr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Text(tr), string(data))
	assert.Equal(t, 3, tr.Len())
}

// =============================================================================
// PDF
// =============================================================================

func fakePandoc(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pandoc-fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestTextPathFor(t *testing.T) {
	assert.Equal(t, "/tmp/chat.txt", TextPathFor("/tmp/chat.pdf"))
	assert.Equal(t, "/tmp/chat.txt", TextPathFor("/tmp/chat.PDF"))
	assert.Equal(t, "/tmp/report.out.txt", TextPathFor("/tmp/report.out"))
}

func TestPDFPathFor(t *testing.T) {
	assert.Equal(t, "/tmp/chat.pdf", PDFPathFor("/tmp/chat.pdf"))
	assert.Equal(t, "/tmp/chat.PDF", PDFPathFor("/tmp/chat.PDF"))
	assert.Equal(t, "/tmp/notes.pdf", PDFPathFor("/tmp/notes.txt"))
	assert.Equal(t, "/tmp/notes.pdf", PDFPathFor("/tmp/notes"))
	assert.Equal(t, "/tmp/report.md.pdf", PDFPathFor("/tmp/report.md"))
}

func TestWritePDF(t *testing.T) {
	// Fake pandoc copies its input to the output path
	pandoc := fakePandoc(t, `[ "$2" = "-o" ] || exit 9
cp "$1" "$3"
`)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "chat.pdf")
	tr := sampleTranscript()

	w := NewPDFWriter(pandoc, nil)
	require.NoError(t, w.WritePDF(context.Background(), pdf, tr))

	converted, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, Text(tr), string(converted))
	assert.FileExists(t, filepath.Join(dir, "chat.txt"))
}

func TestWritePDF_ConverterFailure(t *testing.T) {
	pandoc := fakePandoc(t, `echo "pdflatex not found" >&2
exit 43
`)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "chat.pdf")
	tr := sampleTranscript()
	before := Text(tr)

	err := NewPDFWriter(pandoc, nil).WritePDF(context.Background(), pdf, tr)
	require.Error(t, err)
	require.True(t, IsConvertError(err))

	var convErr *ConvertError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "pdflatex not found", convErr.Stderr)
	assert.Contains(t, err.Error(), "pdflatex not found")
	assert.Equal(t, before, Text(tr))
	assert.NoFileExists(t, pdf)
}

func TestWritePDF_MissingPandoc(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "chat.pdf")
	err := NewPDFWriter(filepath.Join(t.TempDir(), "no-pandoc"), nil).WritePDF(context.Background(), pdf, sampleTranscript())
	assert.True(t, IsConvertError(err))
}

// =============================================================================
// MARKDOWN AND JSON
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	e := NewMarkdownExporter(nil)
	e.now = func() time.Time { return time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC) }

	out, err := e.Export(sampleTranscript(), Meta{Model: "llama3:8b", Document: "notes.txt"})
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "model: \"llama3:8b\"\n")
	assert.Contains(t, md, "# Chat about notes.txt\n")
	assert.Contains(t, md, "### You <sub>14:30:00</sub>\n\nHello\n")
	assert.Contains(t, md, "### Model <sub>14:30:01</sub>\n\nHi there\n")
	assert.Contains(t, md, "*Exported from doctalk on March 2, 2025 at 9:00 AM*")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	e := NewMarkdownExporter(&Options{})
	out, err := e.Export(sampleTranscript(), Meta{})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(out), "---\n"))
	assert.Contains(t, string(out), "### You\n\nHello\n")
}

func TestMarkdownExporter_Empty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(model.NewTranscript(), Meta{})
	assert.Error(t, err)
}

func TestEscapeYAML_Newline(t *testing.T) {
	assert.Equal(t, `"a\nInjection: b"`, escapeYAML("a\nInjection: b"))
	assert.Equal(t, "plain", escapeYAML("plain"))
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript(), Meta{SessionID: "sess_1", Model: "m"})
	require.NoError(t, err)

	var decoded struct {
		SessionID string `json:"session_id"`
		Model     string `json:"model"`
		Turns     []struct {
			Speaker string `json:"speaker"`
			Label   string `json:"label"`
			Text    string `json:"text"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sess_1", decoded.SessionID)
	require.Len(t, decoded.Turns, 3)
	assert.Equal(t, "user", decoded.Turns[1].Speaker)
	assert.Equal(t, "You", decoded.Turns[1].Label)
	assert.Equal(t, "Hi there", decoded.Turns[2].Text)
}

// =============================================================================
// FORMATS AND FILES
// =============================================================================

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatPDF, FormatFromPath("a.PDF"))
	assert.Equal(t, FormatMarkdown, FormatFromPath("a.md"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.json"))
	assert.Equal(t, FormatText, FormatFromPath("a.txt"))
	assert.Equal(t, FormatText, FormatFromPath("transcript"))
}

func TestForFormat(t *testing.T) {
	for _, f := range []Format{FormatText, FormatMarkdown, FormatJSON} {
		e, err := ForFormat(f, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, e.FileExtension())
		assert.NotEmpty(t, e.MimeType())
	}
	_, err := ForFormat(FormatPDF, nil)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, WriteFile(path, NewJSONExporter(nil), sampleTranscript(), Meta{}))
	assert.FileExists(t, path)
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "conversation_my_notes_20250102_030405.txt"),
		DefaultFilename("out", Meta{Document: "my notes.pdf"}, ".txt", now))
	assert.Equal(t, filepath.Join("out", "conversation_chat_20250102_030405.md"),
		DefaultFilename("out", Meta{}, ".md", now))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
}
