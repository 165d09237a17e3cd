// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Supported Formats
//
//   - Text: one "{label}: {text}" line per turn, the format shown on screen
//   - PDF: the text export converted with pandoc
//   - Markdown: headings per turn with optional metadata frontmatter
//   - JSON: machine-readable, one object per turn
//
// # Usage
//
//	if err := export.WriteText("chat.txt", transcript); err != nil {
//	    return err
//	}
//
//	pdf := export.NewPDFWriter("pandoc", logger)
//	if err := pdf.WritePDF(ctx, "chat.pdf", transcript); err != nil {
//	    var convErr *export.ConvertError
//	    // ...
//	}
//
// Exports never modify the transcript.
package export
