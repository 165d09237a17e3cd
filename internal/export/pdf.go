// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jeranaias/doctalk/internal/model"
)

// =============================================================================
// PDF EXPORT
// =============================================================================

// ConvertError reports a failed pandoc conversion. The text export next to
// the requested PDF is still written.
type ConvertError struct {
	TextPath string
	PDFPath  string
	Stderr   string
	Err      error
}

func (e *ConvertError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("converting %s to PDF failed: %s", filepath.Base(e.TextPath), e.Stderr)
	}
	return fmt.Sprintf("converting %s to PDF failed: %v", filepath.Base(e.TextPath), e.Err)
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// PDFWriter produces PDF exports by converting the text export with pandoc.
type PDFWriter struct {
	pandoc string
	logger *log.Logger
}

// NewPDFWriter uses the given pandoc binary ("pandoc" when empty). A nil
// logger discards log output.
func NewPDFWriter(pandoc string, logger *log.Logger) *PDFWriter {
	if pandoc == "" {
		pandoc = "pandoc"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PDFWriter{pandoc: pandoc, logger: logger}
}

// PDFPathFor returns path with a .pdf extension: a .txt extension is
// replaced, anything else gets .pdf appended.
func PDFPathFor(path string) string {
	ext := filepath.Ext(path)
	switch {
	case strings.EqualFold(ext, ".pdf"):
		return path
	case strings.EqualFold(ext, ".txt"):
		return strings.TrimSuffix(path, ext) + ".pdf"
	default:
		return path + ".pdf"
	}
}

// TextPathFor returns the intermediate text file used for pdfPath: the
// .pdf extension replaced by .txt, or .txt appended.
func TextPathFor(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	if strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(pdfPath, ext) + ".txt"
	}
	return pdfPath + ".txt"
}

// WritePDF writes the text export to TextPathFor(pdfPath) and runs
// "pandoc <txt> -o <pdf>". Conversion failures return *ConvertError.
func (w *PDFWriter) WritePDF(ctx context.Context, pdfPath string, tr *model.Transcript) error {
	txtPath := TextPathFor(pdfPath)
	if err := WriteText(txtPath, tr); err != nil {
		return fmt.Errorf("write text export: %w", err)
	}

	cmd := exec.CommandContext(ctx, w.pandoc, txtPath, "-o", pdfPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		convErr := &ConvertError{
			TextPath: txtPath,
			PDFPath:  pdfPath,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		w.logger.Printf("EXPORT_PDF_FAILED | pdf=%s error=%v", pdfPath, convErr)
		return convErr
	}

	w.logger.Printf("EXPORT_PDF | pdf=%s text=%s turns=%d", pdfPath, txtPath, tr.Len())
	return nil
}

// IsConvertError reports whether err is or wraps a *ConvertError.
func IsConvertError(err error) bool {
	var convErr *ConvertError
	return errors.As(err, &convErr)
}
