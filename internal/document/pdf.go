// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// =============================================================================
// CAPABILITIES
// =============================================================================

// TextExtractor returns the embedded text of every page of a PDF, in page
// order.
type TextExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// Rasterizer renders every page of a PDF into dir and returns the image
// paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, path, dir string) ([]string, error)
}

// Recognizer runs OCR on a single page image.
type Recognizer interface {
	Recognize(ctx context.Context, image string) (string, error)
}

// =============================================================================
// PDF LOADER
// =============================================================================

// PDFResult is the outcome of reading a PDF.
type PDFResult struct {
	Text  string
	Pages int
	OCR   bool // text came from OCR, not the text layer
}

// PDFLoader extracts text from PDFs with an OCR fallback.
type PDFLoader struct {
	Extractor  TextExtractor
	Rasterizer Rasterizer
	Recognizer Recognizer

	// TempDir is where page images are rendered; empty means os.TempDir().
	TempDir string

	Logger *log.Logger
}

// Load reads path. The text layer is used when it holds anything other than
// whitespace; otherwise every page is rendered and recognized exactly once.
func (l *PDFLoader) Load(ctx context.Context, path string) (PDFResult, error) {
	if _, err := os.Stat(path); err != nil {
		return PDFResult{}, &IOError{Path: path, Err: err}
	}

	pages, extractErr := l.extract(ctx, path)
	if extractErr == nil {
		text := strings.Join(pages, "")
		if strings.TrimSpace(text) != "" {
			l.logf("PDF_TEXT_LAYER | path=%s pages=%d chars=%d", path, len(pages), len(text))
			return PDFResult{Text: text, Pages: len(pages)}, nil
		}
		l.logf("PDF_TEXT_LAYER_EMPTY | path=%s pages=%d", path, len(pages))
	} else {
		l.logf("PDF_EXTRACT_FAILED | path=%s error=%v", path, extractErr)
	}

	if err := ctx.Err(); err != nil {
		return PDFResult{}, err
	}

	text, n, ocrErr := l.ocr(ctx, path)
	if ocrErr != nil {
		if errors.Is(ocrErr, context.Canceled) {
			return PDFResult{}, ocrErr
		}
		l.logf("PDF_OCR_FAILED | path=%s error=%v", path, ocrErr)
		return PDFResult{}, &ExtractionError{Path: path, ExtractErr: extractErr, OCRErr: ocrErr}
	}
	l.logf("PDF_OCR_COMPLETE | path=%s pages=%d chars=%d", path, n, len(text))
	return PDFResult{Text: text, Pages: n, OCR: true}, nil
}

func (l *PDFLoader) extract(ctx context.Context, path string) ([]string, error) {
	if l.Extractor == nil {
		return nil, errors.New("no text extractor configured")
	}
	return l.Extractor.ExtractPages(ctx, path)
}

func (l *PDFLoader) ocr(ctx context.Context, path string) (string, int, error) {
	if l.Rasterizer == nil || l.Recognizer == nil {
		return "", 0, errors.New("OCR is not configured")
	}

	dir, err := os.MkdirTemp(l.TempDir, "doctalk-ocr-")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create image directory: %w", err)
	}
	defer os.RemoveAll(dir)

	images, err := l.Rasterizer.Rasterize(ctx, path, dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to render pages: %w", err)
	}
	if len(images) == 0 {
		return "", 0, errors.New("document has no pages")
	}

	var b strings.Builder
	for i, image := range images {
		text, err := l.Recognizer.Recognize(ctx, image)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		b.WriteString(text)
	}
	return b.String(), len(images), nil
}

func (l *PDFLoader) logf(format string, args ...any) {
	if l.Logger != nil {
		l.Logger.Printf(format, args...)
	}
}
