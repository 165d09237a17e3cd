// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies how a document was read.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
)

// Document is a loaded file ready to be used as chat context.
type Document struct {
	Name  string // base name, shown to the user
	Path  string
	Kind  Kind
	Text  string
	OCR   bool
	Pages int // zero for text files
}

// Config selects the external tools used for PDFs.
type Config struct {
	PdfToText   string
	PdfToPPM    string
	Tesseract   string
	OCRDPI      int
	OCRLanguage string
}

// Loader reads text and PDF documents.
type Loader struct {
	pdf    *PDFLoader
	logger *log.Logger
}

// NewLoader builds a loader backed by poppler and tesseract. A nil logger
// discards log output.
func NewLoader(cfg Config, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	poppler := &Poppler{PdfToText: cfg.PdfToText, PdfToPPM: cfg.PdfToPPM, DPI: cfg.OCRDPI}
	return NewLoaderWith(&PDFLoader{
		Extractor:  poppler,
		Rasterizer: poppler,
		Recognizer: &Tesseract{Binary: cfg.Tesseract, Language: cfg.OCRLanguage},
		Logger:     logger,
	}, logger)
}

// NewLoaderWith builds a loader around an existing PDF loader.
func NewLoaderWith(pdf *PDFLoader, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if pdf.Logger == nil {
		pdf.Logger = logger
	}
	return &Loader{pdf: pdf, logger: logger}
}

// Load reads path as a PDF when it has a .pdf extension or starts with the
// PDF magic bytes, and as UTF-8 text otherwise.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Name: filepath.Base(path), Path: path, Kind: kind}
	switch kind {
	case KindPDF:
		res, err := l.pdf.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		doc.Text, doc.Pages, doc.OCR = res.Text, res.Pages, res.OCR
	default:
		text, err := LoadText(path)
		if err != nil {
			return nil, err
		}
		doc.Text = text
	}

	l.logger.Printf("DOCUMENT_LOADED | name=%s kind=%s ocr=%t pages=%d chars=%d", doc.Name, doc.Kind, doc.OCR, doc.Pages, len(doc.Text))
	return doc, nil
}

// LoadPDF returns the text of the PDF at path.
func (l *Loader) LoadPDF(ctx context.Context, path string) (string, error) {
	res, err := l.pdf.Load(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF")

// DetectKind decides how path should be read. Unreadable paths return an
// *IOError.
func DetectKind(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &IOError{Path: path, Err: errIsDirectory}
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return KindPDF, nil
	}

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(f, head)
	if bytes.Equal(head[:n], pdfMagic) {
		return KindPDF, nil
	}
	return KindText, nil
}
