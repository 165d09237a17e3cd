// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document turns files on disk into plain text that can be used as
// chat context.
//
// Text files are read as UTF-8. PDFs go through poppler's pdftotext first;
// when a PDF has no usable text layer (a scan), every page is rasterized with
// pdftoppm and run through tesseract instead.
//
// The external tools sit behind the TextExtractor, Rasterizer and Recognizer
// interfaces so callers and tests can substitute their own.
package document
