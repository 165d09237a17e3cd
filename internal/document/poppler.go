// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultOCRDPI is the resolution pages are rendered at for OCR.
const DefaultOCRDPI = 300

// Poppler drives the pdftotext and pdftoppm utilities from poppler-utils.
type Poppler struct {
	PdfToText string // default "pdftotext"
	PdfToPPM  string // default "pdftoppm"
	DPI       int    // default DefaultOCRDPI
}

// ExtractPages runs "pdftotext -enc UTF-8 <path> -" and splits the output on
// the form feed pdftotext writes after every page.
func (p *Poppler) ExtractPages(ctx context.Context, path string) ([]string, error) {
	out, err := runTool(ctx, orDefault(p.PdfToText, "pdftotext"), "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, err
	}
	return SplitPages(out), nil
}

// Rasterize runs "pdftoppm -r <dpi> -png <path> <dir>/page" and returns the
// rendered images ordered by page number.
func (p *Poppler) Rasterize(ctx context.Context, path, dir string) ([]string, error) {
	dpi := p.DPI
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	prefix := filepath.Join(dir, "page")
	if _, err := runTool(ctx, orDefault(p.PdfToPPM, "pdftoppm"), "-r", strconv.Itoa(dpi), "-png", path, prefix); err != nil {
		return nil, err
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sortByPageNumber(images)
	return images, nil
}

// SplitPages splits pdftotext output into pages. The empty element after the
// final form feed is dropped.
func SplitPages(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// sortByPageNumber orders "page-N.png" paths by N.
func sortByPageNumber(images []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndex(base, "-")
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(images, func(i, j int) bool {
		return num(images[i]) < num(images[j])
	})
}

// ToolError reports a failed external tool invocation.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Tool, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func runTool(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &ToolError{Tool: filepath.Base(name), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
