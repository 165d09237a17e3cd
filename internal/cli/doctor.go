// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - "doctalk doctor" checks that the external tools doctalk shells
// out to are installed.
//
//	[OK]   ollama found at /usr/local/bin/ollama
//	[!!]   tesseract not found (scanned PDFs cannot be read)
//	       -> sudo apt install tesseract-ocr
//
// Missing ollama is a failure; missing PDF and export tools are warnings
// because plain-text chat still works without them.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/doctalk/internal/config"
	"github.com/jeranaias/doctalk/internal/ollama"
	"github.com/jeranaias/doctalk/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	checkPassStyle = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	checkWarnStyle = lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	checkFailStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	fixStyle       = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).PaddingLeft(7)
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed.
	CheckPass CheckStatus = iota
	// CheckWarn indicates an optional feature is unavailable.
	CheckWarn
	// CheckFail indicates doctalk cannot work.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the status indicator.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]  ")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]  ")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	State   string      `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render returns the check formatted for the terminal.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// =============================================================================
// DOCTOR
// =============================================================================

// doctor runs the checks against one configuration.
type doctor struct {
	cfg      *config.Config
	cfgErr   error
	backend  ollama.Backend
	lookPath func(string) (string, error)
}

// RunDoctor runs "doctalk doctor".
func RunDoctor(args Args) error {
	cfg, cfgErr := LoadConfig(args)
	if cfgErr != nil {
		cfg = config.Default()
	}
	d := &doctor{
		cfg:      cfg,
		cfgErr:   cfgErr,
		backend:  NewBackend(cfg.Ollama),
		lookPath: exec.LookPath,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return d.run(ctx, args.JSON, os.Stdout)
}

func (d *doctor) run(ctx context.Context, jsonMode bool, out io.Writer) error {
	checks := d.runAllChecks(ctx)

	var passed, warned, failed int
	for _, check := range checks {
		check.State = check.Status.String()
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	var err error
	if failed > 0 {
		err = fmt.Errorf("%d health check(s) failed", failed)
	}
	if jsonMode {
		return writeJSON(out, "doctor", checks, err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render("doctalk Doctor"))
	fmt.Fprintln(out, RenderSeparator(41))
	for _, check := range checks {
		fmt.Fprintln(out, check.Render())
	}
	fmt.Fprintln(out, RenderSeparator(41))

	summary := []string{fmt.Sprintf("%d passed", passed)}
	if warned > 0 {
		summary = append(summary, checkWarnStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summary = append(summary, checkFailStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(out, strings.Join(summary, ", "))
	fmt.Fprintln(out)
	return err
}

func (d *doctor) runAllChecks(ctx context.Context) []*HealthCheck {
	checks := []*HealthCheck{d.checkConfig()}
	if hb, ok := d.backend.(*ollama.HTTPBackend); ok {
		checks = append(checks, d.checkServer(ctx, hb))
	} else {
		checks = append(checks, d.checkTool("ollama", d.cfg.Ollama.Binary, CheckFail,
			"ollama is required to chat", "install from https://ollama.com/download"))
	}
	checks = append(checks, d.checkModel(ctx))

	doc := d.cfg.Document
	checks = append(checks,
		d.checkTool("pdftotext", doc.PdfToText, CheckWarn,
			"PDF documents cannot be read", "install poppler-utils (apt) or poppler (brew)"),
		d.checkTool("pdftoppm", doc.PdfToPPM, CheckWarn,
			"scanned PDFs cannot be rendered for OCR", "install poppler-utils (apt) or poppler (brew)"),
		d.checkTool("tesseract", doc.Tesseract, CheckWarn,
			"scanned PDFs cannot be read", "install tesseract-ocr (apt) or tesseract (brew)"),
		d.checkTool("pandoc", d.cfg.Export.Pandoc, CheckWarn,
			"PDF export is unavailable", "install pandoc and a LaTeX engine"),
	)
	return checks
}

func (d *doctor) checkConfig() *HealthCheck {
	if d.cfgErr != nil {
		return &HealthCheck{
			Name:    "config",
			Status:  CheckFail,
			Message: "configuration invalid: " + d.cfgErr.Error(),
			Fix:     "doctalk config path, then fix or remove the file",
		}
	}
	return &HealthCheck{Name: "config", Status: CheckPass, Message: "configuration valid"}
}

// checkTool looks up bin on PATH. missing is the status reported when it is
// absent and impact explains what stops working.
func (d *doctor) checkTool(name, bin string, missing CheckStatus, impact, fix string) *HealthCheck {
	if bin == "" {
		bin = name
	}
	path, err := d.lookPath(bin)
	if err != nil && bin == "ollama" {
		path, err = ollama.FindExecutable()
	}
	if err != nil {
		return &HealthCheck{
			Name:    name,
			Status:  missing,
			Message: fmt.Sprintf("%s not found (%s)", bin, impact),
			Fix:     fix,
		}
	}
	return &HealthCheck{Name: name, Status: CheckPass, Message: fmt.Sprintf("%s found at %s", name, path)}
}

func (d *doctor) checkServer(ctx context.Context, hb *ollama.HTTPBackend) *HealthCheck {
	if err := hb.CheckRunning(ctx); err != nil {
		return &HealthCheck{
			Name:    "ollama",
			Status:  CheckFail,
			Message: fmt.Sprintf("ollama server not reachable at %s: %v", hb.BaseURL(), err),
			Fix:     "ollama serve",
		}
	}
	return &HealthCheck{Name: "ollama", Status: CheckPass, Message: "ollama server running at " + hb.BaseURL()}
}

// checkModel verifies the configured default model is installed.
func (d *doctor) checkModel(ctx context.Context) *HealthCheck {
	want := strings.TrimSpace(d.cfg.Ollama.DefaultModel)
	if want == "" {
		return &HealthCheck{
			Name:    "model",
			Status:  CheckWarn,
			Message: "no default model configured (the picker opens at startup)",
			Fix:     "doctalk config set ollama.default_model <model>",
		}
	}
	lister, ok := d.backend.(ollama.ModelLister)
	if !ok {
		return &HealthCheck{Name: "model", Status: CheckWarn, Message: "cannot list models to verify " + want}
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return &HealthCheck{
			Name:    "model",
			Status:  CheckWarn,
			Message: fmt.Sprintf("could not list models: %v", err),
		}
	}
	for _, m := range models {
		if m == want || strings.TrimSuffix(m, ":latest") == want {
			return &HealthCheck{Name: "model", Status: CheckPass, Message: "model " + want + " installed"}
		}
	}
	return &HealthCheck{
		Name:    "model",
		Status:  CheckFail,
		Message: "model " + want + " is not installed",
		Fix:     "ollama pull " + want,
	}
}
