// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// RunError is returned when the ollama binary exits with a non-zero status.
// Its message is the captured stderr, so it reads well inside a transcript.
type RunError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *RunError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
}

// =============================================================================
// CLI BACKEND
// =============================================================================

// CLIConfig configures the subprocess backend.
type CLIConfig struct {
	// Binary is the ollama executable name or path (default: "ollama").
	Binary string

	// Timeout bounds a single run; zero means no limit beyond ctx.
	Timeout time.Duration
}

// CLIBackend invokes the ollama command-line tool as a blocking subprocess.
type CLIBackend struct {
	binary  string
	timeout time.Duration
}

// NewCLIBackend creates a subprocess backend. A bare "ollama" binary that is
// not on PATH is resolved against the usual install locations.
func NewCLIBackend(cfg CLIConfig) *CLIBackend {
	binary := cfg.Binary
	if binary == "" {
		binary = "ollama"
	}
	if binary == "ollama" {
		if path, err := FindExecutable(); err == nil {
			binary = path
		}
	}
	return &CLIBackend{binary: binary, timeout: cfg.Timeout}
}

// Binary returns the executable the backend runs.
func (b *CLIBackend) Binary() string {
	return b.binary
}

// Query runs "<binary> run <model>" with prompt on stdin.
func (b *CLIBackend) Query(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", errors.New("no model selected")
	}
	out, err := b.run(ctx, strings.NewReader(prompt), "run", model)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ListModels runs "<binary> list" and returns the first whitespace-delimited
// token of every line. The NAME header printed by current releases is
// skipped.
func (b *CLIBackend) ListModels(ctx context.Context) ([]string, error) {
	out, err := b.run(ctx, nil, "list")
	if err != nil {
		return nil, err
	}
	return ParseModelList(out), nil
}

// ParseModelList extracts model identifiers from "ollama list" output.
func ParseModelList(out string) []string {
	var models []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "NAME" {
			continue
		}
		models = append(models, fields[0])
	}
	return models
}

func (b *CLIBackend) run(ctx context.Context, stdin *strings.Reader, args ...string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, b.binary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A killed process reports the context error, not its exit status
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &RunError{
				Args:     append([]string{b.binary}, args...),
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", err
	}
	return stdout.String(), nil
}
