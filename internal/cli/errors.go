// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - exit codes and error helpers shared by the command handlers.
//
// Handlers return errors; HandleX prints them once and exits with the code
// GetExitCode picks for the error's category.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/jeranaias/doctalk/internal/config"
	"github.com/jeranaias/doctalk/internal/document"
	"github.com/jeranaias/doctalk/internal/export"
	"github.com/jeranaias/doctalk/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the ollama server could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a missing file or external tool
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// ErrMissingArgument creates a usage error for a missing argument.
func ErrMissingArgument(name, example string) error {
	return &UsageError{Reason: "missing " + name, Example: example}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for err.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	if ollama.IsNotRunning(err) {
		return ExitNetworkError
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return ExitNotFoundError
	}

	if document.IsIOError(err) || document.IsExtractionError(err) || export.IsConvertError(err) {
		return ExitGeneralError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "config") {
		return ExitConfigError
	}
	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "dial") {
		return ExitNetworkError
	}
	if strings.Contains(errMsg, "timed out") {
		return ExitTimeoutError
	}

	return ExitGeneralError
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// jsonResponse is the envelope for --json output.
type jsonResponse struct {
	Success bool        `json:"success"`
	Command string      `json:"command"`
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error"`
}

// writeJSON writes data (or err) as an indented JSON envelope.
func writeJSON(w io.Writer, command string, data interface{}, err error) error {
	resp := jsonResponse{Success: err == nil, Command: command, Data: data}
	if err != nil {
		msg := err.Error()
		resp.Error = &msg
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return encErr
	}
	return err
}
