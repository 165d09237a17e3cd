// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"
)

// Backend runs a single prompt against a model and returns the reply.
type Backend interface {
	Query(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by backends that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ErrorPrefix starts every failure reply produced by Client.Ask.
const ErrorPrefix = "Error: "

// =============================================================================
// CLIENT
// =============================================================================

// Client applies the chat policy on top of a Backend: failures become reply
// text instead of errors. It does not retry.
type Client struct {
	backend Backend
	logger  *log.Logger
}

// NewClient wraps backend. A nil logger discards log output.
func NewClient(backend Backend, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{backend: backend, logger: logger}
}

// Ask sends prompt to model and returns the reply, or "Error: <reason>" if
// the backend failed.
func (c *Client) Ask(ctx context.Context, model, prompt string) string {
	start := time.Now()
	reply, err := c.backend.Query(ctx, model, prompt)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.Printf("QUERY_ERROR | model=%s prompt_bytes=%d latency=%dms error=%v", model, len(prompt), latency, err)
		return FormatError(err)
	}
	c.logger.Printf("QUERY_COMPLETE | model=%s prompt_bytes=%d reply_bytes=%d latency=%dms", model, len(prompt), len(reply), latency)
	return reply
}

// FormatError renders err as a reply line.
func FormatError(err error) string {
	if errors.Is(err, context.Canceled) {
		return ErrorPrefix + "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorPrefix + "request timed out"
	}
	return ErrorPrefix + strings.TrimSpace(err.Error())
}

// IsErrorReply reports whether reply was produced by FormatError.
func IsErrorReply(reply string) bool {
	return strings.HasPrefix(reply, ErrorPrefix)
}
