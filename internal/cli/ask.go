// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
//	doctalk ask "What is a monad?"
//	doctalk ask -f report.pdf "List the key findings"
//	cat notes.txt | doctalk ask -m llama3:8b
//
// The question is read from stdin when none is given and stdin is not a
// terminal.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/doctalk/internal/ollama"
)

// askResult is the --json output of ask.
type askResult struct {
	Model    string `json:"model"`
	Document string `json:"document,omitempty"`
	Reply    string `json:"reply"`
}

// RunAsk runs "doctalk ask".
func RunAsk(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if cfg.UI.NoColor {
		DisableColors()
	}
	app := NewApp(cfg, NewLogger(args.Verbose))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var stdin io.Reader
	if !IsTTY() {
		stdin = os.Stdin
	}
	renderer := NewRenderer(cfg.UI.Markdown && !args.JSON, cfg.UI.WordWrap)
	return runAsk(ctx, app, args, stdin, os.Stdout, renderer)
}

func runAsk(ctx context.Context, app *App, args Args, stdin io.Reader, out io.Writer, renderer *Renderer) error {
	question := strings.TrimSpace(args.Query)
	if question == "" && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read question from stdin: %w", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", `doctalk ask "What does this document cover?"`)
	}

	modelID := app.ResolveModel(args.Model)
	if modelID == "" {
		return &UsageError{
			Reason:  "no model selected",
			Example: `doctalk ask --model llama3:8b "..." (or set ollama.default_model)`,
		}
	}

	sess := app.NewSession(modelID)
	var docName string
	if args.File != "" {
		doc, err := sess.LoadFile(ctx, args.File)
		if err != nil {
			return err
		}
		docName = doc.Name
	}

	if _, err := sess.Submit(ctx, question); err != nil {
		return err
	}
	last, _ := sess.Transcript().Last()
	reply := last.Text()

	if ollama.IsErrorReply(reply) {
		err := errors.New(strings.TrimPrefix(reply, ollama.ErrorPrefix))
		if args.JSON {
			return writeJSON(out, "ask", askResult{Model: modelID, Document: docName}, err)
		}
		return err
	}

	if args.JSON {
		return writeJSON(out, "ask", askResult{Model: modelID, Document: docName, Reply: reply}, nil)
	}
	fmt.Fprintln(out, strings.TrimRight(renderer.Render(reply), "\n"))
	return nil
}
