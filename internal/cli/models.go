// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - "doctalk models" lists the locally installed models.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/doctalk/internal/ollama"
)

// modelsTimeout bounds "ollama list" and /api/tags.
const modelsTimeout = 30 * time.Second

// RunModels runs "doctalk models".
func RunModels(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	app := NewApp(cfg, NewLogger(args.Verbose))
	ctx, cancel := context.WithTimeout(context.Background(), modelsTimeout)
	defer cancel()
	return listModels(ctx, app, args, os.Stdout)
}

func listModels(ctx context.Context, app *App, args Args, out io.Writer) error {
	// The HTTP API reports sizes and parameter counts as well as names
	if hb, ok := app.Backend.(*ollama.HTTPBackend); ok {
		infos, err := hb.ListModelInfo(ctx)
		if err != nil {
			if args.JSON {
				return writeJSON(out, "models", nil, err)
			}
			return err
		}
		if args.JSON {
			return writeJSON(out, "models", infos, nil)
		}
		for _, m := range infos {
			fmt.Fprintf(out, "%-32s %8s  %s\n", m.Name, formatBytes(m.Size), m.Details.ParameterSize)
		}
		return nil
	}

	models, err := app.ListModels(ctx)
	if args.JSON {
		return writeJSON(out, "models", models, err)
	}
	if err != nil {
		return err
	}
	if len(models) == 0 && !args.Quiet {
		fmt.Fprintln(os.Stderr, "No models installed (try: ollama pull <model>)")
		return nil
	}
	for _, m := range models {
		fmt.Fprintln(out, m)
	}
	return nil
}

// formatBytes formats a byte count for display.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
