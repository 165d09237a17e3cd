// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/doctalk/internal/config"
	"github.com/jeranaias/doctalk/internal/document"
	"github.com/jeranaias/doctalk/internal/export"
	"github.com/jeranaias/doctalk/internal/ollama"
	"github.com/jeranaias/doctalk/internal/session"
)

// ErrNoModelLister is returned when the backend cannot enumerate models.
var ErrNoModelLister = errors.New("backend cannot list models")

// App bundles the collaborators built from configuration.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend ollama.Backend
	Client  *ollama.Client
	Loader  session.Loader
	PDF     *export.PDFWriter
}

// NewLogger returns a stderr logger when verbose, otherwise one that
// discards everything.
func NewLogger(verbose bool) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "doctalk: ", log.LstdFlags)
}

// NewApp wires the backend, document loader and PDF exporter from cfg.
func NewApp(cfg *config.Config, logger *log.Logger) *App {
	if logger == nil {
		logger = NewLogger(false)
	}
	backend := NewBackend(cfg.Ollama)
	loader := document.NewLoader(document.Config{
		PdfToText:   cfg.Document.PdfToText,
		PdfToPPM:    cfg.Document.PdfToPPM,
		Tesseract:   cfg.Document.Tesseract,
		OCRDPI:      cfg.Document.OCRDPI,
		OCRLanguage: cfg.Document.OCRLanguage,
	}, logger)

	logger.Printf("APP_START | backend=%s model=%s", cfg.Ollama.Backend, cfg.Ollama.DefaultModel)
	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		Client:  ollama.NewClient(backend, logger),
		Loader:  loader,
		PDF:     export.NewPDFWriter(cfg.Export.Pandoc, logger),
	}
}

// NewBackend selects the subprocess or HTTP backend.
func NewBackend(cfg config.OllamaConfig) ollama.Backend {
	if cfg.Backend == config.BackendHTTP {
		return ollama.NewHTTPBackend(&ollama.HTTPConfig{
			BaseURL: cfg.URL,
			Timeout: cfg.Timeout(),
		})
	}
	return ollama.NewCLIBackend(ollama.CLIConfig{
		Binary:  cfg.Binary,
		Timeout: cfg.Timeout(),
	})
}

// NewSession starts a session on model.
func (a *App) NewSession(model string) *session.Session {
	return session.New(session.Config{
		Model:  model,
		Asker:  a.Client,
		Loader: a.Loader,
		Logger: a.Logger,
	})
}

// ListModels returns the installed model ids.
func (a *App) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := a.Backend.(ollama.ModelLister)
	if !ok {
		return nil, ErrNoModelLister
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// ResolveModel picks the model from the --model flag, then the configured
// default. An empty result means the user must choose one.
func (a *App) ResolveModel(flag string) string {
	if m := strings.TrimSpace(flag); m != "" {
		return m
	}
	return strings.TrimSpace(a.Config.Ollama.DefaultModel)
}

// LoadConfig returns the configuration for args: the file named by
// --config, or the global configuration.
func LoadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
		config.SetGlobal(cfg)
		return cfg, nil
	}
	return config.Global(), nil
}
