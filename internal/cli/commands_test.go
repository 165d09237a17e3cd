// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/doctalk/internal/config"
	"github.com/jeranaias/doctalk/internal/ollama"
)

// =============================================================================
// ASK
// =============================================================================

func TestRunAsk(t *testing.T) {
	b := &stubBackend{reply: "42"}
	app := newTestApp(t, b)
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "llama3:8b", Query: "meaning of life?"}, nil, &out, &Renderer{})
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
	assert.Equal(t, "\n\nUser: meaning of life?", b.lastPrompt())
}

func TestRunAsk_WithDocument(t *testing.T) {
	b := &stubBackend{reply: "A memo."}
	app := newTestApp(t, b)
	path := writeTemp(t, "memo.txt", "Budget approved.")
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "m", File: path, Query: "What is it?"}, nil, &out, &Renderer{})
	require.NoError(t, err)
	assert.Equal(t, "Budget approved.\n\nUser: What is it?", b.lastPrompt())
}

func TestRunAsk_QuestionFromStdin(t *testing.T) {
	b := &stubBackend{reply: "yes"}
	app := newTestApp(t, b)
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "m"}, strings.NewReader("is it piped?\n"), &out, &Renderer{})
	require.NoError(t, err)
	assert.Equal(t, "\n\nUser: is it piped?", b.lastPrompt())
}

func TestRunAsk_UsageErrors(t *testing.T) {
	app := newTestApp(t, &stubBackend{})
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "m"}, nil, &out, &Renderer{})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "missing question")

	err = runAsk(context.Background(), app, Args{Query: "hi"}, nil, &out, &Renderer{})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "missing model")
}

func TestRunAsk_ErrorReplyIsReturned(t *testing.T) {
	app := newTestApp(t, &stubBackend{err: errors.New("model 'x' not found, try pulling it first")})
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "x", Query: "hi"}, nil, &out, &Renderer{})
	require.Error(t, err)
	assert.Equal(t, "model 'x' not found, try pulling it first", err.Error())
	assert.Empty(t, out.String())
}

func TestRunAsk_JSON(t *testing.T) {
	app := newTestApp(t, &stubBackend{reply: "hello"})
	var out bytes.Buffer

	err := runAsk(context.Background(), app, Args{Model: "m", Query: "hi", JSON: true}, nil, &out, &Renderer{})
	require.NoError(t, err)

	var resp struct {
		Success bool      `json:"success"`
		Data    askResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Data.Reply)
	assert.Equal(t, "m", resp.Data.Model)
}

// =============================================================================
// MODELS
// =============================================================================

func TestListModels_CLIBackend(t *testing.T) {
	app := newTestApp(t, &stubBackend{models: []string{"llama3:8b", "mistral:7b"}})
	var out bytes.Buffer

	require.NoError(t, listModels(context.Background(), app, Args{}, &out))
	assert.Equal(t, "llama3:8b\nmistral:7b\n", out.String())

	out.Reset()
	require.NoError(t, listModels(context.Background(), app, Args{JSON: true}, &out))
	assert.Contains(t, out.String(), `"mistral:7b"`)
}

func TestListModels_HTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"llama3:8b","size":1073741824,"details":{"parameter_size":"8B"}}]}`))
	}))
	defer srv.Close()

	app := newTestApp(t, &stubBackend{})
	app.Backend = ollama.NewHTTPBackend(&ollama.HTTPConfig{BaseURL: srv.URL})
	var out bytes.Buffer

	require.NoError(t, listModels(context.Background(), app, Args{}, &out))
	assert.Contains(t, out.String(), "llama3:8b")
	assert.Contains(t, out.String(), "1.0 GB")
	assert.Contains(t, out.String(), "8B")
}

func TestListModels_NoLister(t *testing.T) {
	app := newTestApp(t, &stubBackend{})
	app.Backend = queryOnly{}
	_, err := app.ListModels(context.Background())
	assert.ErrorIs(t, err, ErrNoModelLister)
}

type queryOnly struct{}

func (queryOnly) Query(context.Context, string, string) (string, error) { return "", nil }

// =============================================================================
// DOCTOR
// =============================================================================

func foundAll(name string) (string, error) {
	return "/usr/bin/" + filepath.Base(name), nil
}

func TestDoctor_AllPass(t *testing.T) {
	cfg := config.Default()
	cfg.Ollama.DefaultModel = "llama3"
	d := &doctor{
		cfg:      cfg,
		backend:  &stubBackend{models: []string{"llama3:latest"}},
		lookPath: foundAll,
	}
	var out bytes.Buffer

	require.NoError(t, d.run(context.Background(), false, &out))
	assert.Contains(t, out.String(), "ollama found at /usr/bin/ollama")
	assert.Contains(t, out.String(), "model llama3 installed")
	assert.Contains(t, out.String(), "7 passed")
}

func TestDoctor_MissingOllamaFails(t *testing.T) {
	cfg := config.Default()
	cfg.Ollama.Binary = "/nonexistent/ollama-test"
	d := &doctor{
		cfg:      cfg,
		backend:  &stubBackend{},
		lookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	}
	var out bytes.Buffer

	err := d.run(context.Background(), false, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "[FAIL]")
	assert.Contains(t, out.String(), "tesseract not found")
}

func TestDoctor_ModelNotInstalled(t *testing.T) {
	cfg := config.Default()
	cfg.Ollama.DefaultModel = "qwen2.5:14b"
	d := &doctor{cfg: cfg, backend: &stubBackend{models: []string{"llama3:8b"}}, lookPath: foundAll}

	checks := d.runAllChecks(context.Background())
	var model *HealthCheck
	for _, c := range checks {
		if c.Name == "model" {
			model = c
		}
	}
	require.NotNil(t, model)
	assert.Equal(t, CheckFail, model.Status)
	assert.Equal(t, "ollama pull qwen2.5:14b", model.Fix)
}

func TestDoctor_HTTPBackendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
			return
		}
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Ollama.DefaultModel = "llama3:8b"
	d := &doctor{
		cfg:      cfg,
		backend:  ollama.NewHTTPBackend(&ollama.HTTPConfig{BaseURL: srv.URL}),
		lookPath: foundAll,
	}
	var out bytes.Buffer

	require.NoError(t, d.run(context.Background(), true, &out))
	var resp struct {
		Success bool          `json:"success"`
		Data    []HealthCheck `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Data)
	assert.Equal(t, "ollama", resp.Data[1].Name)
	assert.Equal(t, "pass", resp.Data[1].State)
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(t *testing.T) (*configCommand, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(config.ResetGlobalForTesting)
	var out bytes.Buffer
	return &configCommand{
		cfg:  config.Default(),
		path: filepath.Join(t.TempDir(), "config.toml"),
		out:  &out,
	}, &out
}

func TestConfigCommand_SetSaves(t *testing.T) {
	c, out := newConfigCommand(t)

	err := c.run(Args{Subcommand: "set", ConfigKey: "ollama.default_model", ConfigVal: "llama3:8b"})
	require.NoError(t, err)
	assert.Equal(t, "ollama.default_model = llama3:8b\n", out.String())

	loaded, err := config.LoadFromPath(c.path)
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", loaded.Ollama.DefaultModel)
}

func TestConfigCommand_SetInvalidLeavesFile(t *testing.T) {
	c, _ := newConfigCommand(t)

	err := c.run(Args{Subcommand: "set", ConfigKey: "document.ocr_dpi", ConfigVal: "5"})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	_, statErr := os.Stat(c.path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 300, c.cfg.Document.OCRDPI)

	err = c.run(Args{Subcommand: "set", ConfigKey: "ollama.nope", ConfigVal: "x"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigCommand_GetKeysPathShow(t *testing.T) {
	c, out := newConfigCommand(t)

	require.NoError(t, c.run(Args{Subcommand: "get", ConfigKey: "document.ocr_language"}))
	assert.Equal(t, "eng\n", out.String())

	out.Reset()
	require.NoError(t, c.run(Args{Subcommand: "keys"}))
	assert.Contains(t, out.String(), "export.pandoc\n")

	out.Reset()
	require.NoError(t, c.run(Args{Subcommand: "path"}))
	assert.Equal(t, c.path+"\n", out.String())

	out.Reset()
	require.NoError(t, c.run(Args{}))
	assert.Contains(t, out.String(), "[ollama]")

	err := c.run(Args{Subcommand: "reset"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
