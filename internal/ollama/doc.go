// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama talks to a local Ollama installation.
//
// Two backends satisfy the same Backend contract:
//
//   - CLIBackend runs "ollama run <model>" with the prompt on stdin and
//     returns the captured stdout. This is the default.
//   - HTTPBackend posts to the /api/generate endpoint of "ollama serve".
//
// Client wraps either backend and never fails: an error from the backend
// comes back as "Error: <reason>" text, so a chat can show it as the model's
// reply and carry on.
//
// # Usage
//
//	backend := ollama.NewCLIBackend(ollama.CLIConfig{Binary: "ollama"})
//	client := ollama.NewClient(backend, nil)
//	reply := client.Ask(ctx, "llama3.2", "Why is the sky blue?")
//
// Model discovery:
//
//	models, err := backend.ListModels(ctx)
package ollama
