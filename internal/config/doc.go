// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for doctalk.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - OllamaConfig: how models are reached (CLI subprocess or HTTP server)
//   - DocumentConfig: external PDF and OCR tools
//   - ExportConfig: pandoc and the default export directory
//   - UIConfig: terminal rendering
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DOCTALK_*)
//   - ~/.doctalk/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Read or change a setting by key:
//
//	v, _ := cfg.Get("ollama.default_model")
//	_ = cfg.Set("document.ocr_language", "deu")
//	_ = config.Save(cfg)
package config
