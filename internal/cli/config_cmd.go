// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - "doctalk config" shows and edits ~/.doctalk/config.toml.
//
//	doctalk config                              Show configuration (TOML)
//	doctalk config path                         Show the config file location
//	doctalk config keys                         List settable keys
//	doctalk config get ollama.default_model
//	doctalk config set ollama.default_model qwen2.5:14b
//	doctalk config set document.ocr_language deu

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/doctalk/internal/config"
)

// configCommand holds what the config subcommands need so they can be run
// against a temporary file.
type configCommand struct {
	cfg  *config.Config
	path string
	out  io.Writer
}

// RunConfig runs "doctalk config".
func RunConfig(args Args) error {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	return (&configCommand{cfg: cfg, path: path, out: os.Stdout}).run(args)
}

func (c *configCommand) run(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return writeJSON(c.out, "config", c.cfg, nil)
		}
		fmt.Fprint(c.out, c.cfg.String())
		return nil

	case "path":
		fmt.Fprintln(c.out, c.path)
		return nil

	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(c.out, k)
		}
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "doctalk config get ollama.default_model")
		}
		v, err := c.cfg.Get(args.ConfigKey)
		if err != nil {
			return &UsageError{Reason: err.Error(), Example: "doctalk config keys"}
		}
		fmt.Fprintln(c.out, v)
		return nil

	case "set":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key and value", "doctalk config set ollama.default_model llama3:8b")
		}
		return c.set(args.ConfigKey, args.ConfigVal)

	default:
		return &UsageError{
			Reason:  "unknown config subcommand: " + args.Subcommand,
			Example: "doctalk config [show|path|keys|get KEY|set KEY VALUE]",
		}
	}
}

// set changes one key, validates the result and saves it. The file is left
// untouched when the new value is invalid.
func (c *configCommand) set(key, value string) error {
	updated := c.cfg.Clone()
	if err := updated.Set(key, value); err != nil {
		return &UsageError{Reason: fmt.Sprintf("cannot set %s: %v", key, err)}
	}
	if err := updated.Migrate(); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(updated, c.path); err != nil {
		return err
	}
	config.SetGlobal(updated)
	c.cfg = updated
	fmt.Fprintf(c.out, "%s = %v\n", key, value)
	return nil
}
