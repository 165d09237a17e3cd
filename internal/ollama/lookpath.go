// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FindExecutable locates the ollama binary on PATH or in the common
// installation directories.
func FindExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	var candidates []string
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			candidates = append(candidates, filepath.Join(local, "Programs", "Ollama", "ollama.exe"))
		}
	default:
		candidates = append(candidates,
			"/usr/local/bin/ollama",
			"/usr/bin/ollama",
			"/opt/ollama/ollama",
			"/Applications/Ollama.app/Contents/Resources/ollama",
		)
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates,
				filepath.Join(home, ".local", "bin", "ollama"),
				filepath.Join(home, "bin", "ollama"),
			)
		}
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("ollama not found in PATH or common installation directories")
}
