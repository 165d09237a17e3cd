// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import "context"

// Tesseract recognizes page images with the tesseract CLI.
type Tesseract struct {
	Binary   string // default "tesseract"
	Language string // e.g. "eng"; empty uses tesseract's default
}

// Recognize runs "tesseract <image> stdout [-l <lang>]".
func (t *Tesseract) Recognize(ctx context.Context, image string) (string, error) {
	args := []string{image, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	return runTool(ctx, orDefault(t.Binary, "tesseract"), args...)
}
