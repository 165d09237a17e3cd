// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// LoadText reads path as UTF-8 text. A leading byte order mark is dropped.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	return DecodeText(path, data)
}

// DecodeText validates data as UTF-8 and strips a leading BOM.
func DecodeText(path string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &IOError{Path: path, Err: ErrInvalidUTF8}
	}
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	return string(decoded), nil
}
