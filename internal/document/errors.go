// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
)

// Causes wrapped by IOError.
var (
	ErrInvalidUTF8 = errors.New("file is not valid UTF-8")
	errIsDirectory = errors.New("is a directory")
)

// IOError reports a file that could not be read or decoded.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a PDF for which both direct text extraction and
// OCR failed.
type ExtractionError struct {
	Path       string
	ExtractErr error // nil when extraction ran but found no text
	OCRErr     error
}

func (e *ExtractionError) Error() string {
	if e.ExtractErr != nil {
		return fmt.Sprintf("cannot extract text from %s: %v; OCR failed: %v", e.Path, e.ExtractErr, e.OCRErr)
	}
	return fmt.Sprintf("no text layer in %s and OCR failed: %v", e.Path, e.OCRErr)
}

func (e *ExtractionError) Unwrap() []error {
	var errs []error
	if e.ExtractErr != nil {
		errs = append(errs, e.ExtractErr)
	}
	if e.OCRErr != nil {
		errs = append(errs, e.OCRErr)
	}
	return errs
}

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// IsExtractionError reports whether err is or wraps an *ExtractionError.
func IsExtractionError(err error) bool {
	var extErr *ExtractionError
	return errors.As(err, &extErr)
}
