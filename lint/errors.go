// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the lint package.
var (
	// ErrLinterFailed indicates the linter process could not be spawned
	// or waited on. Distinct from a non-zero exit, which is a result.
	ErrLinterFailed = errors.New("linter execution failed")

	// ErrLinterTimeout indicates the linter exceeded its configured timeout.
	ErrLinterTimeout = errors.New("linter timeout")

	// ErrUnexpectedMutation indicates a linter not declared Mutable
	// modified files during its protected window.
	ErrUnexpectedMutation = errors.New("unexpected file mutation")

	// ErrInvalidInput indicates invalid input to a lint function.
	ErrInvalidInput = errors.New("invalid input")
)

// LinterError wraps errors from a specific linter with context.
//
// Thread Safety: Immutable after creation.
type LinterError struct {
	// Linter is the executable name of the tool that failed.
	Linter string

	// Err is the underlying error.
	Err error

	// Output contains any captured stderr from the tool.
	Output string
}

// Error implements the error interface.
func (e *LinterError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Linter, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Linter, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LinterError) Unwrap() error {
	return e.Err
}

// NewLinterError creates a new LinterError.
func NewLinterError(linter string, err error) *LinterError {
	return &LinterError{Linter: linter, Err: err}
}

// WithOutput returns a copy of the error with captured stderr attached.
func (e *LinterError) WithOutput(output string) *LinterError {
	return &LinterError{Linter: e.Linter, Err: e.Err, Output: output}
}

// MutationError reports the contract violation of a non-mutable linter
// changing files, carrying the paths that changed.
//
// Thread Safety: Immutable after creation.
type MutationError struct {
	// Linter is the executable name of the offending tool.
	Linter string

	// Files are the paths the mutation detector saw change.
	Files []string
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v: %s",
		e.Linter, ErrUnexpectedMutation, strings.Join(e.Files, ", "))
}

// Unwrap makes errors.Is(err, ErrUnexpectedMutation) hold.
func (e *MutationError) Unwrap() error {
	return ErrUnexpectedMutation
}

// AggregateError collects the per-linter errors captured during one
// phase. It is returned only after every task has finished, so partial
// results from succeeding tasks are never discarded.
//
// Thread Safety: Immutable after creation.
type AggregateError struct {
	// Errors holds one captured error per failed task.
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d linter(s) failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is/As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
