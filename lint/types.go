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
	"strings"
	"time"
)

// DefaultTimeout bounds a single linter invocation.
//
// The original asyncio implementation placed no timeout around the
// subprocess wait; that gap is closed here. Generous because tools like
// prospector routinely take minutes on large trees.
const DefaultTimeout = 5 * time.Minute

// EnvFunc produces environment variables to scope around every
// invocation of a linter. Called at invocation time so values can be
// resolved against the current environment (e.g. XDG paths).
type EnvFunc func() map[string]string

// =============================================================================
// LINTER DESCRIPTOR
// =============================================================================

// Linter describes one external linting tool.
//
// Description:
//
//	A descriptor is constructed by a Registry builder, optionally
//	overridden by per-tool configuration, and handed to the Runner.
//
// Thread Safety: Treat as immutable once the Runner starts.
type Linter struct {
	// Executable is the tool's binary name, resolved on PATH. Also the
	// descriptor's identity for configuration and reporting.
	Executable string

	// Options are user-facing options appended after AdditionalOptions.
	Options []string

	// AdditionalOptions are baseline options the tool always needs
	// (e.g. pyupgrade's --exit-zero-even-if-changed).
	AdditionalOptions []string

	// Mutable permits the tool to rewrite the files it is given.
	// A non-mutable linter observed modifying files is a contract
	// violation surfaced as an error.
	Mutable bool

	// Enabled gates whether the tool runs at all. Disabled linters are
	// skipped and contribute no result.
	Enabled bool

	// Quiet suppresses captured output from being echoed on success.
	Quiet bool

	// PassFilenames appends the file set to the invocation. Tools like
	// pyright discover their own inputs and set this to false.
	PassFilenames bool

	// Timeout bounds one invocation. Zero means DefaultTimeout;
	// negative disables the bound entirely.
	Timeout time.Duration

	// BootstrapRetries is the total number of bootstrap attempts while
	// the health check exits non-zero. Values below one mean a single
	// attempt.
	BootstrapRetries int

	// ScopedEnv, when set, is applied to the process environment for
	// the duration of every bootstrap and execution of this tool, and
	// restored afterwards.
	ScopedEnv EnvFunc
}

// Clone returns a deep copy of the descriptor.
func (l *Linter) Clone() Linter {
	clone := *l
	clone.Options = make([]string, len(l.Options))
	copy(clone.Options, l.Options)
	clone.AdditionalOptions = make([]string, len(l.AdditionalOptions))
	copy(clone.AdditionalOptions, l.AdditionalOptions)
	return clone
}

// args assembles the argument vector for one execution: baseline
// options, then user options, then the file set when PassFilenames.
func (l *Linter) args(files []string) []string {
	args := make([]string, 0, len(l.AdditionalOptions)+len(l.Options)+len(files))
	args = append(args, l.AdditionalOptions...)
	args = append(args, l.Options...)
	if l.PassFilenames {
		args = append(args, files...)
	}
	return args
}

// timeout returns the effective invocation bound.
func (l *Linter) timeout() time.Duration {
	switch {
	case l.Timeout < 0:
		return 0
	case l.Timeout == 0:
		return DefaultTimeout
	default:
		return l.Timeout
	}
}

// =============================================================================
// RESULTS
// =============================================================================

// BootstrapResult is the terminal outcome of the bootstrap phase for
// one linter.
//
// Thread Safety: Immutable after creation.
type BootstrapResult struct {
	// Linter is the executable name of the tool this result belongs to.
	Linter string `json:"linter"`

	// Which is the located path of the executable. Empty means the
	// tool was not found on the search path; no invocation was made
	// and Returncode is meaningless.
	Which string `json:"which,omitempty"`

	// Stdout and Stderr hold the health-check invocation's output.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// Returncode is the health-check exit status. Valid only when
	// Which is non-empty.
	Returncode int `json:"returncode"`
}

// Missing reports whether the executable could not be located.
func (r *BootstrapResult) Missing() bool {
	return r.Which == ""
}

// Broken reports whether the tool was found but its health check
// exited non-zero.
func (r *BootstrapResult) Broken() bool {
	return r.Which != "" && r.Returncode != 0
}

// PrettyOutput returns the captured output with a per-stream gutter.
func (r *BootstrapResult) PrettyOutput() string {
	return prettyOutput(r.Linter, r.Stdout, r.Stderr)
}

// ExecResult is the terminal outcome of the execution phase for one
// linter.
//
// Thread Safety: Immutable after creation.
type ExecResult struct {
	// Linter is the executable name of the tool this result belongs to.
	Linter string `json:"linter"`

	// Stdout and Stderr hold the tool's captured output.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// Returncode is the tool's exit status. Non-zero means the tool
	// found problems; it is not an engine error.
	Returncode int `json:"returncode"`

	// ModifiedFiles lists the files the mutation detector saw change
	// during this tool's protected window.
	ModifiedFiles []string `json:"modified_files,omitempty"`

	// Quiet mirrors the descriptor flag so reporting can suppress
	// output echo for quiet tools.
	Quiet bool `json:"-"`
}

// Failed reports whether this result marks the run as not clean:
// a non-zero exit, or any modification (mutable tools included, since
// a modifying run is not idempotently clean).
func (r *ExecResult) Failed() bool {
	return r.Returncode != 0 || len(r.ModifiedFiles) > 0
}

// PrettyOutput returns the captured output with a per-stream gutter.
func (r *ExecResult) PrettyOutput() string {
	return prettyOutput(r.Linter, r.Stdout, r.Stderr)
}

// prettyOutput indents each captured stream under a "name¹:" (stdout)
// or "name²:" (stderr) gutter so interleaved reports stay attributable.
func prettyOutput(linter, stdout, stderr string) string {
	var sections []string
	for i, out := range []string{stdout, stderr} {
		if out == "" {
			continue
		}
		gutter := linter + [2]string{"¹", "²"}[i] + ": "
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		for j, line := range lines {
			lines[j] = gutter + line
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n")
}
