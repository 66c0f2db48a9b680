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
	"io"
)

// =============================================================================
// CONSOLE REPORTING
// =============================================================================

// WriteBootstrapReport writes the per-linter bootstrap report and
// reports whether the phase failed.
//
// A missing executable and a non-zero health check both fail the
// phase; each gets a readable line plus the tool's captured output.
func WriteBootstrapReport(w io.Writer, results []BootstrapResult) (failed bool) {
	for i := range results {
		result := &results[i]
		if result.Broken() {
			fmt.Fprintf(w, "%s is broken and exited %d\n", result.Linter, result.Returncode)
			writeNonEmpty(w, result.PrettyOutput())
			failed = true
		}
		if result.Missing() {
			fmt.Fprintf(w, "%s is missing\n", result.Linter)
			failed = true
		}
	}
	return failed
}

// WriteExecReport writes the per-linter execution report and reports
// whether the phase failed.
//
// A non-zero exit or any modified file fails the phase — even when the
// tool was permitted to modify, since the run is then not idempotently
// clean and the caller should re-run or inspect. Successful quiet
// tools have their captured output suppressed.
func WriteExecReport(w io.Writer, results []ExecResult) (failed bool) {
	for i := range results {
		result := &results[i]
		if len(result.ModifiedFiles) > 0 {
			fmt.Fprintf(w, "%s found errors and modified files:\n", result.Linter)
			for _, path := range result.ModifiedFiles {
				fmt.Fprintf(w, "- %s modified %s\n", result.Linter, path)
			}
			failed = true
		}
		if result.Returncode != 0 {
			fmt.Fprintf(w, "%s found errors and exited %d\n", result.Linter, result.Returncode)
			writeNonEmpty(w, result.PrettyOutput())
			failed = true
		}
		if !result.Failed() && !result.Quiet {
			writeNonEmpty(w, result.PrettyOutput())
		}
	}
	return failed
}

// WriteErrors writes one line per captured error, unwrapping an
// *AggregateError into its individual failures.
func WriteErrors(w io.Writer, err error) {
	if err == nil {
		return
	}
	var agg *AggregateError
	if errors.As(err, &agg) {
		for _, inner := range agg.Errors {
			fmt.Fprintf(w, "error: %v\n", inner)
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func writeNonEmpty(w io.Writer, s string) {
	if s != "" {
		fmt.Fprintln(w, s)
	}
}
