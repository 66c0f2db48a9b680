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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// RUNNER
// =============================================================================

// Runner coordinates bootstrap and execution across a set of linters.
//
// Description:
//
//	One Runner covers one run. Execution dispatches a task per enabled
//	linter; tasks run concurrently but the protected window
//	(snapshot → spawn → wait → diff) is serialized behind a single
//	mutex so two tools can never race on the same file set. Bootstrap
//	carries no such restriction and runs fully in parallel.
//
// Thread Safety: Safe for concurrent use.
type Runner struct {
	execMu sync.Mutex
	runID  string
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithRunID pins the run identifier; useful in tests and when the
// caller already minted a correlation id.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner creates a Runner for one run.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// RunID returns the run's correlation identifier.
func (r *Runner) RunID() string {
	return r.runID
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs one linter over the file set inside the protected
// window.
//
// Description:
//
//	The command line is the executable, its baseline options, its
//	user options, then the files when the descriptor passes
//	filenames. While holding the shared execution lock the runner
//	snapshots the file set, launches the subprocess, waits for
//	completion capturing stdout/stderr, and diffs the file set. A
//	non-empty diff from a non-mutable linter is a contract violation
//	returned as a *MutationError.
//
// Inputs:
//
//	ctx - Context for cancellation; each invocation additionally
//	      carries the descriptor's timeout
//	linter - The descriptor to run; must be Enabled
//	files - The file set under lint
//
// Outputs:
//
//	ExecResult - The captured outcome
//	error - Spawn failure, timeout, or mutation violation
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Execute(ctx context.Context, linter Linter, files []string) (ExecResult, error) {
	if ctx == nil {
		return ExecResult{}, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if !linter.Enabled {
		return ExecResult{}, fmt.Errorf("%w: %s is not enabled", ErrInvalidInput, linter.Executable)
	}

	ctx, span := startExecSpan(ctx, r.runID, linter.Executable, len(files))
	defer span.End()
	start := time.Now()

	if linter.ScopedEnv != nil {
		release := scopeEnviron(linter.ScopedEnv())
		defer release()
	}

	stdout, stderr, code, modified, err := r.execLocked(ctx, linter, files)
	if err != nil {
		recordExecMetrics(ctx, linter.Executable, time.Since(start), 0, 0, false)
		return ExecResult{}, err
	}

	if len(modified) > 0 && !linter.Mutable {
		recordMutationViolation(ctx, linter.Executable)
		return ExecResult{}, &MutationError{Linter: linter.Executable, Files: modified}
	}

	result := ExecResult{
		Linter:        linter.Executable,
		Stdout:        stdout,
		Stderr:        stderr,
		Returncode:    code,
		ModifiedFiles: modified,
		Quiet:         linter.Quiet,
	}

	setExecSpanResult(span, code, len(modified))
	recordExecMetrics(ctx, linter.Executable, time.Since(start), code, len(modified), true)

	slog.Debug("Linter finished",
		slog.String("run_id", r.runID),
		slog.String("linter", linter.Executable),
		slog.Int("returncode", code),
		slog.Int("modified", len(modified)),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// execLocked is the protected window: at most one subprocess runs at a
// time across the whole Runner, and the file-set diff brackets exactly
// that subprocess.
func (r *Runner) execLocked(ctx context.Context, linter Linter, files []string) (stdout, stderr string, code int, modified []string, err error) {
	r.execMu.Lock()
	defer r.execMu.Unlock()

	watch := NewPathWatch(files)
	stdout, stderr, code, err = runCapture(ctx, linter, linter.Executable, linter.args(files))
	if err != nil {
		return "", "", 0, nil, err
	}
	modified = watch.Modified()
	return stdout, stderr, code, modified, nil
}

// ExecuteAll runs every enabled linter over the file set.
//
// Description:
//
//	Disabled linters are skipped and contribute no result. Per-task
//	errors are captured individually and never abort sibling tasks;
//	after all tasks finish, captured errors are returned together as
//	an *AggregateError alongside the results that did succeed.
//
// Outputs:
//
//	[]ExecResult - One result per enabled linter that completed,
//	               in descriptor order
//	error - nil, or an *AggregateError
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) ExecuteAll(ctx context.Context, linters []Linter, files []string) ([]ExecResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	slog.Info("Executing linters",
		slog.String("run_id", r.runID),
		slog.Int("linters", len(linters)),
		slog.Int("files", len(files)),
	)

	results := make([]*ExecResult, len(linters))
	errs := make([]error, len(linters))

	g, gCtx := errgroup.WithContext(ctx)
	for i, linter := range linters {
		if !linter.Enabled {
			slog.Debug("Skipping disabled linter",
				slog.String("run_id", r.runID),
				slog.String("linter", linter.Executable),
			)
			continue
		}

		i, linter := i, linter
		g.Go(func() error {
			result, err := r.Execute(gCtx, linter, files)
			if err != nil {
				// Captured, not propagated: one broken linter must not
				// cancel its siblings.
				errs[i] = err
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	_ = g.Wait()

	return collect(results, errs)
}

// collect flattens indexed task outcomes into ordered results plus an
// optional aggregate error.
func collect[T any](results []*T, errs []error) ([]T, error) {
	out := make([]T, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	if len(collected) > 0 {
		return out, &AggregateError{Errors: collected}
	}
	return out, nil
}

// =============================================================================
// SUBPROCESS CAPTURE
// =============================================================================

// runCapture launches one subprocess, waits for completion, and
// captures its output.
//
// A non-zero exit is a normal outcome returned in code; only spawn
// failures and timeouts produce an error.
func runCapture(ctx context.Context, linter Linter, name string, args []string) (stdout, stderr string, code int, err error) {
	if timeout := linter.timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", "", 0, NewLinterError(linter.Executable, ErrLinterTimeout).
			WithOutput(errBuf.String())
	}
	if ctx.Err() != nil {
		return "", "", 0, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", "", 0, NewLinterError(linter.Executable,
				fmt.Errorf("%w: %v", ErrLinterFailed, runErr)).
				WithOutput(errBuf.String())
		}
		code = exitErr.ExitCode()
	}

	return outBuf.String(), errBuf.String(), code, nil
}
