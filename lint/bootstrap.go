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
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// healthCheckArg is the trivial invocation used to verify a resolved
// tool actually runs.
const healthCheckArg = "--help"

// Bootstrap verifies one linter is installed and functional.
//
// Description:
//
//	Resolves the executable on the search path; an unresolved tool
//	yields a result with an empty Which and no invocation, signalling
//	"missing" without raising. A resolved tool is invoked with a
//	health-check argument and its output and exit status captured.
//	Descriptors with BootstrapRetries above one repeat the whole
//	bootstrap while the exit status is non-zero, up to that many total
//	attempts; the last attempt's result is returned either way.
//
// Inputs:
//
//	ctx - Context for cancellation
//	linter - The descriptor to bootstrap
//
// Outputs:
//
//	BootstrapResult - The last attempt's outcome
//	error - Non-nil only when the process could not be spawned
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Bootstrap(ctx context.Context, linter Linter) (BootstrapResult, error) {
	if ctx == nil {
		return BootstrapResult{}, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	ctx, span := startBootstrapSpan(ctx, r.runID, linter.Executable)
	defer span.End()

	if linter.ScopedEnv != nil {
		release := scopeEnviron(linter.ScopedEnv())
		defer release()
	}

	attempts := linter.BootstrapRetries
	if attempts < 1 {
		attempts = 1
	}

	var result BootstrapResult
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			recordBootstrapRetry(ctx, linter.Executable)
			slog.Debug("Bootstrap failed, trying again",
				slog.String("run_id", r.runID),
				slog.String("linter", linter.Executable),
				slog.Int("attempt", attempt),
				slog.String("stdout", result.Stdout),
				slog.String("stderr", result.Stderr),
			)
		}
		result, err = r.bootstrapOnce(ctx, linter)
		if err != nil {
			return BootstrapResult{}, err
		}
		if result.Missing() || result.Returncode == 0 {
			break
		}
	}

	recordBootstrapMetrics(ctx, linter.Executable, result.Missing(), result.Returncode)

	if result.Missing() {
		slog.Warn("Linter missing",
			slog.String("run_id", r.runID),
			slog.String("linter", linter.Executable),
		)
	} else {
		slog.Debug("Linter bootstrapped",
			slog.String("run_id", r.runID),
			slog.String("linter", linter.Executable),
			slog.String("which", result.Which),
			slog.Int("returncode", result.Returncode),
		)
	}

	return result, nil
}

// bootstrapOnce performs a single resolve-and-health-check attempt.
func (r *Runner) bootstrapOnce(ctx context.Context, linter Linter) (BootstrapResult, error) {
	which, err := exec.LookPath(linter.Executable)
	if err != nil {
		return BootstrapResult{Linter: linter.Executable}, nil
	}

	stdout, stderr, code, err := runCapture(ctx, linter, which, []string{healthCheckArg})
	if err != nil {
		return BootstrapResult{}, err
	}

	return BootstrapResult{
		Linter:     linter.Executable,
		Which:      which,
		Stdout:     stdout,
		Stderr:     stderr,
		Returncode: code,
	}, nil
}

// BootstrapAll bootstraps every enabled linter in parallel.
//
// Description:
//
//	Bootstrap does not touch the target file set, so unlike execution
//	it carries no serialization. Disabled linters are skipped. As in
//	ExecuteAll, per-task errors are captured and returned together as
//	an *AggregateError after every task finishes.
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) BootstrapAll(ctx context.Context, linters []Linter) ([]BootstrapResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	results := make([]*BootstrapResult, len(linters))
	errs := make([]error, len(linters))

	var wg sync.WaitGroup
	for i, linter := range linters {
		if !linter.Enabled {
			continue
		}

		slog.Info("Bootstrapping linter",
			slog.String("run_id", r.runID),
			slog.String("linter", linter.Executable),
		)

		wg.Add(1)
		go func(idx int, l Linter) {
			defer wg.Done()
			result, err := r.Bootstrap(ctx, l)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = &result
		}(i, linter)
	}
	wg.Wait()

	return collect(results, errs)
}
