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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for lint operations.
var (
	tracer = otel.Tracer("aleutian.lockstep")
	meter  = otel.Meter("aleutian.lockstep")
)

// Metrics for bootstrap and execution.
var (
	execLatency        metric.Float64Histogram
	execTotal          metric.Int64Counter
	filesModified      metric.Int64Histogram
	mutationViolations metric.Int64Counter
	bootstrapTotal     metric.Int64Counter
	bootstrapRetries   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		execLatency, err = meter.Float64Histogram(
			"lint_exec_duration_seconds",
			metric.WithDescription("Duration of linter executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		execTotal, err = meter.Int64Counter(
			"lint_exec_total",
			metric.WithDescription("Total number of linter executions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesModified, err = meter.Int64Histogram(
			"lint_files_modified",
			metric.WithDescription("Number of files modified per linter execution"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mutationViolations, err = meter.Int64Counter(
			"lint_mutation_violations_total",
			metric.WithDescription("Total executions where a non-mutable linter modified files"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		bootstrapTotal, err = meter.Int64Counter(
			"lint_bootstrap_total",
			metric.WithDescription("Total number of linter bootstrap attempts"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		bootstrapRetries, err = meter.Int64Counter(
			"lint_bootstrap_retries_total",
			metric.WithDescription("Total bootstrap retries for flaky tools"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startExecSpan creates a span for one linter execution.
func startExecSpan(ctx context.Context, runID, linter string, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.Execute",
		trace.WithAttributes(
			attribute.String("lint.run_id", runID),
			attribute.String("lint.linter", linter),
			attribute.Int("lint.file_count", fileCount),
		),
	)
}

// setExecSpanResult sets the result attributes on an execution span.
func setExecSpanResult(span trace.Span, returncode, modifiedCount int) {
	span.SetAttributes(
		attribute.Int("lint.returncode", returncode),
		attribute.Int("lint.modified_count", modifiedCount),
	)
}

// startBootstrapSpan creates a span for one linter bootstrap.
func startBootstrapSpan(ctx context.Context, runID, linter string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.Bootstrap",
		trace.WithAttributes(
			attribute.String("lint.run_id", runID),
			attribute.String("lint.linter", linter),
		),
	)
}

// recordExecMetrics records metrics for one linter execution.
func recordExecMetrics(ctx context.Context, linter string, duration time.Duration, returncode, modifiedCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("linter", linter),
		attribute.Bool("success", success),
	)

	execLatency.Record(ctx, duration.Seconds(), attrs)
	execTotal.Add(ctx, 1, attrs)

	if success {
		filesModified.Record(ctx, int64(modifiedCount), metric.WithAttributes(
			attribute.String("linter", linter),
			attribute.Bool("clean", returncode == 0 && modifiedCount == 0),
		))
	}
}

// recordMutationViolation counts a mutation-contract violation.
func recordMutationViolation(ctx context.Context, linter string) {
	if err := initMetrics(); err != nil {
		return
	}
	mutationViolations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("linter", linter),
	))
}

// recordBootstrapMetrics records one bootstrap attempt.
func recordBootstrapMetrics(ctx context.Context, linter string, missing bool, returncode int) {
	if err := initMetrics(); err != nil {
		return
	}
	bootstrapTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("linter", linter),
		attribute.Bool("missing", missing),
		attribute.Bool("healthy", !missing && returncode == 0),
	))
}

// recordBootstrapRetry counts a retried bootstrap.
func recordBootstrapRetry(ctx context.Context, linter string) {
	if err := initMetrics(); err != nil {
		return
	}
	bootstrapRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("linter", linter),
	))
}
