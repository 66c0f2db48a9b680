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
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestBootstrap_MissingTool(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir) // nothing else resolvable

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), enabledLinter("no-such-linter"))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !result.Missing() {
		t.Fatalf("expected missing, got which=%q", result.Which)
	}
	if result.Broken() {
		t.Fatal("a missing tool must not also report broken")
	}
	if result.Linter != "no-such-linter" {
		t.Fatalf("Linter = %q", result.Linter)
	}
}

func TestBootstrap_HealthyTool(t *testing.T) {
	dir := toolDir(t)
	want := writeTool(t, dir, "goodtool", `echo "usage: goodtool"; exit 0`)

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), enabledLinter("goodtool"))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if result.Missing() || result.Broken() {
		t.Fatalf("expected healthy result, got %+v", result)
	}
	if result.Which != want {
		t.Fatalf("Which = %q, want %q", result.Which, want)
	}
	if result.Stdout != "usage: goodtool\n" {
		t.Fatalf("Stdout = %q", result.Stdout)
	}
}

func TestBootstrap_BrokenTool(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "badtool", `echo "boom" >&2; exit 3`)

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), enabledLinter("badtool"))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !result.Broken() {
		t.Fatalf("expected broken, got %+v", result)
	}
	if result.Returncode != 3 {
		t.Fatalf("Returncode = %d, want 3", result.Returncode)
	}
	if result.Stderr != "boom\n" {
		t.Fatalf("Stderr = %q", result.Stderr)
	}
}

// countingTool writes a fake tool that increments a counter file on
// each invocation and exits non-zero until invocation passAt.
func countingTool(t *testing.T, dir, name string, passAt int) string {
	t.Helper()
	counter := filepath.Join(t.TempDir(), "count")
	writeFile(t, counter, "0")
	script := `n=$(cat "` + counter + `")
n=$((n + 1))
printf %s "$n" > "` + counter + `"
if [ "$n" -ge ` + strconv.Itoa(passAt) + ` ]; then exit 0; fi
exit 1`
	writeTool(t, dir, name, script)
	return counter
}

func readCount(t *testing.T, counter string) string {
	t.Helper()
	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestBootstrap_RetrySucceedsWithinBudget(t *testing.T) {
	dir := toolDir(t)
	counter := countingTool(t, dir, "flaky", 3)

	linter := enabledLinter("flaky")
	linter.BootstrapRetries = 3

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), linter)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if result.Broken() {
		t.Fatalf("expected eventual success, got returncode %d", result.Returncode)
	}
	if got := readCount(t, counter); got != "3" {
		t.Fatalf("invocations = %s, want 3", got)
	}
}

func TestBootstrap_RetryExhaustsBudget(t *testing.T) {
	dir := toolDir(t)
	counter := countingTool(t, dir, "hopeless", 99)

	linter := enabledLinter("hopeless")
	linter.BootstrapRetries = 3

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), linter)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !result.Broken() {
		t.Fatal("expected final attempt to report broken")
	}
	if got := readCount(t, counter); got != "3" {
		t.Fatalf("invocations = %s, want exactly 3", got)
	}
}

func TestBootstrap_NoRetryByDefault(t *testing.T) {
	dir := toolDir(t)
	counter := countingTool(t, dir, "oneshot", 99)

	runner := NewRunner()
	result, err := runner.Bootstrap(context.Background(), enabledLinter("oneshot"))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !result.Broken() {
		t.Fatal("expected broken result")
	}
	if got := readCount(t, counter); got != "1" {
		t.Fatalf("invocations = %s, want 1", got)
	}
}

func TestBootstrap_NilContext(t *testing.T) {
	runner := NewRunner()
	if _, err := runner.Bootstrap(nil, enabledLinter("whatever")); err == nil { //nolint:staticcheck
		t.Fatal("expected error for nil context")
	}
}

func TestBootstrapAll_MixedFleet(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	writeTool(t, dir, "healthy", "exit 0")
	writeTool(t, dir, "broken", "exit 1")

	linters := []Linter{
		enabledLinter("healthy"),
		enabledLinter("broken"),
		enabledLinter("absent"),
		{Executable: "disabled", Enabled: false},
	}

	runner := NewRunner()
	results, err := runner.BootstrapAll(context.Background(), linters)
	if err != nil {
		t.Fatalf("BootstrapAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3 (disabled skipped)", len(results))
	}

	byName := make(map[string]BootstrapResult, len(results))
	for _, r := range results {
		byName[r.Linter] = r
	}
	if r := byName["healthy"]; r.Missing() || r.Broken() {
		t.Fatalf("healthy: %+v", r)
	}
	if r := byName["broken"]; !r.Broken() {
		t.Fatalf("broken: %+v", r)
	}
	if r := byName["absent"]; !r.Missing() {
		t.Fatalf("absent: %+v", r)
	}
	if _, ok := byName["disabled"]; ok {
		t.Fatal("disabled linter must not produce a result")
	}
}

func TestBootstrapAll_Empty(t *testing.T) {
	runner := NewRunner()
	results, err := runner.BootstrapAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("BootstrapAll: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("len(results) = %d, want 0", len(results))
	}
}
