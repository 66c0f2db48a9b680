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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewRunner_RunID(t *testing.T) {
	if id := NewRunner().RunID(); id == "" {
		t.Fatal("expected a generated run id")
	}
	if id := NewRunner(WithRunID("fixed")).RunID(); id != "fixed" {
		t.Fatalf("RunID = %q, want fixed", id)
	}
}

func TestExecute_CleanRun(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "checker", `echo "all good"; exit 0`)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	runner := NewRunner()
	result, err := runner.Execute(context.Background(), enabledLinter("checker"), []string{target})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Failed() {
		t.Fatalf("expected pass, got %+v", result)
	}
	if result.Stdout != "all good\n" {
		t.Fatalf("Stdout = %q", result.Stdout)
	}
	if len(result.ModifiedFiles) != 0 {
		t.Fatalf("ModifiedFiles = %v, want none", result.ModifiedFiles)
	}
}

func TestExecute_NonZeroExitIsAResult(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "checker", `echo "a.py:1: problem"; exit 1`)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	runner := NewRunner()
	result, err := runner.Execute(context.Background(), enabledLinter("checker"), []string{target})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Failed() {
		t.Fatal("expected failing result")
	}
	if result.Returncode != 1 {
		t.Fatalf("Returncode = %d, want 1", result.Returncode)
	}
}

func TestExecute_PassFilenames(t *testing.T) {
	dir := toolDir(t)
	out := filepath.Join(t.TempDir(), "argv")
	writeTool(t, dir, "argdump", `printf %s "$*" > "`+out+`"`)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	runner := NewRunner()

	linter := enabledLinter("argdump")
	linter.Options = []string{"--strict"}
	if _, err := runner.Execute(context.Background(), linter, []string{target}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := string(data), "--strict "+target; got != want {
		t.Fatalf("argv = %q, want %q", got, want)
	}

	linter.PassFilenames = false
	if _, err := runner.Execute(context.Background(), linter, []string{target}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err = os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := string(data); strings.Contains(got, target) {
		t.Fatalf("argv = %q, must not contain filenames", got)
	}
}

func TestExecute_MutableLinterReportsModifications(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "formatter", `sleep 0.05; echo "reformatted" >> "$1"; exit 0`)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x=1\n")

	linter := enabledLinter("formatter")
	linter.Mutable = true

	runner := NewRunner()
	result, err := runner.Execute(context.Background(), linter, []string{target})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.ModifiedFiles) != 1 || result.ModifiedFiles[0] != target {
		t.Fatalf("ModifiedFiles = %v, want [%s]", result.ModifiedFiles, target)
	}
	if !result.Failed() {
		t.Fatal("a run that rewrote files must count as failed")
	}
}

func TestExecute_MutationViolation(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "sneaky", `sleep 0.05; echo "oops" >> "$1"; exit 0`)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	runner := NewRunner()
	_, err := runner.Execute(context.Background(), enabledLinter("sneaky"), []string{target})
	if err == nil {
		t.Fatal("expected mutation violation")
	}
	if !errors.Is(err, ErrUnexpectedMutation) {
		t.Fatalf("err = %v, want ErrUnexpectedMutation", err)
	}
	var mutErr *MutationError
	if !errors.As(err, &mutErr) {
		t.Fatalf("err = %T, want *MutationError", err)
	}
	if len(mutErr.Files) != 1 || mutErr.Files[0] != target {
		t.Fatalf("Files = %v, want [%s]", mutErr.Files, target)
	}
}

func TestExecute_Timeout(t *testing.T) {
	dir := toolDir(t)
	writeTool(t, dir, "slow", `sleep 5`)

	linter := enabledLinter("slow")
	linter.Timeout = 50 * time.Millisecond

	runner := NewRunner()
	_, err := runner.Execute(context.Background(), linter, nil)
	if !errors.Is(err, ErrLinterTimeout) {
		t.Fatalf("err = %v, want ErrLinterTimeout", err)
	}
}

func TestExecute_DisabledLinterRejected(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Execute(context.Background(), Linter{Executable: "x"}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestExecute_MissingExecutable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)

	runner := NewRunner()
	_, err := runner.Execute(context.Background(), enabledLinter("definitely-absent"), nil)
	if !errors.Is(err, ErrLinterFailed) {
		t.Fatalf("err = %v, want ErrLinterFailed", err)
	}
}

// TestExecuteAll_SerializedWindows proves two concurrently dispatched
// linters never overlap inside the protected window: each fake tool
// creates a sentinel file on entry, fails if a sibling's sentinel
// already exists, and removes its own on exit.
func TestExecuteAll_SerializedWindows(t *testing.T) {
	dir := toolDir(t)
	overlap := t.TempDir()
	script := `lock="` + overlap + `/lock"
if [ -e "$lock" ]; then echo "overlap" >&2; exit 77; fi
touch "$lock"
sleep 0.05
rm -f "$lock"
exit 0`
	writeTool(t, dir, "writer", script)
	writeTool(t, dir, "reader", script)

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	writer := enabledLinter("writer")
	writer.Mutable = true
	reader := enabledLinter("reader")

	runner := NewRunner()
	results, err := runner.ExecuteAll(context.Background(), []Linter{writer, reader}, []string{target})
	if err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, result := range results {
		if result.Returncode == 77 {
			t.Fatalf("%s observed an overlapping protected window", result.Linter)
		}
		if result.Failed() {
			t.Fatalf("%s failed: %+v", result.Linter, result)
		}
	}
}

func TestExecuteAll_PartialResultsOnAggregateError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	writeTool(t, dir, "good", "exit 0")

	target := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, target, "x = 1\n")

	linters := []Linter{
		enabledLinter("good"),
		enabledLinter("gone"),
		{Executable: "off", Enabled: false},
	}

	runner := NewRunner()
	results, err := runner.ExecuteAll(context.Background(), linters, []string{target})
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("err = %T, want *AggregateError", err)
	}
	if len(agg.Errors) != 1 {
		t.Fatalf("len(agg.Errors) = %d, want 1", len(agg.Errors))
	}
	if !errors.Is(agg.Errors[0], ErrLinterFailed) {
		t.Fatalf("agg.Errors[0] = %v, want ErrLinterFailed", agg.Errors[0])
	}
	if len(results) != 1 || results[0].Linter != "good" {
		t.Fatalf("results = %+v, want just the good linter", results)
	}
}

func TestExecuteAll_Empty(t *testing.T) {
	runner := NewRunner()
	results, err := runner.ExecuteAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %v, want none", results)
	}
}
