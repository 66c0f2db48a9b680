// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config discovers and parses the lockstep project file.
//
// The project file is searched upward from the working directory, the
// way pyproject.toml discovery works: the first directory on the path
// to the filesystem root containing lockstep.yaml wins. Absence is a
// distinguishable, fatal condition carrying the searched paths.
//
// Thread Safety:
//
//	All exported functions are safe for concurrent use.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lockstep/lint"
)

const (
	// ProjectFilename is the file that marks the project root and
	// carries the lint configuration.
	ProjectFilename = "lockstep.yaml"

	// DefaultInclude selects the files handed to the linters when the
	// project file does not say otherwise.
	DefaultInclude = `\.py$`

	// MaxConfigFileSize is the maximum allowed project file size (1MB).
	// Prevents memory issues from large files.
	MaxConfigFileSize = 1024 * 1024
)

// Prometheus metrics for configuration loading.
var (
	configLoadTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lockstep_config_load_total",
		Help: "Total project file load attempts",
	})

	configLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lockstep_config_load_errors_total",
		Help: "Total project file load errors",
	})
)

// =============================================================================
// LINT CONFIGURATION
// =============================================================================

// LintConfiguration is the fully resolved configuration for one run.
//
// Thread Safety: Treat as immutable after Load returns.
type LintConfiguration struct {
	// Name is the project display name, taken from the directory that
	// holds the project file.
	Name string

	// Linters is the ordered, override-applied descriptor list.
	Linters []lint.Linter

	// Include filters the recursively expanded file set.
	Include *regexp.Regexp
}

// NoProjectFileError reports that no project file could be located.
type NoProjectFileError struct {
	// Filename is the project file that was looked for.
	Filename string

	// SearchPaths are the directories that were searched, nearest
	// first.
	SearchPaths []string
}

// Error implements the error interface.
func (e *NoProjectFileError) Error() string {
	return fmt.Sprintf("%q could not be located in the search paths: %s",
		e.Filename, strings.Join(e.SearchPaths, ", "))
}

// =============================================================================
// FILE SCHEMA
// =============================================================================

// fileConfig mirrors the YAML schema of the project file.
type fileConfig struct {
	Include string                  `yaml:"include"`
	Linters map[string]fileOverride `yaml:"linters"`
}

// fileOverride is the per-tool override block. Pointer fields
// distinguish "absent" from explicit false.
type fileOverride struct {
	Enabled           *bool    `yaml:"enabled"`
	Mutable           *bool    `yaml:"mutable"`
	Quiet             *bool    `yaml:"quiet"`
	PassFilenames     *bool    `yaml:"pass_filenames"`
	Options           []string `yaml:"options"`
	AdditionalOptions []string `yaml:"additional_options"`
	Timeout           string   `yaml:"timeout"`
}

// toOverride converts the YAML block into the engine's override type.
func (f fileOverride) toOverride() (lint.Override, error) {
	ov := lint.Override{
		Enabled:           f.Enabled,
		Mutable:           f.Mutable,
		Quiet:             f.Quiet,
		PassFilenames:     f.PassFilenames,
		Options:           f.Options,
		AdditionalOptions: f.AdditionalOptions,
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return lint.Override{}, fmt.Errorf("parsing timeout %q: %w", f.Timeout, err)
		}
		ov.Timeout = &d
	}
	return ov, nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load resolves the configuration starting from the working directory.
func Load(registry *lint.Registry) (*LintConfiguration, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return LoadFrom(cwd, registry)
}

// LoadFrom resolves the configuration starting from the given
// directory.
//
// Description:
//
//	Walks from dir toward the filesystem root looking for the project
//	file, decodes it, compiles the include pattern, and resolves the
//	registry's descriptors with the file's per-tool overrides.
//
// Outputs:
//
//	*LintConfiguration - The resolved configuration
//	error - *NoProjectFileError when no project file exists on the
//	        search path; otherwise decode/validation failures
func LoadFrom(dir string, registry *lint.Registry) (*LintConfiguration, error) {
	configLoadTotal.Inc()

	path, err := findProjectFile(dir)
	if err != nil {
		configLoadErrors.Inc()
		return nil, err
	}

	raw, err := readBounded(path)
	if err != nil {
		configLoadErrors.Inc()
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		configLoadErrors.Inc()
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	includeExpr := fc.Include
	if includeExpr == "" {
		includeExpr = DefaultInclude
	}
	include, err := regexp.Compile(includeExpr)
	if err != nil {
		configLoadErrors.Inc()
		return nil, fmt.Errorf("compiling include pattern %q: %w", includeExpr, err)
	}

	overrides := make(map[string]lint.Override, len(fc.Linters))
	for name, block := range fc.Linters {
		ov, err := block.toOverride()
		if err != nil {
			configLoadErrors.Inc()
			return nil, fmt.Errorf("linter %s: %w", name, err)
		}
		overrides[name] = ov
	}

	cfg := &LintConfiguration{
		Name:    filepath.Base(filepath.Dir(path)),
		Linters: registry.Resolve(overrides),
		Include: include,
	}

	slog.Debug("Configuration loaded",
		slog.String("project", cfg.Name),
		slog.String("path", path),
		slog.Int("linters", len(cfg.Linters)),
		slog.String("include", includeExpr),
	)

	return cfg, nil
}

// findProjectFile walks from dir toward the root looking for the
// project file.
func findProjectFile(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving search root: %w", err)
	}

	var searched []string
	for current := abs; ; {
		searched = append(searched, current)
		candidate := filepath.Join(current, ProjectFilename)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", &NoProjectFileError{Filename: ProjectFilename, SearchPaths: searched}
}

// readBounded reads the project file, rejecting files over the size
// cap before reading them.
func readBounded(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("%s exceeds the %d byte limit", path, MaxConfigFileSize)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return raw, nil
}

// IsNoProjectFile reports whether err is a missing-project-file
// condition.
func IsNoProjectFile(err error) bool {
	var npf *NoProjectFileError
	return errors.As(err, &npf)
}
