// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lockstep/config"
	"github.com/AleutianAI/lockstep/fileset"
	"github.com/AleutianAI/lockstep/lint"
	"github.com/AleutianAI/lockstep/pkg/logging"
)

// version is overridden at release time via -ldflags.
var version = "0.1.0"

// Sentinels distinguishing "a phase failed" (already reported to the
// console) from unexpected errors.
var (
	errBootstrapFailed = errors.New("bootstrap failed")
	errLintFailed      = errors.New("lint failed")
)

func newRootCmd() *cobra.Command {
	var (
		bootstrap bool
		verbose   bool
		logDir    string
	)

	cmd := &cobra.Command{
		Use:   "lockstep [flags] [files...]",
		Short: "Run a set of Python linters in lockstep",
		Long: `lockstep runs the configured linters over the given files and
directories, one subprocess at a time behind a shared lock, and
verifies that no tool modifies files it is not permitted to modify.

Configuration is read from the nearest lockstep.yaml on the path from
the working directory to the filesystem root.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if verbose {
				level = logging.LevelDebug
			}
			logger := logging.New(logging.Config{Level: level, LogDir: logDir})
			defer logger.Close()
			logger.Install()

			cfg, err := config.Load(lint.DefaultRegistry())
			if err != nil {
				// A missing project file is fatal before any linter runs.
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			runner := lint.NewRunner()
			out := cmd.OutOrStdout()

			if bootstrap {
				if err := runBootstrap(cmd.Context(), runner, cfg, out); err != nil {
					return err
				}
			}

			return runLint(cmd.Context(), runner, cfg, args, out)
		},
	}

	cmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "Bootstrap all of the linters before running them")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")

	return cmd
}

// runBootstrap drives the bootstrap phase and reports it.
func runBootstrap(ctx context.Context, runner *lint.Runner, cfg *config.LintConfiguration, out io.Writer) error {
	results, aggErr := runner.BootstrapAll(ctx, cfg.Linters)

	failed := lint.WriteBootstrapReport(out, results)
	lint.WriteErrors(out, aggErr)

	if failed || aggErr != nil {
		fmt.Fprintln(out, "Linting bootstrap failed.")
		return errBootstrapFailed
	}
	fmt.Fprintln(out, "Bootstrapping finished successfully.")
	return nil
}

// runLint resolves the file set, drives the execution phase, and
// reports it.
func runLint(ctx context.Context, runner *lint.Runner, cfg *config.LintConfiguration, args []string, out io.Writer) error {
	files, err := fileset.Resolve(args, cfg.Include)
	if err != nil {
		fmt.Fprintln(out, err)
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files to lint.")
		return nil
	}

	fmt.Fprintln(out, "Linting the following files:")
	for _, file := range files {
		fmt.Fprintf(out, "- %s\n", file)
	}

	results, aggErr := runner.ExecuteAll(ctx, cfg.Linters, files)

	failed := lint.WriteExecReport(out, results)
	lint.WriteErrors(out, aggErr)

	if failed || aggErr != nil {
		fmt.Fprintln(out, "Linting failed.")
		return errLintFailed
	}
	fmt.Fprintln(out, "Linting ran successfully")
	return nil
}
