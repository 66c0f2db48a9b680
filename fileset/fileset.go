// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fileset expands command-line arguments into the file set
// handed to the linters.
package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Resolve expands args into an ordered, de-duplicated list of absolute
// file paths.
//
// Description:
//
//	Directory arguments are walked recursively; hidden directories and
//	the usual dependency trees (vendor, node_modules) are skipped.
//	Every candidate — walked or given explicitly — must be a regular
//	file whose path matches include. Arguments that do not exist are
//	dropped silently, matching the original CLI's behavior. Order is
//	first-seen; it matters only for reporting, since execution is
//	concurrent.
//
// Inputs:
//
//	args - Files and directories from the command line
//	include - Pattern a file path must match to be linted
//
// Outputs:
//
//	[]string - Absolute paths of the selected files
//	error - Non-nil if a directory walk failed
func Resolve(args []string, include *regexp.Regexp) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
		if _, dup := seen[abs]; dup {
			return nil
		}
		if !include.MatchString(filepath.ToSlash(abs)) {
			return nil
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
		return nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				if err := add(arg); err != nil {
					return nil, err
				}
			}
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	return files, nil
}

// skipDir reports whether a walked directory should be pruned.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules"
}
