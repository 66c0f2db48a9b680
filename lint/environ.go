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
	"os"
	"path/filepath"
	"sync"
)

// environMu serializes scoped environment windows. The process
// environment is global, so two concurrent bootstraps must not
// interleave their set/restore pairs.
var environMu sync.Mutex

// scopeEnviron sets the given variables and returns a release function
// that restores the prior environment. Variables unset beforehand are
// unset again on release. The release function must be called on every
// exit path; callers defer it immediately.
func scopeEnviron(vars map[string]string) (release func()) {
	environMu.Lock()

	type prior struct {
		value string
		set   bool
	}
	saved := make(map[string]prior, len(vars))
	for key, value := range vars {
		old, ok := os.LookupEnv(key)
		saved[key] = prior{value: old, set: ok}
		os.Setenv(key, value)
	}

	return func() {
		defer environMu.Unlock()
		for key, p := range saved {
			if p.set {
				os.Setenv(key, p.value)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

// pyrightEnv pins pyright's node environment to a private, pre-resolved
// directory so flaky first-run downloads land in a predictable place,
// and disables use of a globally installed node.
func pyrightEnv() map[string]string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	envDir := os.Getenv("PYRIGHT_PYTHON_ENV_DIR")
	if envDir == "" {
		envDir = filepath.Join(dataHome, "pyright")
	}
	if abs, err := filepath.Abs(envDir); err == nil {
		envDir = abs
	}
	return map[string]string{
		"PYRIGHT_PYTHON_ENV_DIR":     envDir,
		"PYRIGHT_PYTHON_GLOBAL_NODE": "off",
	}
}
