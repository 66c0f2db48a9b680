// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint coordinates the execution of external linters over a file set.
//
// The package owns no linting logic itself. It launches the configured
// tools as subprocesses, serializes their execution behind a single lock,
// watches the file set for unexpected modifications, and aggregates the
// per-tool outcomes into one pass/fail decision.
//
// # Architecture
//
//	Registry → []Linter → Runner.BootstrapAll / Runner.ExecuteAll → results
//
// Bootstrap verifies each tool is installed and answers a health-check
// invocation; tools with flaky first runs (pyright downloads a node
// environment on first use) are retried a bounded number of times.
// Execution dispatches one task per enabled linter. Tasks run
// concurrently, but the actual subprocess invocation is guarded by a
// shared mutex so that the pre/post file diffing of one tool can never
// observe another tool's in-flight writes.
//
// # Default Linters
//
//	| Tool       | Mutates files | Notes                           |
//	|------------|---------------|---------------------------------|
//	| pyupgrade  | yes           | exits zero even when rewriting  |
//	| black      | yes           |                                 |
//	| isort      | yes           |                                 |
//	| flake8     | no            |                                 |
//	| pyright    | no            | retried bootstrap, scoped env   |
//	| prospector | no            |                                 |
//
// # Failure Model
//
// A missing or broken tool is reported in its result, never thrown. A
// linter that modifies files without being declared Mutable is a
// contract violation and surfaces as a hard per-linter error. Per-task
// errors are collected and returned together as an *AggregateError
// after every task has finished, so one broken tool cannot hide the
// results of its siblings.
package lint
