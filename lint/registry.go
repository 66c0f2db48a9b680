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
	"sync"
	"time"
)

// =============================================================================
// DESCRIPTOR REGISTRY
// =============================================================================

// Builder constructs a fresh descriptor for one well-known tool.
type Builder func() Linter

// Registry maps tool names to descriptor builders.
//
// Description:
//
//	The registry is an explicit, passed-in object rather than
//	module-level state so independent runs and tests can use
//	independent registries. Registration order is preserved; it only
//	matters for console reporting, never for correctness, since
//	execution is concurrent.
//
// Thread Safety: Safe for concurrent use after initialization.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces the builder for a tool name. First
// registration fixes the tool's position in the resolution order.
func (r *Registry) Register(name string, build Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.builders[name] = build
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Resolve builds the ordered descriptor list, applying per-tool
// overrides keyed by name. Overrides for unknown tools are ignored.
func (r *Registry) Resolve(overrides map[string]Override) []Linter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	linters := make([]Linter, 0, len(r.order))
	for _, name := range r.order {
		linter := r.builders[name]()
		if ov, ok := overrides[name]; ok {
			linter = ov.Apply(linter)
		}
		linters = append(linters, linter)
	}
	return linters
}

// =============================================================================
// OVERRIDES
// =============================================================================

// Override replaces specific descriptor fields without reconstructing
// the registry. Nil pointer fields keep the default; nil slices keep
// the default option lists.
type Override struct {
	Enabled           *bool
	Mutable           *bool
	Quiet             *bool
	PassFilenames     *bool
	Options           []string
	AdditionalOptions []string
	Timeout           *time.Duration
}

// Apply returns a copy of the descriptor with the override folded in.
func (o Override) Apply(l Linter) Linter {
	out := l.Clone()
	if o.Enabled != nil {
		out.Enabled = *o.Enabled
	}
	if o.Mutable != nil {
		out.Mutable = *o.Mutable
	}
	if o.Quiet != nil {
		out.Quiet = *o.Quiet
	}
	if o.PassFilenames != nil {
		out.PassFilenames = *o.PassFilenames
	}
	if o.Options != nil {
		out.Options = append([]string(nil), o.Options...)
	}
	if o.AdditionalOptions != nil {
		out.AdditionalOptions = append([]string(nil), o.AdditionalOptions...)
	}
	if o.Timeout != nil {
		out.Timeout = *o.Timeout
	}
	return out
}

// =============================================================================
// DEFAULT REGISTRY
// =============================================================================

// DefaultRegistry returns a fresh registry with the six well-known
// Python linters and their baseline options.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("pyupgrade", func() Linter {
		return Linter{
			Executable:        "pyupgrade",
			Mutable:           true,
			Enabled:           true,
			PassFilenames:     true,
			AdditionalOptions: []string{"--py37-plus", "--exit-zero-even-if-changed"},
		}
	})

	r.Register("black", func() Linter {
		return Linter{
			Executable:        "black",
			Mutable:           true,
			Enabled:           true,
			PassFilenames:     true,
			AdditionalOptions: []string{"-t", "py37"},
		}
	})

	r.Register("isort", func() Linter {
		return Linter{
			Executable:        "isort",
			Mutable:           true,
			Enabled:           true,
			PassFilenames:     true,
			AdditionalOptions: []string{"--py", "37"},
		}
	})

	r.Register("flake8", func() Linter {
		return Linter{
			Executable:    "flake8",
			Enabled:       true,
			PassFilenames: true,
		}
	})

	r.Register("pyright", func() Linter {
		// pyright downloads a node environment on first use; the
		// bootstrap is retried and its cache directory is pinned via
		// a scoped environment.
		return Linter{
			Executable:       "pyright",
			Enabled:          true,
			PassFilenames:    false,
			BootstrapRetries: 3,
			ScopedEnv:        pyrightEnv,
		}
	})

	r.Register("prospector", func() Linter {
		return Linter{
			Executable:    "prospector",
			Enabled:       true,
			PassFilenames: true,
		}
	})

	return r
}
