// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fallback maintains ordered chains of fallback handlers per
// logical component and executes them sequentially until one succeeds.
//
// This registry is deliberately distinct from the degradation manager's
// built-in single-fallback map: the registry runs arbitrary handler chains
// with uniform arguments, while the degradation manager pairs each known
// component with one purpose-built fallback and component-specific
// argument remapping. The two mechanisms share only the "try in order,
// propagate final failure" contract.
package fallback

import (
	"context"
	"fmt"
	"sync"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
)

// Handler is a fallback handler for a component.
// Handlers receive the same arguments the primary operation would have.
type Handler func(ctx context.Context, args ...any) (any, error)

// DefaultPriority is used when Register is called without an explicit
// priority. Lower values are tried first.
const DefaultPriority = 100

// entry pairs a handler with its priority and insertion order.
type entry struct {
	handler  Handler
	priority int
	seq      int
}

// Registry holds ordered fallback chains per component name.
//
// Chains are tried strictly in ascending priority order; ties keep
// insertion order. Execution is sequential: one handler completes
// (success or failure) before the next begins.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	logger *logging.Logger

	mu     sync.RWMutex
	chains map[string][]entry
	seq    int
}

// NewRegistry creates an empty fallback registry.
//
// Inputs:
//   - logger: Structured logger for swallowed handler failures. Must not
//     be nil; pass logging.Discard() to silence.
//
// Outputs:
//   - *Registry: Ready-to-use registry.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		logger: logger.With("subsystem", "fallback_registry"),
		chains: make(map[string][]entry),
	}
}

// Register inserts a handler into the component's chain.
//
// Inputs:
//   - component: Logical component name the chain belongs to.
//   - handler: The fallback handler. Must not be nil.
//   - priority: Position in the chain; lower values are tried first.
//     Handlers with equal priority keep their registration order.
//
// Example:
//
//	reg.Register("vector_search", cachedSearch, 10)
//	reg.Register("vector_search", keywordSearch, 50)
func (r *Registry) Register(component string, handler Handler, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := entry{handler: handler, priority: priority, seq: r.seq}

	chain := r.chains[component]
	// Insert keeping ascending priority, stable on ties.
	pos := len(chain)
	for i, existing := range chain {
		if existing.priority > e.priority {
			pos = i
			break
		}
	}
	chain = append(chain, entry{})
	copy(chain[pos+1:], chain[pos:])
	chain[pos] = e
	r.chains[component] = chain

	r.logger.Debug("fallback registered",
		"component", component,
		"priority", priority,
		"chain_length", len(chain))
}

// Len returns the number of handlers registered for a component.
func (r *Registry) Len(component string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains[component])
}

// Execute runs the component's fallback chain until one handler succeeds.
//
// Inputs:
//   - ctx: Context passed to every handler.
//   - component: The component whose chain to execute.
//   - args: Arguments forwarded unchanged to every handler.
//
// Outputs:
//   - any: The first successful handler's result.
//   - error: ErrNotRegistered if the component has no chain;
//     a *ChainExhaustedError wrapping the last handler failure once every
//     handler has failed; nil on success.
//
// Handlers after the first success are never invoked. Individual handler
// failures are logged and swallowed until the chain is exhausted.
func (r *Registry) Execute(ctx context.Context, component string, args ...any) (any, error) {
	r.mu.RLock()
	chain := make([]entry, len(r.chains[component]))
	copy(chain, r.chains[component])
	r.mu.RUnlock()

	if len(chain) == 0 {
		return nil, fmt.Errorf("component %q: %w", component, ErrNotRegistered)
	}

	var lastErr error
	for i, e := range chain {
		result, err := e.handler(ctx, args...)
		if err == nil {
			r.logger.Debug("fallback succeeded",
				"component", component,
				"position", i,
				"priority", e.priority)
			return result, nil
		}

		lastErr = err
		r.logger.Warn("fallback handler failed",
			"component", component,
			"position", i,
			"priority", e.priority,
			"error", err)
	}

	return nil, &ChainExhaustedError{
		Component: component,
		Handlers:  len(chain),
		LastErr:   lastErr,
	}
}
