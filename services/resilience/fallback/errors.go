// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fallback

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fallback package.
var (
	// ErrNotRegistered indicates the component has no fallback chain.
	// Distinct from chain exhaustion: nothing was even tried.
	ErrNotRegistered = errors.New("no fallbacks registered")
)

// ChainExhaustedError indicates every handler in a component's chain failed.
type ChainExhaustedError struct {
	// Component is the component whose chain was exhausted.
	Component string

	// Handlers is the number of handlers that were tried.
	Handlers int

	// LastErr is the failure from the final handler.
	LastErr error
}

// Error implements the error interface.
func (e *ChainExhaustedError) Error() string {
	return fmt.Sprintf("all %d fallbacks exhausted for component %q: %v",
		e.Handlers, e.Component, e.LastErr)
}

// Unwrap exposes the final handler failure for errors.Is/As.
func (e *ChainExhaustedError) Unwrap() error {
	return e.LastErr
}
