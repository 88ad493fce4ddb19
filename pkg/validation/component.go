// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for data crossing the
// resilience boundary.
//
// Component statuses arrive from arbitrary reporters (gateways, service
// managers, scripts). Validating them here keeps loosely-shaped input from
// leaking into the degradation state machine.
package validation

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// componentNamePattern matches valid component names.
// Allows: lowercase letters, digits, underscores, hyphens, dots.
// Must start with a letter. Max length: 64 characters.
var componentNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_.\-]{0,63}$`)

// validate is the shared validator instance. validator.Validate is
// thread-safe and caches struct metadata, so one instance serves the
// whole process.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateComponentName validates a component name.
//
// Valid names:
//   - 1-64 characters
//   - Lowercase letters, digits, underscores, hyphens, dots
//   - Must start with a letter
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateComponentName(name); err != nil {
//	    return fmt.Errorf("invalid component: %w", err)
//	}
func ValidateComponentName(name string) error {
	if name == "" {
		return fmt.Errorf("component name cannot be empty")
	}

	if !componentNamePattern.MatchString(name) {
		return fmt.Errorf("invalid component name: %q (must be 1-64 lowercase alphanumeric chars, underscores, hyphens, or dots, starting with a letter)", name)
	}

	return nil
}

// Struct validates a struct using its `validate` tags.
//
// Returns nil if every tagged field passes, or a validator error
// describing the first set of failures.
func Struct(s any) error {
	return validate.Struct(s)
}
