// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"testing"
)

func TestValidateComponentName(t *testing.T) {
	tests := []struct {
		name      string
		component string
		wantErr   bool
	}{
		// Valid names
		{"simple", "api", false},
		{"with underscore", "memory_system", false},
		{"with hyphen", "command-dispatcher", false},
		{"with dot", "gateway.primary", false},
		{"with digits", "worker2", false},

		// Invalid names
		{"empty", "", true},
		{"uppercase", "MemorySystem", true},
		{"leading digit", "2fast", true},
		{"leading underscore", "_internal", true},
		{"space", "memory system", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"injection attempt", "api; drop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponentName(tt.component)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateComponentName(%q) error = %v, wantErr %v", tt.component, err, tt.wantErr)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	type report struct {
		ErrorRate       float64 `validate:"gte=0,lte=1"`
		AvgResponseTime float64 `validate:"gte=0"`
	}

	if err := Struct(report{ErrorRate: 0.25, AvgResponseTime: 1.5}); err != nil {
		t.Errorf("valid report rejected: %v", err)
	}
	if err := Struct(report{ErrorRate: 1.5}); err == nil {
		t.Error("out-of-range error rate accepted")
	}
	if err := Struct(report{AvgResponseTime: -1}); err == nil {
		t.Error("negative response time accepted")
	}
}
