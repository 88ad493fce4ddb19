// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package degradation

import (
	"errors"
	"testing"
	"time"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelNormal, "normal"},
		{LevelLimited, "limited"},
		{LevelEssential, "essential"},
		{LevelEmergency, "emergency"},
		{LevelMaintenance, "maintenance"},
		{Level(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestDefaultPoliciesValid(t *testing.T) {
	if err := DefaultPolicies().Validate(); err != nil {
		t.Fatalf("DefaultPolicies().Validate() = %v, want nil", err)
	}
}

func TestDefaultPoliciesThresholds(t *testing.T) {
	p := DefaultPolicies()
	tests := []struct {
		level Level
		want  float64
	}{
		{LevelNormal, 0.8},
		{LevelLimited, 0.6},
		{LevelEssential, 0.4},
		{LevelEmergency, 0.2},
		{LevelMaintenance, 0.0},
	}
	for _, tt := range tests {
		if got := p[tt.level].MinHealthScore; got != tt.want {
			t.Errorf("%s MinHealthScore = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDefaultPoliciesDisabledSetsGrow(t *testing.T) {
	p := DefaultPolicies()
	prev := -1
	for _, level := range []Level{LevelNormal, LevelLimited, LevelEssential, LevelEmergency, LevelMaintenance} {
		n := len(p[level].DisabledFeatures)
		if n < prev {
			t.Errorf("%s disables %d features, fewer than the previous level's %d", level, n, prev)
		}
		prev = n
	}
	if got := len(p[LevelMaintenance].DisabledFeatures); got != len(AllFeatures()) {
		t.Errorf("maintenance disables %d features, want all %d", got, len(AllFeatures()))
	}
}

func TestPoliciesValidateRejectsNonDecreasingThresholds(t *testing.T) {
	p := DefaultPolicies()
	bad := p[LevelLimited]
	bad.MinHealthScore = 0.8
	p[LevelLimited] = bad

	err := p.Validate()
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("Validate() = %v, want ErrInvalidPolicy", err)
	}
}

func TestPoliciesValidateRejectsShrinkingMultiplier(t *testing.T) {
	p := DefaultPolicies()
	bad := p[LevelEmergency]
	bad.TimeoutMultiplier = 0.5
	p[LevelEmergency] = bad

	if err := p.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("Validate() = %v, want ErrInvalidPolicy", err)
	}
}

func TestPoliciesValidateRejectsMissingLevel(t *testing.T) {
	p := DefaultPolicies()
	delete(p, LevelEssential)

	if err := p.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("Validate() = %v, want ErrInvalidPolicy", err)
	}
}

func TestDefaultPoliciesCacheTTLs(t *testing.T) {
	p := DefaultPolicies()
	if got, want := p[LevelNormal].CacheTTL, 60*time.Second; got != want {
		t.Errorf("normal CacheTTL = %v, want %v", got, want)
	}
	if got, want := p[LevelMaintenance].CacheTTL, 30*time.Minute; got != want {
		t.Errorf("maintenance CacheTTL = %v, want %v", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{LevelNormal, LevelLimited, LevelEssential, LevelEmergency, LevelMaintenance} {
		got, err := ParseLevel(level.String())
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", level, err)
		}
		if got != level {
			t.Errorf("ParseLevel(%q) = %s", level, got)
		}
	}
	if _, err := ParseLevel("turbo"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("ParseLevel(turbo) error = %v, want ErrInvalidPolicy", err)
	}
}

func TestParseFeature(t *testing.T) {
	for _, feature := range AllFeatures() {
		got, err := ParseFeature(string(feature))
		if err != nil {
			t.Errorf("ParseFeature(%q) error: %v", feature, err)
		}
		if got != feature {
			t.Errorf("ParseFeature(%q) = %s", feature, got)
		}
	}
	if _, err := ParseFeature("warp_drive"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("ParseFeature(warp_drive) error = %v, want ErrInvalidPolicy", err)
	}
}
