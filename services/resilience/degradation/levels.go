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
	"fmt"
	"time"
)

// Level represents a discrete operating mode, ordered from fully-featured
// to fully-disabled.
type Level int

const (
	// LevelNormal is full functionality.
	LevelNormal Level = iota

	// LevelLimited disables heavyweight features.
	LevelLimited

	// LevelEssential keeps core operations only.
	LevelEssential

	// LevelEmergency keeps the bare request path alive.
	LevelEmergency

	// LevelMaintenance disables every feature.
	LevelMaintenance
)

// String returns a human-readable level name.
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelLimited:
		return "limited"
	case LevelEssential:
		return "essential"
	case LevelEmergency:
		return "emergency"
	case LevelMaintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name to its Level. Names match String().
func ParseLevel(name string) (Level, error) {
	switch name {
	case "normal":
		return LevelNormal, nil
	case "limited":
		return LevelLimited, nil
	case "essential":
		return LevelEssential, nil
	case "emergency":
		return LevelEmergency, nil
	case "maintenance":
		return LevelMaintenance, nil
	}
	return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidPolicy, name)
}

// ParseFeature converts a feature name to its Feature.
func ParseFeature(name string) (Feature, error) {
	for _, f := range AllFeatures() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown feature %q", ErrInvalidPolicy, name)
}

// selectableLevels are scanned in order during evaluation; Maintenance is
// the fall-through when no threshold is met.
var selectableLevels = []Level{LevelNormal, LevelLimited, LevelEssential, LevelEmergency}

// LevelPolicy is the configuration owned by one degradation level.
type LevelPolicy struct {
	// MinHealthScore is the minimum aggregate health (0-1) required to
	// operate at this level. Strictly decreasing as levels degrade.
	MinHealthScore float64

	// DisabledFeatures are switched off while at this level.
	DisabledFeatures []Feature

	// TimeoutMultiplier scales operation timeouts (>= 1.0, increasing as
	// levels degrade).
	TimeoutMultiplier float64

	// CacheTTL is how long cached responses stay valid at this level
	// (increasing as levels degrade: stale data beats no data).
	CacheTTL time.Duration
}

// Policies maps each level to its configuration.
type Policies map[Level]LevelPolicy

// DefaultPolicies returns the standard level table.
func DefaultPolicies() Policies {
	return Policies{
		LevelNormal: {
			MinHealthScore:    0.8,
			DisabledFeatures:  nil,
			TimeoutMultiplier: 1.0,
			CacheTTL:          60 * time.Second,
		},
		LevelLimited: {
			MinHealthScore: 0.6,
			DisabledFeatures: []Feature{
				FeatureAdvancedAnalytics,
				FeatureRealTimeStreaming,
				FeatureWebhookNotifications,
			},
			TimeoutMultiplier: 1.5,
			CacheTTL:          2 * time.Minute,
		},
		LevelEssential: {
			MinHealthScore: 0.4,
			DisabledFeatures: []Feature{
				FeatureAdvancedAnalytics,
				FeatureRealTimeStreaming,
				FeatureWebhookNotifications,
				FeatureSwarmIntelligence,
				FeatureCollaboration,
				FeatureAIOptimization,
			},
			TimeoutMultiplier: 2.0,
			CacheTTL:          5 * time.Minute,
		},
		LevelEmergency: {
			MinHealthScore: 0.2,
			DisabledFeatures: []Feature{
				FeatureAdvancedAnalytics,
				FeatureRealTimeStreaming,
				FeatureWebhookNotifications,
				FeatureSwarmIntelligence,
				FeatureCollaboration,
				FeatureAIOptimization,
				FeatureExternalIntegrations,
			},
			TimeoutMultiplier: 3.0,
			CacheTTL:          10 * time.Minute,
		},
		LevelMaintenance: {
			MinHealthScore:    0.0,
			DisabledFeatures:  AllFeatures(),
			TimeoutMultiplier: 5.0,
			CacheTTL:          30 * time.Minute,
		},
	}
}

// Validate checks the structural invariants of a level table.
//
// Thresholds must be strictly decreasing from Normal through Maintenance,
// timeout multipliers must be >= 1.0 and nondecreasing, and Maintenance
// must disable every known feature.
func (p Policies) Validate() error {
	ordered := append(selectableLevels[:len(selectableLevels):len(selectableLevels)], LevelMaintenance)

	prevScore := 1.1
	prevMult := 0.0
	for _, level := range ordered {
		policy, ok := p[level]
		if !ok {
			return fmt.Errorf("%w: missing policy for level %s", ErrInvalidPolicy, level)
		}
		if policy.MinHealthScore >= prevScore {
			return fmt.Errorf("%w: thresholds must be strictly decreasing (level %s)", ErrInvalidPolicy, level)
		}
		if policy.TimeoutMultiplier < 1.0 {
			return fmt.Errorf("%w: timeout multiplier below 1.0 (level %s)", ErrInvalidPolicy, level)
		}
		if policy.TimeoutMultiplier < prevMult {
			return fmt.Errorf("%w: timeout multipliers must not decrease (level %s)", ErrInvalidPolicy, level)
		}
		prevScore = policy.MinHealthScore
		prevMult = policy.TimeoutMultiplier
	}

	disabled := make(map[Feature]bool, len(p[LevelMaintenance].DisabledFeatures))
	for _, f := range p[LevelMaintenance].DisabledFeatures {
		disabled[f] = true
	}
	for _, f := range AllFeatures() {
		if !disabled[f] {
			return fmt.Errorf("%w: maintenance must disable %s", ErrInvalidPolicy, f)
		}
	}

	return nil
}
