// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the resilience service configuration from YAML.
//
// A compiled-in default configuration ships with the binary; an explicit
// path overrides it wholesale. Loading validates eagerly so a bad file
// fails at startup, not mid-monitoring.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/aleutian-resilience/pkg/validation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/degradation"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/health"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/retry"
	"github.com/AleutianAI/aleutian-resilience/services/resilience/timeout"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServiceConfig describes one HTTP health probe target.
type ServiceConfig struct {
	Name    string            `yaml:"name" validate:"required"`
	URL     string            `yaml:"url" validate:"required,url"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// MonitorConfig controls the background evaluation loop.
type MonitorConfig struct {
	Interval Duration `yaml:"interval"`
}

// HealthConfig holds probe defaults and the service roster.
type HealthConfig struct {
	CheckTimeout Duration        `yaml:"check_timeout"`
	Services     []ServiceConfig `yaml:"services" validate:"required,min=1,dive"`
}

// RetryConfig mirrors retry.Config in YAML form.
type RetryConfig struct {
	MaxRetries      int      `yaml:"max_retries" validate:"min=0,max=20"`
	BaseDelay       Duration `yaml:"base_delay"`
	MaxDelay        Duration `yaml:"max_delay"`
	ExponentialBase float64  `yaml:"exponential_base" validate:"required,gt=1"`
}

// TimeoutConfig mirrors timeout.Config in YAML form.
type TimeoutConfig struct {
	BaseTimeout    Duration `yaml:"base_timeout"`
	MaxHistorySize int      `yaml:"max_history_size" validate:"required,min=10"`
}

// CircuitConfig holds per-target circuit breaker settings.
type CircuitConfig struct {
	FailureThreshold int      `yaml:"failure_threshold" validate:"required,min=1"`
	SuccessThreshold int      `yaml:"success_threshold" validate:"required,min=1"`
	OpenDuration     Duration `yaml:"open_duration"`
}

// LevelOverride adjusts one degradation level's policy. Nil fields keep
// the built-in default.
type LevelOverride struct {
	MinHealthScore    *float64  `yaml:"min_health_score,omitempty"`
	TimeoutMultiplier *float64  `yaml:"timeout_multiplier,omitempty"`
	CacheTTL          *Duration `yaml:"cache_ttl,omitempty"`
	DisabledFeatures  *[]string `yaml:"disabled_features,omitempty"`
}

// DegradationConfig holds per-level policy overrides keyed by level name
// (normal, limited, essential, emergency, maintenance).
type DegradationConfig struct {
	Levels map[string]LevelOverride `yaml:"levels,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// Config is the full resilience service configuration.
type Config struct {
	Monitor     MonitorConfig     `yaml:"monitor"`
	Health      HealthConfig      `yaml:"health"`
	Retry       RetryConfig       `yaml:"retry"`
	Timeout     TimeoutConfig     `yaml:"timeout"`
	Circuit     CircuitConfig     `yaml:"circuit"`
	Degradation DegradationConfig `yaml:"degradation,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads configuration from path, or the compiled-in defaults when
// path is empty.
//
// Outputs:
//   - *Config: Validated configuration.
//   - error: Read, parse, or validation failure. Wraps ErrInvalidConfig
//     for validation problems.
func Load(path string) (*Config, error) {
	data := defaultConfig
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration. Struct tags cover the scalar
// fields; durations and cross-field constraints are checked here because
// the YAML duration wrapper is opaque to tag validation.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	durations := []struct {
		name  string
		value Duration
		min   time.Duration
	}{
		{"monitor.interval", c.Monitor.Interval, time.Second},
		{"health.check_timeout", c.Health.CheckTimeout, 100 * time.Millisecond},
		{"retry.base_delay", c.Retry.BaseDelay, time.Millisecond},
		{"retry.max_delay", c.Retry.MaxDelay, time.Millisecond},
		{"timeout.base_timeout", c.Timeout.BaseTimeout, time.Millisecond},
		{"circuit.open_duration", c.Circuit.OpenDuration, time.Second},
	}
	for _, d := range durations {
		if d.value.Std() < d.min {
			return fmt.Errorf("%w: %s is %s, minimum %s",
				ErrInvalidConfig, d.name, d.value.Std(), d.min)
		}
	}

	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("%w: retry max_delay %s below base_delay %s",
			ErrInvalidConfig, c.Retry.MaxDelay.Std(), c.Retry.BaseDelay.Std())
	}

	seen := make(map[string]bool, len(c.Health.Services))
	for _, svc := range c.Health.Services {
		if err := validation.ValidateComponentName(svc.Name); err != nil {
			return fmt.Errorf("%w: service %q: %v", ErrInvalidConfig, svc.Name, err)
		}
		if seen[svc.Name] {
			return fmt.Errorf("%w: duplicate service name %q", ErrInvalidConfig, svc.Name)
		}
		seen[svc.Name] = true
	}

	// A bad level table must fail at load, not when the manager starts.
	if _, err := c.DegradationPolicies(); err != nil {
		return err
	}
	return nil
}

// DegradationPolicies builds the level table: built-in defaults with the
// configured per-level overrides applied, re-validated as a whole.
func (c *Config) DegradationPolicies() (degradation.Policies, error) {
	policies := degradation.DefaultPolicies()

	for name, override := range c.Degradation.Levels {
		level, err := degradation.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}

		policy := policies[level]
		if override.MinHealthScore != nil {
			policy.MinHealthScore = *override.MinHealthScore
		}
		if override.TimeoutMultiplier != nil {
			policy.TimeoutMultiplier = *override.TimeoutMultiplier
		}
		if override.CacheTTL != nil {
			policy.CacheTTL = override.CacheTTL.Std()
		}
		if override.DisabledFeatures != nil {
			features := make([]degradation.Feature, 0, len(*override.DisabledFeatures))
			for _, raw := range *override.DisabledFeatures {
				feature, err := degradation.ParseFeature(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: level %s: %v", ErrInvalidConfig, name, err)
				}
				features = append(features, feature)
			}
			policy.DisabledFeatures = features
		}
		policies[level] = policy
	}

	if err := policies.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return policies, nil
}

// HealthChecks converts the service roster into probe definitions,
// applying the shared check timeout where a service omits its own.
func (c *Config) HealthChecks() []health.ServiceCheck {
	checks := make([]health.ServiceCheck, 0, len(c.Health.Services))
	for _, svc := range c.Health.Services {
		t := svc.Timeout.Std()
		if t <= 0 {
			t = c.Health.CheckTimeout.Std()
		}
		checks = append(checks, health.ServiceCheck{
			Name:    svc.Name,
			URL:     svc.URL,
			Timeout: t,
			Headers: svc.Headers,
		})
	}
	return checks
}

// RetryStrategy converts the retry section into a retry.Config.
func (c *Config) RetryStrategy() retry.Config {
	return retry.Config{
		MaxRetries:      c.Retry.MaxRetries,
		BaseDelay:       c.Retry.BaseDelay.Std(),
		MaxDelay:        c.Retry.MaxDelay.Std(),
		ExponentialBase: c.Retry.ExponentialBase,
	}
}

// TimeoutManager converts the timeout section into a timeout.Config.
func (c *Config) TimeoutManager() timeout.Config {
	return timeout.Config{
		BaseTimeout:    c.Timeout.BaseTimeout.Std(),
		MaxHistorySize: c.Timeout.MaxHistorySize,
	}
}
