// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AleutianAI/aleutian-resilience/services/resilience/telemetry"
)

// noSleep replaces the backoff wait so tests run instantly.
func noSleep(s *Strategy) *Strategy {
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
	return s
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.BaseDelay != 1*time.Second {
		t.Errorf("BaseDelay = %v, want 1s", config.BaseDelay)
	}
	if config.MaxDelay != 60*time.Second {
		t.Errorf("MaxDelay = %v, want 60s", config.MaxDelay)
	}
	if config.ExponentialBase != 2.0 {
		t.Errorf("ExponentialBase = %f, want 2.0", config.ExponentialBase)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero retries", Config{MaxRetries: 0, BaseDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 2}, true},
		{"zero base delay", Config{MaxRetries: 3, BaseDelay: 0, MaxDelay: time.Minute, ExponentialBase: 2}, true},
		{"max below base", Config{MaxRetries: 3, BaseDelay: time.Minute, MaxDelay: time.Second, ExponentialBase: 2}, true},
		{"sub-unit base", Config{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStrategy_SucceedsFirstAttempt(t *testing.T) {
	s := noSleep(New(DefaultConfig()))

	calls := 0
	res, err := s.Do(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if res != "ok" {
		t.Errorf("result = %v, want ok", res)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStrategy_RecoversAfterTransientFailures(t *testing.T) {
	s := noSleep(New(Config{MaxRetries: 5}))

	calls := 0
	res, err := s.Do(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls <= 2 {
			return nil, errors.New("transient")
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if res != 42 {
		t.Errorf("result = %v, want 42", res)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (fail, fail, succeed)", calls)
	}
}

func TestStrategy_ExhaustsAndReturnsLastError(t *testing.T) {
	s := noSleep(New(Config{MaxRetries: 3}))

	lastErr := errors.New("attempt 3 failed")
	calls := 0
	result, _, err := s.DoWithResult(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls == 3 {
			return nil, lastErr
		}
		return nil, errors.New("earlier failure")
	})

	if calls != 3 {
		t.Errorf("calls = %d, want exactly MaxRetries (3)", calls)
	}
	// The last attempt's error must surface verbatim, not wrapped.
	if err != lastErr {
		t.Errorf("err = %v, want the final attempt's error", err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if result.LastError != lastErr {
		t.Errorf("LastError = %v, want the final attempt's error", result.LastError)
	}
}

func TestStrategy_ContextCancelledBetweenAttempts(t *testing.T) {
	s := New(Config{MaxRetries: 3, BaseDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := s.Do(ctx, func(ctx context.Context) (any, error) {
		calls++
		cancel()
		return nil, errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancel)", calls)
	}
}

func TestStrategy_BackoffGrowthAndCap(t *testing.T) {
	s := New(Config{
		MaxRetries:      10,
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        400 * time.Millisecond,
		ExponentialBase: 2.0,
	})

	// Jitter adds at most 10%; check each wait lands in [delay, delay*1.1).
	wants := []time.Duration{
		100 * time.Millisecond, // attempt 0
		200 * time.Millisecond, // attempt 1
		400 * time.Millisecond, // attempt 2 (hits cap)
		400 * time.Millisecond, // attempt 3 (capped)
	}
	for attempt, want := range wants {
		got := s.backoffFor(attempt)
		if got < want || got >= time.Duration(float64(want)*1.1)+time.Nanosecond {
			t.Errorf("backoffFor(%d) = %v, want in [%v, %v)", attempt, got, want, time.Duration(float64(want)*1.1))
		}
	}
}

func TestStrategy_AttemptsAreSequential(t *testing.T) {
	s := noSleep(New(Config{MaxRetries: 4}))

	inFlight := 0
	_, _ = s.Do(context.Background(), func(ctx context.Context) (any, error) {
		inFlight++
		if inFlight != 1 {
			t.Fatalf("concurrent attempts observed: %d", inFlight)
		}
		inFlight--
		return nil, errors.New("fail")
	})
}

func TestStrategy_RecordsAttemptMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Name = "probe"
	cfg.Metrics = metrics
	s := noSleep(New(cfg))

	_, _ = s.Do(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("always down")
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	total := int64(0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "resilience_retry_attempts_total" {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	if total != int64(cfg.MaxRetries) {
		t.Errorf("recorded %d attempts, want %d", total, cfg.MaxRetries)
	}
}
