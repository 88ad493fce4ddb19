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
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/aleutian-resilience/pkg/logging"
)

func failing(name string, calls *[]string) Handler {
	return func(ctx context.Context, args ...any) (any, error) {
		*calls = append(*calls, name)
		return nil, errors.New(name + " failed")
	}
}

func succeeding(name string, calls *[]string) Handler {
	return func(ctx context.Context, args ...any) (any, error) {
		*calls = append(*calls, name)
		return name + " result", nil
	}
}

func TestRegistry_NotRegistered(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	_, err := reg.Execute(context.Background(), "missing")
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("err = %v, want ErrNotRegistered", err)
	}
}

func TestRegistry_AscendingPriorityOrder(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	var calls []string
	// Registered out of order; execution must follow ascending priority.
	reg.Register("x", failing("h1-p50", &calls), 50)
	reg.Register("x", succeeding("h2-p10", &calls), 10)
	reg.Register("x", failing("h3-p100", &calls), 100)

	result, err := reg.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "h2-p10 result" {
		t.Errorf("result = %v, want h2-p10 result", result)
	}
	// Only handlers up to and including the first success run. h2 has the
	// lowest priority, so it runs first and short-circuits the chain.
	if len(calls) != 1 || calls[0] != "h2-p10" {
		t.Errorf("calls = %v, want [h2-p10]", calls)
	}
}

func TestRegistry_StopsAtFirstSuccess(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	var calls []string
	reg.Register("x", failing("first", &calls), 10)
	reg.Register("x", succeeding("second", &calls), 20)
	reg.Register("x", succeeding("third", &calls), 30)

	result, err := reg.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "second result" {
		t.Errorf("result = %v, want second result", result)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v, want [first second]", calls)
	}
}

func TestRegistry_TiesKeepInsertionOrder(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	var calls []string
	reg.Register("x", failing("a", &calls), DefaultPriority)
	reg.Register("x", failing("b", &calls), DefaultPriority)
	reg.Register("x", failing("c", &calls), DefaultPriority)

	_, _ = reg.Execute(context.Background(), "x")
	if len(calls) != 3 || calls[0] != "a" || calls[1] != "b" || calls[2] != "c" {
		t.Errorf("calls = %v, want [a b c]", calls)
	}
}

func TestRegistry_ChainExhausted(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	var calls []string
	lastErr := errors.New("final handler error")
	reg.Register("x", failing("a", &calls), 10)
	reg.Register("x", func(ctx context.Context, args ...any) (any, error) {
		calls = append(calls, "b")
		return nil, lastErr
	}, 20)

	_, err := reg.Execute(context.Background(), "x")

	var exhausted *ChainExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *ChainExhaustedError", err)
	}
	if exhausted.Component != "x" {
		t.Errorf("Component = %s, want x", exhausted.Component)
	}
	if exhausted.Handlers != 2 {
		t.Errorf("Handlers = %d, want 2", exhausted.Handlers)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("exhaustion error does not wrap the last handler failure")
	}
}

func TestRegistry_ForwardsArguments(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	reg.Register("x", func(ctx context.Context, args ...any) (any, error) {
		if len(args) != 2 || args[0] != "query" || args[1] != 5 {
			t.Errorf("args = %v, want [query 5]", args)
		}
		return "ok", nil
	}, 10)

	if _, err := reg.Execute(context.Background(), "x", "query", 5); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestRegistry_Len(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	if reg.Len("x") != 0 {
		t.Errorf("Len = %d, want 0", reg.Len("x"))
	}
	reg.Register("x", func(ctx context.Context, args ...any) (any, error) { return nil, nil }, 10)
	if reg.Len("x") != 1 {
		t.Errorf("Len = %d, want 1", reg.Len("x"))
	}
}
