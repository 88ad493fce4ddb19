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
	"context"
	"errors"
	"testing"
)

func TestBuiltinFallbacksCoverKnownComponents(t *testing.T) {
	table := builtinFallbacks()
	for _, component := range []string{
		"orchestra_manager",
		"command_dispatcher",
		"memory_system",
		"swarm_intelligence",
		"external_service",
	} {
		if table[component] == nil {
			t.Errorf("no builtin fallback for %s", component)
		}
	}
	if len(table) != 5 {
		t.Errorf("builtin fallback table has %d entries, want 5", len(table))
	}
}

func TestFallbackSimpleRouting(t *testing.T) {
	result, err := fallbackSimpleRouting(context.Background(), "analytics-pool")
	if err != nil {
		t.Fatalf("fallbackSimpleRouting() error: %v", err)
	}
	routing := result.(RoutingResult)
	if routing.Target != "analytics-pool" {
		t.Errorf("Target = %q, want analytics-pool", routing.Target)
	}
	if !routing.Degraded {
		t.Error("routing result not marked degraded")
	}

	result, _ = fallbackSimpleRouting(context.Background())
	if got := result.(RoutingResult).Target; got != "default" {
		t.Errorf("Target with no args = %q, want default", got)
	}
}

func TestFallbackBasicCommands(t *testing.T) {
	tests := []struct {
		command string
		wantErr bool
	}{
		{"status", false},
		{"health", false},
		{"help", false},
		{"stop", false},
		{"deploy", true},
		{"analyze", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			result, err := fallbackBasicCommands(context.Background(), tt.command)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedCommand) {
					t.Fatalf("error = %v, want ErrUnsupportedCommand", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cmd := result.(CommandResult)
			if !cmd.Accepted || !cmd.Degraded {
				t.Errorf("result = %+v, want accepted and degraded", cmd)
			}
		})
	}
}

func TestFallbackEmptyMemory(t *testing.T) {
	result, err := fallbackEmptyMemory(context.Background(), "what happened yesterday")
	if err != nil {
		t.Fatalf("fallbackEmptyMemory() error: %v", err)
	}
	mem := result.(MemoryResult)
	if mem.Entries == nil || len(mem.Entries) != 0 {
		t.Errorf("Entries = %v, want empty non-nil slice", mem.Entries)
	}
	if mem.Query != "what happened yesterday" {
		t.Errorf("Query = %q, want the original query", mem.Query)
	}
}

func TestFallbackSingleAgent(t *testing.T) {
	result, err := fallbackSingleAgent(context.Background(), "summarize incident")
	if err != nil {
		t.Fatalf("fallbackSingleAgent() error: %v", err)
	}
	swarm := result.(SwarmResult)
	if swarm.Agents != 1 {
		t.Errorf("Agents = %d, want 1", swarm.Agents)
	}
	if !swarm.Degraded {
		t.Error("swarm result not marked degraded")
	}
}

func TestFallbackCachedResponse(t *testing.T) {
	result, err := fallbackCachedResponse(context.Background(), "weather:seattle")
	if err != nil {
		t.Fatalf("fallbackCachedResponse() error: %v", err)
	}
	cached := result.(CachedResult)
	if !cached.Stale || !cached.Degraded {
		t.Errorf("result = %+v, want stale and degraded", cached)
	}
	if cached.Key != "weather:seattle" {
		t.Errorf("Key = %q, want weather:seattle", cached.Key)
	}
}

func TestFallbacksIgnoreNonStringArgs(t *testing.T) {
	result, err := fallbackEmptyMemory(context.Background(), 42, "ignored")
	if err != nil {
		t.Fatalf("fallbackEmptyMemory() error: %v", err)
	}
	if got := result.(MemoryResult).Query; got != "" {
		t.Errorf("Query = %q, want empty for non-string leading arg", got)
	}
}
