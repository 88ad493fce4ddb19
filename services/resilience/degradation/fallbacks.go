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
	"fmt"
)

// builtinFallback is a degraded substitute for one component's primary
// operation. Results are reduced-fidelity stand-ins, not replays.
type builtinFallback func(ctx context.Context, args ...any) (any, error)

// Fallback result shapes. Every degraded result carries Degraded: true
// so callers can distinguish stand-ins from primary output.

// RoutingResult is the simplified routing decision served when the
// orchestra manager's full scheduler is unavailable.
type RoutingResult struct {
	Target   string `json:"target"`
	Strategy string `json:"strategy"`
	Degraded bool   `json:"degraded"`
}

// CommandResult is the outcome of a basic-mode command dispatch.
type CommandResult struct {
	Command  string `json:"command"`
	Accepted bool   `json:"accepted"`
	Degraded bool   `json:"degraded"`
}

// MemoryResult is the empty recall served when the memory system is
// down.
type MemoryResult struct {
	Query    string `json:"query,omitempty"`
	Entries  []any  `json:"entries"`
	Degraded bool   `json:"degraded"`
}

// SwarmResult is the single-agent answer served when coordinated swarm
// execution is unavailable.
type SwarmResult struct {
	Task     string `json:"task,omitempty"`
	Agents   int    `json:"agents"`
	Degraded bool   `json:"degraded"`
}

// CachedResult is the possibly-stale response served when an external
// service is unreachable.
type CachedResult struct {
	Key      string `json:"key,omitempty"`
	Stale    bool   `json:"stale"`
	Degraded bool   `json:"degraded"`
}

// basicCommands is the allowlist honored in basic dispatch mode.
// Anything else fails with ErrUnsupportedCommand.
var basicCommands = map[string]bool{
	"status": true,
	"health": true,
	"help":   true,
	"stop":   true,
}

// builtinFallbacks returns the per-component fallback table. Keys are
// exact component names; there is no pattern matching.
func builtinFallbacks() map[string]builtinFallback {
	return map[string]builtinFallback{
		"orchestra_manager":  fallbackSimpleRouting,
		"command_dispatcher": fallbackBasicCommands,
		"memory_system":      fallbackEmptyMemory,
		"swarm_intelligence": fallbackSingleAgent,
		"external_service":   fallbackCachedResponse,
	}
}

// fallbackSimpleRouting routes every request to the default target
// instead of consulting the scheduler.
func fallbackSimpleRouting(_ context.Context, args ...any) (any, error) {
	target := "default"
	if s := firstString(args); s != "" {
		target = s
	}
	return RoutingResult{Target: target, Strategy: "round_robin", Degraded: true}, nil
}

// fallbackBasicCommands accepts only allowlisted commands.
func fallbackBasicCommands(_ context.Context, args ...any) (any, error) {
	cmd := firstString(args)
	if cmd == "" {
		return nil, fmt.Errorf("%w: no command supplied", ErrUnsupportedCommand)
	}
	if !basicCommands[cmd] {
		return nil, fmt.Errorf("%w: %q unavailable in basic mode", ErrUnsupportedCommand, cmd)
	}
	return CommandResult{Command: cmd, Accepted: true, Degraded: true}, nil
}

// fallbackEmptyMemory answers recall queries with an empty, valid result
// so callers proceed without historical context.
func fallbackEmptyMemory(_ context.Context, args ...any) (any, error) {
	return MemoryResult{Query: firstString(args), Entries: []any{}, Degraded: true}, nil
}

// fallbackSingleAgent collapses a swarm task to one agent.
func fallbackSingleAgent(_ context.Context, args ...any) (any, error) {
	return SwarmResult{Task: firstString(args), Agents: 1, Degraded: true}, nil
}

// fallbackCachedResponse serves whatever was last cached for the key,
// marked stale. With no cache wired in this is a marker result; callers
// that hold a cache consult it on seeing Stale.
func fallbackCachedResponse(_ context.Context, args ...any) (any, error) {
	return CachedResult{Key: firstString(args), Stale: true, Degraded: true}, nil
}

// firstString extracts the leading string argument, if any. Fallbacks
// take the same variadic args as the primary but only consume the parts
// they understand.
func firstString(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return s
}
