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

// Feature is a named platform capability that can be disabled as a side
// effect of a degradation level transition.
//
// The set of features is static, defined at startup; membership in the
// disabled set is mutated only by level transitions. This is distinct
// from A/B-rollout feature flags, which are statistical and live in a
// separate subsystem.
type Feature string

const (
	// FeatureSwarmIntelligence is multi-agent swarm coordination.
	FeatureSwarmIntelligence Feature = "swarm_intelligence"

	// FeatureMemoryIntegration is cross-session memory retrieval.
	FeatureMemoryIntegration Feature = "memory_integration"

	// FeatureAdvancedAnalytics is heavyweight analytics pipelines.
	FeatureAdvancedAnalytics Feature = "advanced_analytics"

	// FeatureRealTimeStreaming is live response streaming.
	FeatureRealTimeStreaming Feature = "real_time_streaming"

	// FeatureExternalIntegrations is third-party SaaS calls.
	FeatureExternalIntegrations Feature = "external_integrations"

	// FeatureCollaboration is multi-user collaboration surfaces.
	FeatureCollaboration Feature = "collaboration_features"

	// FeatureAIOptimization is background model/prompt optimization.
	FeatureAIOptimization Feature = "ai_optimization"

	// FeatureWebhookNotifications is outbound webhook delivery.
	FeatureWebhookNotifications Feature = "webhook_notifications"
)

// AllFeatures returns every known feature.
func AllFeatures() []Feature {
	return []Feature{
		FeatureSwarmIntelligence,
		FeatureMemoryIntegration,
		FeatureAdvancedAnalytics,
		FeatureRealTimeStreaming,
		FeatureExternalIntegrations,
		FeatureCollaboration,
		FeatureAIOptimization,
		FeatureWebhookNotifications,
	}
}
