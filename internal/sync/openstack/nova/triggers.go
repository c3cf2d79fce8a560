// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

// Trigger executed when new aggregates are available.
const TriggerNovaAggregatesSynced = "triggers/sync/openstack/nova/types/aggregates"
