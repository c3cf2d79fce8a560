// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Default topic on which the telemetry manager publishes core usage.
const DefaultCoreUsageTopic = "cortex/telemetry/core-usage"

// Default interval between two aggregate syncs.
const DefaultAggregatesSyncIntervalSeconds = 300

// Check if the configuration is valid.
func (c *Config) Validate() error {
	// Check the keystone URL.
	if c.KeystoneConfig.URL != "" && !strings.Contains(c.KeystoneConfig.URL, "/v3") {
		return fmt.Errorf(
			"expected v3 Keystone URL, but got %s",
			c.KeystoneConfig.URL,
		)
	}
	// OpenStack urls should end without a slash.
	if strings.HasSuffix(c.KeystoneConfig.URL, "/") {
		return fmt.Errorf("openstack url %s should not end with a slash", c.KeystoneConfig.URL)
	}
	for name, port := range map[string]int{
		"api":        c.APIConfig.Port,
		"monitoring": c.MonitoringConfig.Port,
	} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s port: %d", name, port)
		}
	}
	if c.APIConfig.Port != 0 && c.APIConfig.Port == c.MonitoringConfig.Port {
		return errors.New("api and monitoring must not share the same port")
	}
	if c.SyncConfig.Aggregates.IntervalSeconds < 0 {
		return errors.New("aggregates sync interval must not be negative")
	}
	if m := c.SchedulerConfig.CPUWeightMultiplier; m != nil {
		if math.IsNaN(*m) || math.IsInf(*m, 0) {
			return errors.New("cpuWeightMultiplier must be a finite number")
		}
	}
	names := make(map[string]struct{}, len(c.SchedulerConfig.Weighers))
	for _, w := range c.SchedulerConfig.Weighers {
		if w.Name == "" {
			return errors.New("weigher without name configured")
		}
		if _, ok := names[w.Name]; ok {
			return fmt.Errorf("weigher %s configured twice", w.Name)
		}
		names[w.Name] = struct{}{}
	}
	return nil
}

// Get the core usage topic, falling back to the default.
func (c SyncCoreUsageConfig) GetTopic() string {
	if c.Topic == "" {
		return DefaultCoreUsageTopic
	}
	return c.Topic
}

// Get the aggregates sync interval in seconds, falling back to the default.
func (c SyncAggregatesConfig) GetIntervalSeconds() int {
	if c.IntervalSeconds == 0 {
		return DefaultAggregatesSyncIntervalSeconds
	}
	return c.IntervalSeconds
}
