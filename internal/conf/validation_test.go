// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"math"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }
	tests := []struct {
		name      string
		config    Config
		expectErr bool
	}{
		{
			name:   "empty config",
			config: Config{},
		},
		{
			name: "valid config",
			config: Config{
				KeystoneConfig:   KeystoneConfig{URL: "http://keystone:5000/v3"},
				APIConfig:        APIConfig{Port: 8080},
				MonitoringConfig: MonitoringConfig{Port: 2112},
				SchedulerConfig: SchedulerConfig{
					CPUWeightMultiplier: ptr(-1),
					Weighers:            []WeigherConfig{{Name: "cpu"}},
				},
			},
		},
		{
			name:      "keystone url without v3",
			config:    Config{KeystoneConfig: KeystoneConfig{URL: "http://keystone:5000"}},
			expectErr: true,
		},
		{
			name:      "keystone url with trailing slash",
			config:    Config{KeystoneConfig: KeystoneConfig{URL: "http://keystone:5000/v3/"}},
			expectErr: true,
		},
		{
			name:      "port out of range",
			config:    Config{APIConfig: APIConfig{Port: 70000}},
			expectErr: true,
		},
		{
			name: "shared port",
			config: Config{
				APIConfig:        APIConfig{Port: 8080},
				MonitoringConfig: MonitoringConfig{Port: 8080},
			},
			expectErr: true,
		},
		{
			name:      "negative sync interval",
			config:    Config{SyncConfig: SyncConfig{Aggregates: SyncAggregatesConfig{IntervalSeconds: -1}}},
			expectErr: true,
		},
		{
			name:      "nan multiplier",
			config:    Config{SchedulerConfig: SchedulerConfig{CPUWeightMultiplier: ptr(math.NaN())}},
			expectErr: true,
		},
		{
			name:      "weigher without name",
			config:    Config{SchedulerConfig: SchedulerConfig{Weighers: []WeigherConfig{{}}}},
			expectErr: true,
		},
		{
			name: "duplicate weigher",
			config: Config{SchedulerConfig: SchedulerConfig{
				Weighers: []WeigherConfig{{Name: "cpu"}, {Name: "cpu"}},
			}},
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestSyncDefaults(t *testing.T) {
	if got := (SyncCoreUsageConfig{}).GetTopic(); got != DefaultCoreUsageTopic {
		t.Errorf("expected default topic, got %s", got)
	}
	if got := (SyncAggregatesConfig{IntervalSeconds: 60}).GetIntervalSeconds(); got != 60 {
		t.Errorf("expected 60, got %d", got)
	}
}
