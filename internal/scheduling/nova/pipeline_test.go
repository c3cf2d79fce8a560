// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/api"
)

func TestNewPipeline(t *testing.T) {
	tests := []struct {
		name        string
		config      conf.SchedulerConfig
		expectError bool
	}{
		{
			name:   "default weighers",
			config: conf.SchedulerConfig{},
		},
		{
			name: "cpu weigher with options",
			config: conf.SchedulerConfig{Weighers: []conf.WeigherConfig{
				{Name: "cpu", Options: conf.NewRawOpts(`{"multiplier": -1}`)},
			}},
		},
		{
			name: "unsupported weigher",
			config: conf.SchedulerConfig{Weighers: []conf.WeigherConfig{
				{Name: "ram"},
			}},
			expectError: true,
		},
		{
			name: "unknown option",
			config: conf.SchedulerConfig{Weighers: []conf.WeigherConfig{
				{Name: "cpu", Options: conf.NewRawOpts(`{"multiplyer": -1}`)},
			}},
			expectError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(tt.config, lib.PipelineMonitor{})
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p == nil {
				t.Fatal("expected pipeline, got nil")
			}
		})
	}
}

func TestNewPipeline_SchedulerMultiplier(t *testing.T) {
	multiplier := -1.0
	p, err := NewPipeline(conf.SchedulerConfig{CPUWeightMultiplier: &multiplier}, lib.PipelineMonitor{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	request, err := api.NewPipelineRequest(api.ExternalSchedulerRequest{
		Hosts: []api.HostState{
			{ComputeHost: "host1", VCPUsTotal: 8, CPUAllocationRatio: 1},
			{ComputeHost: "host2", VCPUsTotal: 8, CPUAllocationRatio: 1, VCPUsUsed: 6},
		},
		Weights: map[string]float64{"host1": 0, "host2": 0},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	decision, err := p.Run(request)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// A negative multiplier stacks vms on the fuller host.
	if decision.OrderedSubjects[0] != "host2" {
		t.Errorf("expected host2 first, got %v", decision.OrderedSubjects)
	}
	if decision.OutWeights["host1"] != -1 {
		t.Errorf("expected weight -1 for host1, got %f", decision.OutWeights["host1"])
	}
}
