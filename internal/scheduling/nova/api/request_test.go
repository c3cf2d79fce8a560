// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
)

func TestNewPipelineRequest(t *testing.T) {
	body := `{
		"spec": {
			"nova_object.name": "RequestSpec",
			"nova_object.data": {
				"project_id": "p1",
				"instance_uuid": "vm1",
				"scheduler_hints": {"type": ["evictable"]}
			}
		},
		"context": {"request_id": "req-1", "global_request_id": "greq-1", "user": "u1", "project_id": "p1"},
		"hosts": [
			{"host": "host1", "host_ip": "10.0.0.1", "vcpus_total": 10, "vcpus_used": 4, "cpu_allocation_ratio": 1.5},
			{"host": "host2", "host_ip": "10.0.0.2", "vcpus_total": 8, "vcpus_used": 8, "cpu_allocation_ratio": 1.0,
			 "aggregates": [{"name": "a", "metadata": {"cpu_weight_multiplier": "2.0"}}]}
		],
		"weights": {"host1": 1.0, "host2": 0.5}
	}`
	var request ExternalSchedulerRequest
	if err := json.Unmarshal([]byte(body), &request); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	usages := telemetry.NewSnapshot(nil)
	pr, err := NewPipelineRequest(request, usages)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v, ok := pr.Hints.First("type"); !ok || v != "evictable" {
		t.Errorf("expected evictable hint, got %v", pr.Hints)
	}
	subjects := pr.GetSubjects()
	if len(subjects) != 2 || subjects[0] != "host1" || subjects[1] != "host2" {
		t.Errorf("unexpected subjects %v", subjects)
	}
	if pr.GetWeights()["host2"] != 0.5 {
		t.Errorf("unexpected weights %v", pr.GetWeights())
	}
	if pr.Hosts[0].CPUAllocationRatio != 1.5 || pr.Hosts[0].HostIP != "10.0.0.1" {
		t.Errorf("unexpected host state %+v", pr.Hosts[0])
	}
	if pr.Hosts[1].Aggregates[0].Metadata["cpu_weight_multiplier"] != "2.0" {
		t.Errorf("unexpected aggregates %+v", pr.Hosts[1].Aggregates)
	}
	args := pr.GetTraceLogArgs()
	if args[0].Key != "greq" || args[0].Value.String() != "greq-1" {
		t.Errorf("expected greq-1 trace id, got %v", args[0])
	}
}

func TestNewPipelineRequest_GeneratesTraceID(t *testing.T) {
	pr, err := NewPipelineRequest(ExternalSchedulerRequest{}, telemetry.NewSnapshot(nil))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pr.TraceID == "" {
		t.Error("expected generated trace id")
	}
	if pr.Hints.Has("type") {
		t.Error("expected no hints")
	}
}

func TestNewPipelineRequest_InvalidHints(t *testing.T) {
	request := ExternalSchedulerRequest{}
	request.Spec.Data.SchedulerHints = map[string]any{"type": 42.0}
	if _, err := NewPipelineRequest(request, telemetry.NewSnapshot(nil)); err == nil {
		t.Fatal("expected error, got nil")
	}
}
