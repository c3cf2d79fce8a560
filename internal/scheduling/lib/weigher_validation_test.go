// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
	"log/slog"
	"math"
	"testing"
)

func TestWeigherValidator_Run(t *testing.T) {
	request := mockPipelineRequest{
		Subjects: []string{"host1", "host2", "host2"},
		Weights:  map[string]float64{"host1": 0, "host2": 0},
	}
	tests := []struct {
		name        string
		result      *StepResult
		expectError bool
	}{
		{
			name:   "all weighed",
			result: &StepResult{Activations: map[string]float64{"host1": 1, "host2": 2}},
		},
		{
			name: "one failed",
			result: &StepResult{
				Activations: map[string]float64{"host1": 1},
				Errors:      map[string]error{"host2": errors.New("no data")},
			},
		},
		{
			name:        "subject missing",
			result:      &StepResult{Activations: map[string]float64{"host1": 1}},
			expectError: true,
		},
		{
			name: "subject weighed and failed",
			result: &StepResult{
				Activations: map[string]float64{"host1": 1, "host2": 2},
				Errors:      map[string]error{"host2": errors.New("no data")},
			},
			expectError: true,
		},
		{
			name:        "unknown subject",
			result:      &StepResult{Activations: map[string]float64{"host1": 1, "host2": 2, "host3": 3}},
			expectError: true,
		},
		{
			name:        "nan weight",
			result:      &StepResult{Activations: map[string]float64{"host1": math.NaN(), "host2": 2}},
			expectError: true,
		},
		{
			name: "infinite multiplier",
			result: &StepResult{
				Activations: map[string]float64{"host1": 1, "host2": 2},
				Multipliers: map[string]float64{"host1": math.Inf(-1)},
			},
			expectError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := validateWeigher[mockPipelineRequest](&mockStep{
				RunFunc: func(traceLog *slog.Logger, request mockPipelineRequest) (*StepResult, error) {
					return tt.result, nil
				},
			})
			_, err := validator.Run(slog.Default(), request)
			if tt.expectError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestWeigherValidator_RunError(t *testing.T) {
	validator := validateWeigher[mockPipelineRequest](&mockStep{
		RunFunc: func(traceLog *slog.Logger, request mockPipelineRequest) (*StepResult, error) {
			return nil, ErrStepSkipped
		},
	})
	_, err := validator.Run(slog.Default(), mockPipelineRequest{Subjects: []string{"host1"}})
	if !errors.Is(err, ErrStepSkipped) {
		t.Fatalf("expected step skipped error, got %v", err)
	}
}
