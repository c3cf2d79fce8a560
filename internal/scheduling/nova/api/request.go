// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
	"github.com/google/uuid"
)

// Request passed through the scheduling pipeline.
type PipelineRequest struct {
	ExternalSchedulerRequest
	// Parsed scheduler hints of the request spec.
	Hints SchedulingHints
	// Snapshot of the core usage telemetry taken for this request.
	CoreUsages telemetry.CoreUsageReader
	// Id used to correlate the logs of this request.
	TraceID string
}

// Create a pipeline request, parsing the scheduler hints.
func NewPipelineRequest(request ExternalSchedulerRequest, usages telemetry.CoreUsageReader) (PipelineRequest, error) {
	hints, err := ParseSchedulingHints(request.Spec.Data.SchedulerHints)
	if err != nil {
		return PipelineRequest{}, err
	}
	traceID := ""
	if request.Context.GlobalRequestID != nil {
		traceID = *request.Context.GlobalRequestID
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return PipelineRequest{
		ExternalSchedulerRequest: request,
		Hints:                    hints,
		CoreUsages:               usages,
		TraceID:                  traceID,
	}, nil
}

// Conform to the lib.PipelineRequest interface.

func (r PipelineRequest) GetSubjects() []string {
	hosts := make([]string, len(r.Hosts))
	for i, host := range r.Hosts {
		hosts[i] = host.ComputeHost
	}
	return hosts
}
func (r PipelineRequest) GetWeights() map[string]float64 {
	return r.Weights
}
func (r PipelineRequest) GetTraceLogArgs() []slog.Attr {
	return []slog.Attr{
		slog.String("greq", r.TraceID),
		slog.String("req", r.Context.RequestID),
		slog.String("user", r.Context.UserID),
		slog.String("project", r.Context.ProjectID),
	}
}
