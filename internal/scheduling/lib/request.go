// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import "log/slog"

type PipelineRequest interface {
	// Get the subjects (e.g. compute hosts) that went in the pipeline,
	// in the order in which they were given.
	GetSubjects() []string
	// Get the incoming weights for the subjects.
	GetWeights() map[string]float64
	// Get logging args to be used in the step's trace log.
	// Usually, this will be the request context including the request ID.
	GetTraceLogArgs() []slog.Attr
}
