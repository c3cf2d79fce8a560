// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
)

// Common base for all weighers that provides some functionality
// that would otherwise be duplicated across all weighers.
type BaseWeigher[RequestType PipelineRequest, Opts StepOpts] struct {
	// Options to pass via json to this weigher.
	conf.JsonOpts[Opts]
}

// Init the weigher with its options.
func (s *BaseWeigher[RequestType, Opts]) Init(opts conf.RawOpts) error {
	if err := s.Load(opts); err != nil {
		return err
	}
	return s.Options.Validate()
}

// Get an empty result sized for the subjects given in the request.
func (s *BaseWeigher[RequestType, Opts]) PrepareResult(request RequestType) *StepResult {
	n := len(request.GetSubjects())
	return &StepResult{
		Activations: make(map[string]float64, n),
		Multipliers: make(map[string]float64, n),
		Errors:      make(map[string]error),
		Statistics:  make(map[string]StepStatistics),
	}
}

// Get default statistics for the subjects given in the request.
func (s *BaseWeigher[RequestType, Opts]) PrepareStats(request RequestType, unit string) StepStatistics {
	return StepStatistics{
		Unit:     unit,
		Subjects: make(map[string]float64, len(request.GetSubjects())),
	}
}
