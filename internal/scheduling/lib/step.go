// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/majewsky/gg/option"
)

// Steps can be chained together to form a scheduling pipeline.
type Step[RequestType PipelineRequest] interface {
	// Configure the step with its raw options.
	Init(opts conf.RawOpts) error
	// Run this step in the scheduling pipeline.
	//
	// The request is immutable and modifications are stored in the result.
	// This allows steps to be run in parallel without passing mutable
	// state around.
	//
	// Every subject of the request must either be weighed (an entry in the
	// activations) or fail (an entry in the errors), but not both.
	//
	// A traceLog is provided that contains the global request id and should
	// be used to log the step's execution.
	Run(traceLog *slog.Logger, request RequestType) (*StepResult, error)
}

type StepResult struct {
	// Raw weights calculated by this step, before normalization.
	Activations map[string]float64
	// Multipliers applied to the normalized weights, by subject.
	// Subjects without a multiplier use 1.0.
	Multipliers map[string]float64
	// Subjects that could not be weighed, with the reason why.
	Errors map[string]error
	// Lower and upper bounds used to normalize the activations.
	// If unset, the minimum or maximum of the activations is used.
	MinWeight option.Option[float64]
	MaxWeight option.Option[float64]

	// Step statistics like:
	//
	//	{
	//	  "vcpus free": {
	//	     "unit": "vcpus",
	//	     "subjects": { "host 1": 10, "host 2": 12 }
	//	   }
	//	}
	//
	// These statistics are used to display the step's effect on the subjects.
	Statistics map[string]StepStatistics
}

type StepStatistics struct {
	// The unit of the statistic.
	Unit string
	// The subjects and their values.
	Subjects map[string]float64
}

// Get the multiplier of the subject, defaulting to 1.0.
func (r *StepResult) MultiplierOf(subject string) float64 {
	if m, ok := r.Multipliers[subject]; ok {
		return m
	}
	return 1.0
}
