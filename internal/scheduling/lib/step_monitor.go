// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
)

// Wraps a scheduler step to monitor its execution.
type StepMonitor[RequestType PipelineRequest] struct {
	// The step to monitor.
	step Step[RequestType]
	// The pipeline name to which this step belongs.
	pipelineName string
	// The name of this step.
	stepName string

	// A timer to measure how long the step takes to run.
	runTimer prometheus.Observer
	// A metric observing the raw weights of the step.
	weightObserver prometheus.Observer
	// A metric counting the subjects the step failed to weigh.
	subjectErrorsCounter *prometheus.CounterVec
}

// Wrap the given step with a monitor.
func monitorStep[RequestType PipelineRequest](
	step Step[RequestType],
	stepName string,
	m PipelineMonitor,
) *StepMonitor[RequestType] {

	var runTimer prometheus.Observer
	if m.stepRunTimer != nil {
		runTimer = m.stepRunTimer.WithLabelValues(m.PipelineName, stepName)
	}
	var weightObserver prometheus.Observer
	if m.stepWeightObserver != nil {
		weightObserver = m.stepWeightObserver.WithLabelValues(m.PipelineName, stepName)
	}
	return &StepMonitor[RequestType]{
		step:                 step,
		pipelineName:         m.PipelineName,
		stepName:             stepName,
		runTimer:             runTimer,
		weightObserver:       weightObserver,
		subjectErrorsCounter: m.stepSubjectErrorsCounter,
	}
}

// Initialize the wrapped step.
func (s *StepMonitor[RequestType]) Init(opts conf.RawOpts) error {
	return s.step.Init(opts)
}

// Run the step and observe its execution.
func (s *StepMonitor[RequestType]) Run(traceLog *slog.Logger, request RequestType) (*StepResult, error) {
	if s.runTimer != nil {
		timer := prometheus.NewTimer(s.runTimer)
		defer timer.ObserveDuration()
	}

	result, err := s.step.Run(traceLog, request)
	if err != nil {
		return nil, err
	}
	traceLog.Info(
		"scheduler: finished step", "name", s.stepName,
		"inWeights", request.GetWeights(), "outWeights", result.Activations,
	)
	if s.weightObserver != nil {
		for _, w := range result.Activations {
			s.weightObserver.Observe(w)
		}
	}
	for subject, subjectErr := range result.Errors {
		traceLog.Warn(
			"scheduler: step could not weigh subject",
			"name", s.stepName, "subject", subject, "error", subjectErr,
		)
		if s.subjectErrorsCounter != nil {
			s.subjectErrorsCounter.
				WithLabelValues(s.pipelineName, s.stepName, errorReason(subjectErr)).
				Inc()
		}
	}

	// Based on the provided step statistics, log something like this:
	// vcpus free: [ host1: 10 vcpus, host2: 12 vcpus ]
	for statName, statData := range result.Statistics {
		if statData.Subjects == nil {
			continue
		}
		subjects := make([]string, 0, len(statData.Subjects))
		for subject := range statData.Subjects {
			subjects = append(subjects, subject)
		}
		slices.Sort(subjects)
		values := make([]string, 0, len(subjects))
		for _, subject := range subjects {
			values = append(values, fmt.Sprintf("%s: %.4g %s", subject, statData.Subjects[subject], statData.Unit))
		}
		traceLog.Info(
			"scheduler: statistics for step "+s.stepName,
			"stat", statName, "values", "[ "+strings.Join(values, ", ")+" ]",
		)
	}
	return result, nil
}
