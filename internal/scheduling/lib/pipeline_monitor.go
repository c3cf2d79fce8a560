// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"github.com/cobaltcore-dev/cortex-harvest/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

// Collection of Prometheus metrics to monitor scheduler pipeline
type PipelineMonitor struct {
	// The pipeline name is used to differentiate between different pipelines.
	PipelineName string

	// A histogram to measure how long each step takes to run.
	stepRunTimer *prometheus.HistogramVec
	// A histogram to observe the raw weights calculated by each step.
	stepWeightObserver *prometheus.HistogramVec
	// A counter for subjects that a step could not weigh, by reason.
	stepSubjectErrorsCounter *prometheus.CounterVec
	// A histogram to measure how long the pipeline takes to run in total.
	pipelineRunTimer *prometheus.HistogramVec
	// A histogram to observe the number of subjects going into the scheduler pipeline.
	subjectNumberInObserver *prometheus.HistogramVec
	// Counter for the number of requests processed by the scheduler.
	requestCounter *prometheus.CounterVec
}

// Create a new scheduler monitor and register the necessary Prometheus metrics.
func NewPipelineMonitor(registry *monitoring.Registry) PipelineMonitor {
	stepRunTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cortex_scheduler_pipeline_step_run_duration_seconds",
		Help:    "Duration of scheduler pipeline step run",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline", "step"})
	stepWeightObserver := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cortex_scheduler_pipeline_step_weight",
		Help:    "Raw weights calculated by the scheduler pipeline step",
		Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
	}, []string{"pipeline", "step"})
	stepSubjectErrorsCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cortex_scheduler_pipeline_step_subject_errors_total",
		Help: "Number of subjects the scheduler pipeline step could not weigh",
	}, []string{"pipeline", "step", "reason"})
	pipelineRunTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cortex_scheduler_pipeline_run_duration_seconds",
		Help:    "Duration of scheduler pipeline run",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline"})
	subjectNumberInObserver := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cortex_scheduler_pipeline_subject_number_in",
		Help:    "Number of subjects going into the scheduler pipeline",
		Buckets: prometheus.ExponentialBucketsRange(1, 1000, 10),
	}, []string{"pipeline"})
	requestCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cortex_scheduler_pipeline_requests_total",
		Help: "Total number of requests processed by the scheduler.",
	}, []string{"pipeline"})
	registry.MustRegister(
		stepRunTimer,
		stepWeightObserver,
		stepSubjectErrorsCounter,
		pipelineRunTimer,
		subjectNumberInObserver,
		requestCounter,
	)
	return PipelineMonitor{
		stepRunTimer:             stepRunTimer,
		stepWeightObserver:       stepWeightObserver,
		stepSubjectErrorsCounter: stepSubjectErrorsCounter,
		pipelineRunTimer:         pipelineRunTimer,
		subjectNumberInObserver:  subjectNumberInObserver,
		requestCounter:           requestCounter,
	}
}

// Get a copied pipeline monitor with the name set, after binding the metrics.
func (m PipelineMonitor) SubPipeline(name string) PipelineMonitor {
	cp := m
	cp.PipelineName = name
	return cp
}

// Observe a scheduler pipeline request going in.
func (m *PipelineMonitor) observePipelineRequest(request PipelineRequest) {
	if m.subjectNumberInObserver != nil {
		m.subjectNumberInObserver.
			WithLabelValues(m.PipelineName).
			Observe(float64(len(request.GetSubjects())))
	}
	if m.requestCounter != nil {
		m.requestCounter.
			WithLabelValues(m.PipelineName).
			Inc()
	}
}
