// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
)

type Decision struct {
	// The weights provided as input to the pipeline.
	InWeights map[string]float64
	// The output weights after adding the normalized, multiplied step weights.
	OutWeights map[string]float64
	// The subjects in order of preference, with the most preferred subject first.
	OrderedSubjects []string
	// Errors of subjects that some step could not weigh, by subject and step.
	SubjectErrors map[string]map[string]error
}

type Pipeline[RequestType PipelineRequest] interface {
	// Run the scheduling pipeline with the given request.
	Run(request RequestType) (Decision, error)
}

// Pipeline of weighers.
type pipeline[RequestType PipelineRequest] struct {
	// The order in which weighers are applied, by their step name.
	weighersOrder []string
	// The weighers by their name.
	weighers map[string]Step[RequestType]
	// Monitor to observe the pipeline.
	monitor PipelineMonitor
}

// Create a new pipeline with the weighers contained in the configuration.
func NewPipeline[RequestType PipelineRequest](
	name string,
	supportedWeighers map[string]func() Step[RequestType],
	confedWeighers []conf.WeigherConfig,
	monitor PipelineMonitor,
) (Pipeline[RequestType], error) {

	pipelineMonitor := monitor.SubPipeline(name)
	weighersByName := make(map[string]Step[RequestType], len(confedWeighers))
	weighersOrder := []string{}
	for _, weigherConfig := range confedWeighers {
		slog.Info("scheduler: configuring weigher", "name", weigherConfig.Name)
		makeWeigher, ok := supportedWeighers[weigherConfig.Name]
		if !ok {
			supported := slices.Sorted(maps.Keys(supportedWeighers))
			return nil, fmt.Errorf("unsupported weigher %q (supported: %v)", weigherConfig.Name, supported)
		}
		if _, ok := weighersByName[weigherConfig.Name]; ok {
			return nil, fmt.Errorf("weigher %q configured twice", weigherConfig.Name)
		}
		var weigher Step[RequestType] = makeWeigher()
		weigher = validateWeigher(weigher)
		weigher = monitorStep(weigher, weigherConfig.Name, pipelineMonitor)
		if err := weigher.Init(weigherConfig.Options); err != nil {
			return nil, fmt.Errorf("failed to initialize weigher %q: %w", weigherConfig.Name, err)
		}
		weighersByName[weigherConfig.Name] = weigher
		weighersOrder = append(weighersOrder, weigherConfig.Name)
		slog.Info("scheduler: added weigher", "name", weigherConfig.Name)
	}
	return &pipeline[RequestType]{
		weighersOrder: weighersOrder,
		weighers:      weighersByName,
		monitor:       pipelineMonitor,
	}, nil
}

// Execute weighers and collect their results by step name.
func (p *pipeline[RequestType]) runWeighers(
	log *slog.Logger,
	request RequestType,
) map[string]*StepResult {

	resultsByStep := map[string]*StepResult{}
	// Weighers can be run in parallel as they do not modify the request.
	var lock sync.Mutex
	var wg sync.WaitGroup
	for _, weigherName := range p.weighersOrder {
		weigher := p.weighers[weigherName]
		wg.Go(func() {
			stepLog := log.With("weigher", weigherName)
			stepLog.Info("scheduler: running weigher")
			result, err := weigher.Run(stepLog, request)
			if errors.Is(err, ErrStepSkipped) {
				stepLog.Info("scheduler: weigher skipped")
				return
			}
			if err != nil {
				stepLog.Error("scheduler: failed to run weigher", "error", err)
				return
			}
			stepLog.Info("scheduler: finished weigher")
			lock.Lock()
			defer lock.Unlock()
			resultsByStep[weigherName] = result
		})
	}
	wg.Wait()
	return resultsByStep
}

// Apply the step weights to the input weights.
//
// The raw weights of every step are normalized over the subjects the step
// could weigh, multiplied with the subject's multiplier and added to the
// incoming weight. Subjects a step failed to weigh keep their weight.
func (p *pipeline[RequestType]) applyWeights(
	results map[string]*StepResult,
	inWeights map[string]float64,
) (outWeights map[string]float64, subjectErrors map[string]map[string]error) {

	// Copy to avoid modifying the original weights.
	outWeights = make(map[string]float64, len(inWeights))
	maps.Copy(outWeights, inWeights)
	subjectErrors = make(map[string]map[string]error)

	// Apply all results in the strict order defined by the configuration.
	for _, weigherName := range p.weighersOrder {
		result, ok := results[weigherName]
		if !ok {
			// This is ok, since steps can be skipped.
			continue
		}
		normalized := Normalize(result.Activations, result.MinWeight, result.MaxWeight)
		for subject, weight := range normalized {
			if _, ok := outWeights[subject]; !ok {
				continue
			}
			outWeights[subject] += result.MultiplierOf(subject) * weight
		}
		for subject, err := range result.Errors {
			if subjectErrors[subject] == nil {
				subjectErrors[subject] = make(map[string]error)
			}
			subjectErrors[subject][weigherName] = err
		}
	}
	return outWeights, subjectErrors
}

// Sort the subjects by their weights. Subjects with the same weight
// keep the order in which they were given.
func (p *pipeline[RequestType]) sortSubjectsByWeights(subjects []string, weights map[string]float64) []string {
	sorted := make([]string, 0, len(subjects))
	seen := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		sorted = append(sorted, subject)
	}
	slices.SortStableFunc(sorted, func(a, b string) int {
		return cmp.Compare(weights[b], weights[a])
	})
	return sorted
}

// Evaluate the pipeline and return a list of subjects in order of preference.
func (p *pipeline[RequestType]) Run(request RequestType) (Decision, error) {
	if p.monitor.pipelineRunTimer != nil {
		hist := p.monitor.pipelineRunTimer.WithLabelValues(p.monitor.PipelineName)
		timer := prometheus.NewTimer(hist)
		defer timer.ObserveDuration()
	}
	slogArgs := request.GetTraceLogArgs()
	slogArgsAny := make([]any, 0, len(slogArgs))
	for _, arg := range slogArgs {
		slogArgsAny = append(slogArgsAny, arg)
	}
	traceLog := slog.With(slogArgsAny...)

	subjects := request.GetSubjects()
	traceLog.Info("scheduler: starting pipeline", "subjects", subjects)
	inWeights := make(map[string]float64, len(subjects))
	for _, subject := range subjects {
		inWeights[subject] = request.GetWeights()[subject]
	}

	results := p.runWeighers(traceLog, request)
	outWeights, subjectErrors := p.applyWeights(results, inWeights)
	traceLog.Info("scheduler: output weights", "weights", outWeights)

	ordered := p.sortSubjectsByWeights(subjects, outWeights)
	traceLog.Info("scheduler: sorted subjects", "subjects", ordered)

	p.monitor.observePipelineRequest(request)

	return Decision{
		InWeights:       inWeights,
		OutWeights:      outWeights,
		OrderedSubjects: ordered,
		SubjectErrors:   subjectErrors,
	}, nil
}
