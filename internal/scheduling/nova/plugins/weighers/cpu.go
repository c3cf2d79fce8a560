// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package weighers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/api"
	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
	"github.com/majewsky/gg/option"
)

const (
	// Scheduler hint that carries the criticality of the VM.
	HintCriticality = "type"
	// Criticality of VMs that may be evicted when regular cores are needed.
	CriticalityEvictable = "evictable"
	// Aggregate metadata key that overrides the multiplier of the hosts.
	MultiplierMetadataKey = "cpu_weight_multiplier"
)

// Position of a host in the (deficit, promise) plane.
//
// Deficit is the share of regular cores that are not in use, promise the
// share of green cores that are not in use. Hosts are scored by their
// distance to the reference point of the VM's criticality class.
type ReferencePoint struct {
	Deficit float64 `json:"deficit"`
	Promise float64 `json:"promise"`
}

var (
	// Reference point for regular VMs: regular cores almost fully in use,
	// green cores fully free.
	DefaultRegularReference = ReferencePoint{Deficit: 0.0625, Promise: 1.0}
	// Reference point for evictable VMs: regular cores fully in use,
	// green cores mostly in use.
	DefaultEvictableReference = ReferencePoint{Deficit: 0.0, Promise: 0.2}
)

func (p ReferencePoint) validate() error {
	for _, v := range []float64{p.Deficit, p.Promise} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("reference point coordinates must be finite")
		}
	}
	return nil
}

// Criticality class of a VM.
type Criticality string

const (
	CriticalityClassRegular   Criticality = "regular"
	CriticalityClassEvictable Criticality = "evictable"
)

// Get the criticality class requested by the scheduler hints, if any.
// Only an exact "evictable" first value is evictable; everything else,
// including an empty list, is regular.
func CriticalityOf(hints api.SchedulingHints) (Criticality, bool) {
	if !hints.Has(HintCriticality) {
		return "", false
	}
	if v, ok := hints.First(HintCriticality); ok && v == CriticalityEvictable {
		return CriticalityClassEvictable, true
	}
	return CriticalityClassRegular, true
}

var (
	// The regular or green core pool of the host has no available cores.
	ErrZeroAvailableCores = errors.New("zero available cores")
)

// Error for a host that could not be weighed.
type HostError struct {
	Host   string
	HostIP string
	Err    error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("cannot weigh host %s (ip %q): %v", e.Host, e.HostIP, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

// Short reason of the error, used as metric label.
func (e *HostError) Reason() string {
	switch {
	case errors.Is(e.Err, telemetry.ErrNotFound):
		return "telemetry_not_found"
	case errors.Is(e.Err, telemetry.ErrAmbiguous):
		return "telemetry_ambiguous"
	case errors.Is(e.Err, ErrZeroAvailableCores):
		return "zero_available_cores"
	default:
		return "unknown"
	}
}

type CPUWeigherOpts struct {
	// Multiplier of the weigher, unless overridden by aggregate metadata.
	// Falls back to the scheduler-wide cpu weight multiplier.
	Multiplier *float64 `json:"multiplier,omitempty"`
	// Reference points of the criticality classes.
	RegularReference   *ReferencePoint `json:"regularReference,omitempty"`
	EvictableReference *ReferencePoint `json:"evictableReference,omitempty"`
}

func (o CPUWeigherOpts) Validate() error {
	if o.Multiplier != nil && (math.IsNaN(*o.Multiplier) || math.IsInf(*o.Multiplier, 0)) {
		return errors.New("multiplier must be a finite number")
	}
	if o.RegularReference != nil {
		if err := o.RegularReference.validate(); err != nil {
			return fmt.Errorf("regularReference: %w", err)
		}
	}
	if o.EvictableReference != nil {
		if err := o.EvictableReference.validate(); err != nil {
			return fmt.Errorf("evictableReference: %w", err)
		}
	}
	return nil
}

// Weigh hosts by their cpu usage.
//
// Without a criticality hint, hosts with more free vcpus win, which spreads
// VMs across all hosts. A negative multiplier stacks them instead.
//
// With a criticality hint, hosts are scored by how close their regular and
// green core usage is to the reference point of the VM's class.
type CPUWeigher struct {
	lib.BaseWeigher[api.PipelineRequest, CPUWeigherOpts]
	// Scheduler-wide default multiplier.
	defaultMultiplier option.Option[float64]
}

func NewCPUWeigher(defaultMultiplier option.Option[float64]) *CPUWeigher {
	return &CPUWeigher{defaultMultiplier: defaultMultiplier}
}

func (s *CPUWeigher) reference(c Criticality) ReferencePoint {
	if c == CriticalityClassEvictable {
		if s.Options.EvictableReference != nil {
			return *s.Options.EvictableReference
		}
		return DefaultEvictableReference
	}
	if s.Options.RegularReference != nil {
		return *s.Options.RegularReference
	}
	return DefaultRegularReference
}

func (s *CPUWeigher) baseMultiplier() float64 {
	if s.Options.Multiplier != nil {
		return *s.Options.Multiplier
	}
	return s.defaultMultiplier.UnwrapOr(1.0)
}

// Get the multiplier for the host.
//
// The cpu_weight_multiplier metadata of the host's aggregates overrides
// the configured multiplier. If several aggregates set it, the lowest
// value wins. If any of the values is not a number, all of them are
// ignored and the configured multiplier is used.
func (s *CPUWeigher) WeightMultiplier(traceLog *slog.Logger, host api.HostState) float64 {
	base := s.baseMultiplier()
	var values []string
	for _, aggregate := range host.Aggregates {
		if v, ok := aggregate.Metadata[MultiplierMetadataKey]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return base
	}
	lowest := math.Inf(1)
	for _, v := range values {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			traceLog.Warn(
				"scheduler: invalid aggregate metadata, using default multiplier",
				"host", host.ComputeHost, "key", MultiplierMetadataKey,
				"values", values, "default", base,
			)
			return base
		}
		lowest = min(lowest, parsed)
	}
	return lowest
}

// Calculate the raw weight of the host.
func (s *CPUWeigher) Weigh(
	traceLog *slog.Logger,
	host api.HostState,
	hints api.SchedulingHints,
	usages telemetry.CoreUsageReader,
) (float64, error) {

	criticality, ok := CriticalityOf(hints)
	if !ok {
		vcpusFree := float64(host.VCPUsTotal)*host.CPUAllocationRatio - float64(host.VCPUsUsed)
		return vcpusFree, nil
	}

	usage, err := telemetry.Lookup(usages, host.HostIP)
	if err != nil {
		return 0, &HostError{Host: host.ComputeHost, HostIP: host.HostIP, Err: err}
	}
	if usage.RegularCoresAvailable == 0 {
		err := fmt.Errorf("%w: regular pool", ErrZeroAvailableCores)
		return 0, &HostError{Host: host.ComputeHost, HostIP: host.HostIP, Err: err}
	}
	if usage.GreenCoresAvailable == 0 {
		err := fmt.Errorf("%w: green pool", ErrZeroAvailableCores)
		return 0, &HostError{Host: host.ComputeHost, HostIP: host.HostIP, Err: err}
	}
	position := ReferencePoint{
		Deficit: math.Abs(usage.RegularCoresAvailable-usage.RegularCoresUsed) / usage.RegularCoresAvailable,
		Promise: math.Abs(usage.GreenCoresAvailable-usage.GreenCoresUsed) / usage.GreenCoresAvailable,
	}
	ref := s.reference(criticality)
	distance := math.Hypot(position.Deficit-ref.Deficit, position.Promise-ref.Promise)
	traceLog.Debug(
		"scheduler: calculated host position",
		"host", host.ComputeHost, "criticality", criticality,
		"deficit", position.Deficit, "promise", position.Promise,
		"distance", distance,
	)
	return 1 - distance, nil
}

// Run this weigher in the pipeline.
func (s *CPUWeigher) Run(traceLog *slog.Logger, request api.PipelineRequest) (*lib.StepResult, error) {
	result := s.PrepareResult(request)
	// Weights are normalized against zero, so more free capacity is
	// always worth proportionally more.
	result.MinWeight = option.Some(0.0)

	statName, unit := "vcpus free", "vcpus"
	if criticality, ok := CriticalityOf(request.Hints); ok {
		statName, unit = "closeness to "+string(criticality)+" reference", "score"
	}
	stats := s.PrepareStats(request, unit)

	for _, host := range request.Hosts {
		if _, ok := result.Activations[host.ComputeHost]; ok {
			continue
		}
		if _, ok := result.Errors[host.ComputeHost]; ok {
			continue
		}
		weight, err := s.Weigh(traceLog, host, request.Hints, request.CoreUsages)
		if err != nil {
			result.Errors[host.ComputeHost] = err
			continue
		}
		result.Activations[host.ComputeHost] = weight
		result.Multipliers[host.ComputeHost] = s.WeightMultiplier(traceLog, host)
		stats.Subjects[host.ComputeHost] = weight
	}
	result.Statistics[statName] = stats
	return result, nil
}

func init() {
	Index["cpu"] = func(c conf.SchedulerConfig) NovaWeigher {
		defaultMultiplier := option.None[float64]()
		if c.CPUWeightMultiplier != nil {
			defaultMultiplier = option.Some(*c.CPUWeightMultiplier)
		}
		return NewCPUWeigher(defaultMultiplier)
	}
}
