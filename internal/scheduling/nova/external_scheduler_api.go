// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/api"
	novasync "github.com/cobaltcore-dev/cortex-harvest/internal/sync/openstack/nova"
	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
)

// Source of the current core usage telemetry.
type CoreUsageSource interface {
	Snapshot(ctx context.Context) (telemetry.Snapshot, error)
}

// Source of the synced nova aggregates.
type AggregateSource interface {
	AggregatesByHost(ctx context.Context, hosts []string) (map[string][]novasync.Aggregate, error)
}

type HTTPAPI interface {
	// Bind the server handlers.
	Init(*http.ServeMux)
}

type httpAPI struct {
	config     conf.APIConfig
	pipeline   NovaPipeline
	monitor    lib.APIMonitor
	coreUsages CoreUsageSource
	aggregates AggregateSource
}

func NewAPI(
	config conf.APIConfig,
	pipeline NovaPipeline,
	monitor lib.APIMonitor,
	coreUsages CoreUsageSource,
	aggregates AggregateSource,
) HTTPAPI {

	return &httpAPI{
		config:     config,
		pipeline:   pipeline,
		monitor:    monitor,
		coreUsages: coreUsages,
		aggregates: aggregates,
	}
}

// Init the API mux and bind the handlers.
func (httpAPI *httpAPI) Init(mux *http.ServeMux) {
	mux.HandleFunc("/up", httpAPI.Up)
	mux.HandleFunc("/scheduler/nova/external", httpAPI.NovaExternalScheduler)
}

// Check if the scheduler can run based on the request data.
// Note: messages returned here are user-facing and should not contain internal details.
func (httpAPI *httpAPI) canRunScheduler(requestData api.ExternalSchedulerRequest) (ok bool, reason string) {
	// Check that all hosts have a weight.
	for _, host := range requestData.Hosts {
		if _, ok := requestData.Weights[host.ComputeHost]; !ok {
			return false, "missing weight for host"
		}
	}
	// Check that all weights are assigned to a host in the request.
	computeHostNames := make(map[string]bool)
	for _, host := range requestData.Hosts {
		computeHostNames[host.ComputeHost] = true
	}
	for computeHost := range requestData.Weights {
		if _, ok := computeHostNames[computeHost]; !ok {
			return false, "weight assigned to unknown host"
		}
	}
	return true, ""
}

// Fill in the synced aggregates of hosts that came without aggregates.
func (httpAPI *httpAPI) loadAggregates(ctx context.Context, requestData *api.ExternalSchedulerRequest) error {
	if httpAPI.aggregates == nil {
		return nil
	}
	var missing []string
	for _, host := range requestData.Hosts {
		if host.Aggregates == nil {
			missing = append(missing, host.ComputeHost)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	byHost, err := httpAPI.aggregates.AggregatesByHost(ctx, missing)
	if err != nil {
		return err
	}
	for i, host := range requestData.Hosts {
		if host.Aggregates != nil {
			continue
		}
		for _, synced := range byHost[host.ComputeHost] {
			metadata, err := synced.GetMetadata()
			if err != nil {
				slog.Warn(
					"scheduler: ignoring aggregate with invalid metadata",
					"aggregate", synced.UUID, "host", host.ComputeHost, "error", err,
				)
				continue
			}
			requestData.Hosts[i].Aggregates = append(requestData.Hosts[i].Aggregates, api.Aggregate{
				UUID:     synced.UUID,
				Name:     synced.Name,
				Metadata: metadata,
			})
		}
	}
	return nil
}

// Handle the GET request to check if the API is up.
func (httpAPI *httpAPI) Up(w http.ResponseWriter, r *http.Request) {
	c := httpAPI.monitor.Callback(w, r, "/up")
	w.WriteHeader(http.StatusOK)
	c.Respond(http.StatusOK, nil, "Success")
}

// Handle the POST request from the Nova scheduler.
// The request contains a spec of the vm to be scheduled, a list of hosts,
// and a map of weights that were calculated by the Nova weigher pipeline.
// The response contains an ordered list of hosts that the vm should be
// scheduled on, together with their final weights.
func (httpAPI *httpAPI) NovaExternalScheduler(w http.ResponseWriter, r *http.Request) {
	c := httpAPI.monitor.Callback(w, r, "/scheduler/nova/external")

	// Exit early if the request method is not POST.
	if r.Method != http.MethodPost {
		internalErr := fmt.Errorf("invalid request method: %s", r.Method)
		c.Respond(http.StatusMethodNotAllowed, internalErr, "invalid request method")
		return
	}

	// Ensure body is closed after reading.
	defer r.Body.Close()

	// If configured, log out the complete request body.
	if httpAPI.config.LogRequestBodies {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to read request body")
			return
		}
		slog.Info("request body", "body", string(body))
		r.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	var requestData api.ExternalSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		c.Respond(http.StatusBadRequest, err, "failed to decode request body")
		return
	}
	slog.Info(
		"handling POST request", "url", "/scheduler/nova/external",
		"hosts", len(requestData.Hosts), "instance", requestData.Spec.Data.InstanceUUID,
	)

	if ok, reason := httpAPI.canRunScheduler(requestData); !ok {
		internalErr := fmt.Errorf("cannot run scheduler: %s", reason)
		c.Respond(http.StatusBadRequest, internalErr, reason)
		return
	}

	ctx := r.Context()
	// All hosts of the request are weighed against the same telemetry.
	var usages telemetry.CoreUsageReader
	if httpAPI.coreUsages != nil {
		snapshot, err := httpAPI.coreUsages.Snapshot(ctx)
		if err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to load core usage")
			return
		}
		usages = snapshot
	}
	if err := httpAPI.loadAggregates(ctx, &requestData); err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to load aggregates")
		return
	}

	request, err := api.NewPipelineRequest(requestData, usages)
	if err != nil {
		c.Respond(http.StatusBadRequest, err, "invalid scheduler hints")
		return
	}
	decision, err := httpAPI.pipeline.Run(request)
	if err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to evaluate pipeline")
		return
	}
	response := api.ExternalSchedulerResponse{
		Hosts:   decision.OrderedSubjects,
		Weights: decision.OutWeights,
	}
	for host, errsByStep := range decision.SubjectErrors {
		if response.Errors == nil {
			response.Errors = make(map[string]string, len(decision.SubjectErrors))
		}
		errs := make([]error, 0, len(errsByStep))
		for _, step := range slices.Sorted(maps.Keys(errsByStep)) {
			errs = append(errs, fmt.Errorf("%s: %w", step, errsByStep[step]))
		}
		response.Errors[host] = errors.Join(errs...).Error()
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(response); err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to encode response")
		return
	}
	c.Respond(http.StatusOK, nil, "Success")
}
