// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/keystone"
	"github.com/cobaltcore-dev/cortex-harvest/internal/sync"
	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/aggregates"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/prometheus/client_golang/prometheus"
)

type NovaAPI interface {
	// Init the nova API.
	Init(ctx context.Context) error
	// Get all aggregates, flattened to one entry per compute host.
	GetAllAggregates(ctx context.Context) ([]Aggregate, error)
}

// API for OpenStack Nova.
type novaAPI struct {
	// Monitor to track the api.
	mon sync.Monitor
	// Keystone api to authenticate against.
	keystoneAPI keystone.KeystoneAPI
	// Authenticated OpenStack service client to fetch the data.
	sc *gophercloud.ServiceClient
}

func NewNovaAPI(mon sync.Monitor, k keystone.KeystoneAPI) NovaAPI {
	return &novaAPI{mon: mon, keystoneAPI: k}
}

// Init the nova API.
func (api *novaAPI) Init(ctx context.Context) error {
	if err := api.keystoneAPI.Authenticate(ctx); err != nil {
		return err
	}
	// Automatically fetch the nova endpoint from the keystone service catalog.
	provider := api.keystoneAPI.Client()
	serviceType := "compute"
	url, err := api.keystoneAPI.FindEndpoint(api.keystoneAPI.Availability(), serviceType)
	if err != nil {
		return fmt.Errorf("failed to find nova endpoint: %w", err)
	}
	slog.Info("using nova endpoint", "url", url)
	api.sc = &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       url,
		Type:           serviceType,
		// Aggregate uuids are returned since microversion 2.41.
		Microversion: "2.41",
	}
	return nil
}

// Get all nova aggregates and flatten them by compute host.
func (api *novaAPI) GetAllAggregates(ctx context.Context) ([]Aggregate, error) {
	if api.sc == nil {
		return nil, errors.New("nova api is not initialized")
	}
	label := Aggregate{}.TableName()
	slog.Info("fetching nova data", "label", label)

	pages, err := func() (pagination.Page, error) {
		if api.mon.PipelineRequestTimer != nil {
			hist := api.mon.PipelineRequestTimer.WithLabelValues(label)
			timer := prometheus.NewTimer(hist)
			defer timer.ObserveDuration()
		}
		return aggregates.List(api.sc).AllPages(ctx)
	}()
	if err != nil {
		return nil, err
	}

	type RawAggregate struct {
		UUID             string            `json:"uuid"`
		Name             string            `json:"name"`
		AvailabilityZone *string           `json:"availability_zone"`
		Hosts            []string          `json:"hosts"`
		Metadata         map[string]string `json:"metadata"`
	}
	type AggregatesPage struct {
		Aggregates []RawAggregate `json:"aggregates"`
	}
	data := &AggregatesPage{}
	if err := pages.(aggregates.AggregatesPage).ExtractInto(data); err != nil {
		return nil, err
	}
	slog.Info("fetched", "label", label, "count", len(data.Aggregates))

	result := []Aggregate{}
	for _, raw := range data.Aggregates {
		metadata, err := json.Marshal(raw.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata of aggregate %s: %w", raw.UUID, err)
		}
		for _, host := range raw.Hosts {
			result = append(result, Aggregate{
				UUID:             raw.UUID,
				Name:             raw.Name,
				AvailabilityZone: raw.AvailabilityZone,
				ComputeHost:      host,
				Metadata:         string(metadata),
			})
		}
	}
	return result, nil
}
