// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/db"
	"github.com/cobaltcore-dev/cortex-harvest/internal/mqtt"
	"github.com/cobaltcore-dev/cortex-harvest/internal/sync"
)

// Syncer for OpenStack nova aggregates.
type NovaSyncer struct {
	// Database to store the nova objects in.
	DB *db.DB
	// Monitor to track the syncer.
	Mon sync.Monitor
	// Nova API client to fetch the data.
	API NovaAPI
	// MQTT client to publish mqtt data.
	MqttClient mqtt.Client
}

// Init the OpenStack nova syncer.
func (s *NovaSyncer) Init(ctx context.Context) error {
	if err := s.API.Init(ctx); err != nil {
		return fmt.Errorf("failed to init nova api: %w", err)
	}
	return InitAggregatesTable(s.DB)
}

// Register and create the aggregates table.
func InitAggregatesTable(d *db.DB) error {
	table := d.AddTable(Aggregate{})
	if err := d.CreateTable(table); err != nil {
		return fmt.Errorf("failed to create aggregates table: %w", err)
	}
	return nil
}

// Sync the OpenStack nova aggregates and publish a trigger.
func (s *NovaSyncer) Sync(ctx context.Context) error {
	synced, err := s.SyncAllAggregates(ctx)
	if err != nil {
		return err
	}
	label := Aggregate{}.TableName()
	if s.Mon.PipelineObjectsGauge != nil {
		s.Mon.PipelineObjectsGauge.WithLabelValues(label).Set(float64(len(synced)))
	}
	if s.Mon.PipelineRequestProcessedCounter != nil {
		s.Mon.PipelineRequestProcessedCounter.WithLabelValues(label).Inc()
	}
	if s.MqttClient != nil {
		go s.MqttClient.Publish(TriggerNovaAggregatesSynced, "")
	}
	return nil
}

// Fetch all aggregates and replace the stored ones.
func (s *NovaSyncer) SyncAllAggregates(ctx context.Context) ([]Aggregate, error) {
	all, err := s.API.GetAllAggregates(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.ReplaceAll(s.DB, all); err != nil {
		return nil, err
	}
	slog.Info("synced aggregates", "count", len(all))
	return all, nil
}
