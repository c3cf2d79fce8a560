// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package coreusage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/mqtt"
	"github.com/cobaltcore-dev/cortex-harvest/internal/sync"
	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Label under which the subscriber reports its metrics.
var label = telemetry.CoreUsage{}.TableName()

// Subscriber that keeps the stored core usage in line with the
// documents published by the telemetry manager.
type Subscriber struct {
	// Store in which the latest core usage is kept.
	Store *telemetry.Store
	// MQTT client to receive the telemetry documents.
	MqttClient mqtt.Client
	// Topic on which the telemetry manager publishes.
	Topic string
	// Monitor to track the subscriber.
	Mon sync.Monitor
}

// Create the core usage table and subscribe to the telemetry topic.
func (s *Subscriber) Init(ctx context.Context) error {
	if err := s.Store.Init(); err != nil {
		return err
	}
	if err := s.MqttClient.Subscribe(s.Topic, s.onMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.Topic, err)
	}
	slog.Info("coreusage: listening for telemetry", "topic", s.Topic)
	return nil
}

func (s *Subscriber) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	if err := s.Handle(msg.Payload()); err != nil {
		slog.Error("coreusage: dropping telemetry document", "topic", msg.Topic(), "error", err)
		if s.Mon.PipelineInvalidMessagesCounter != nil {
			s.Mon.PipelineInvalidMessagesCounter.WithLabelValues(label).Inc()
		}
	}
}

// Decode a telemetry document and replace the stored core usage with it.
func (s *Subscriber) Handle(payload []byte) error {
	records, err := decode(payload)
	if err != nil {
		return err
	}
	if err := s.Store.Replace(records); err != nil {
		return err
	}
	if s.Mon.PipelineObjectsGauge != nil {
		s.Mon.PipelineObjectsGauge.WithLabelValues(label).Set(float64(len(records)))
	}
	if s.Mon.PipelineRequestProcessedCounter != nil {
		s.Mon.PipelineRequestProcessedCounter.WithLabelValues(label).Inc()
	}
	slog.Info("coreusage: updated core usage", "records", len(records))
	return nil
}

func decode(payload []byte) ([]telemetry.CoreUsage, error) {
	var doc struct {
		CoreUsage *[]telemetry.CoreUsage `json:"core_usage"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("invalid telemetry document: %w", err)
	}
	if doc.CoreUsage == nil {
		return nil, errors.New("telemetry document without core_usage")
	}
	return *doc.CoreUsage, nil
}
