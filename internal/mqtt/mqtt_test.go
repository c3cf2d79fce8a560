// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"os"
	"testing"
	"time"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/monitoring"
	"github.com/cobaltcore-dev/cortex-harvest/testlib/mqtt/containers"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConnect_NoURL(t *testing.T) {
	c := NewClient(conf.MQTTConfig{}, Monitor{})
	if err := c.Connect(); err == nil {
		t.Fatal("expected error without broker url")
	}
	// Disconnecting a client that never connected is a no-op.
	c.Disconnect()
}

func TestConnect_Unreachable(t *testing.T) {
	registry := monitoring.NewRegistry(conf.MonitoringConfig{})
	monitor := NewMQTTMonitor(registry)
	c := NewClient(conf.MQTTConfig{URL: "tcp://127.0.0.1:1"}, monitor)
	if err := c.Connect(); err == nil {
		t.Fatal("expected error for unreachable broker")
	}
	if got := testutil.ToFloat64(monitor.connectionAttempts); got != 1 {
		t.Errorf("expected 1 connection attempt, got %v", got)
	}
	if err := c.Subscribe("test/topic", func(mqtt.Client, mqtt.Message) {}); err == nil {
		t.Fatal("expected subscribe to fail for unreachable broker")
	}
}

func TestPublishSubscribe(t *testing.T) {
	if os.Getenv("VERNEMQ_CONTAINER") != "1" {
		t.Skip("skipping test; set VERNEMQ_CONTAINER=1 to run")
	}

	container := containers.VernemqContainer{}
	container.Init(t)
	defer container.Close()
	c := NewClient(conf.MQTTConfig{URL: "tcp://localhost:" + container.GetPort()}, Monitor{})
	defer c.Disconnect()

	received := make(chan []byte, 1)
	err := c.Subscribe("test/topic", func(_ mqtt.Client, msg mqtt.Message) {
		received <- msg.Payload()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c.Publish("test/topic", map[string]string{"key": "value"})

	select {
	case payload := <-received:
		if string(payload) != `{"key":"value"}` {
			t.Errorf("unexpected payload %s", payload)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("did not receive published message in time")
	}
}

func TestDisconnect(t *testing.T) {
	if os.Getenv("VERNEMQ_CONTAINER") != "1" {
		t.Skip("skipping test; set VERNEMQ_CONTAINER=1 to run")
	}

	container := containers.VernemqContainer{}
	container.Init(t)
	defer container.Close()
	c := NewClient(conf.MQTTConfig{URL: "tcp://localhost:" + container.GetPort()}, Monitor{})
	if err := c.Connect(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c.Disconnect()
	c.Disconnect() // Should do nothing (already disconnected)
}
