// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	config := conf.MonitoringConfig{
		Labels: map[string]string{
			"env": "test",
		},
	}
	registry := NewRegistry(config)

	if registry == nil {
		t.Fatalf("expected registry to be non-nil")
	}
	if registry.config.Labels["env"] != "test" {
		t.Fatalf("expected registry config label 'env' to be 'test', got %v", registry.config.Labels["env"])
	}
}

func TestRegistry_Gather(t *testing.T) {
	config := conf.MonitoringConfig{
		Labels: map[string]string{
			"env": "test",
		},
	}
	registry := NewRegistry(config)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})
	registry.MustRegister(counter)
	counter.Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, family := range families {
		for _, metric := range family.Metric {
			found := false
			for _, label := range metric.Label {
				if *label.Name == "env" && *label.Value == "test" {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("expected custom label 'env' with value 'test' in metric, but not found")
			}
		}
	}
}

func TestRegistry_Handler(t *testing.T) {
	registry := NewRegistry(conf.MonitoringConfig{
		Labels: map[string]string{"github_repo": "cortex-harvest"},
	})
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_handler_counter",
		Help: "A test counter",
	})
	registry.MustRegister(counter)
	counter.Inc()

	server := httptest.NewServer(registry.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(body), `test_handler_counter{github_repo="cortex-harvest"} 1`) {
		t.Errorf("expected labeled counter in output, got:\n%s", body)
	}
}
