// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIMonitor_Callback(t *testing.T) {
	registry := &monitoring.Registry{Registry: prometheus.NewRegistry()}
	monitor := NewAPIMonitor(registry)

	tests := []struct {
		name string
		code int
		err  error
		text string
	}{
		{"success", http.StatusOK, nil, "Success"},
		{"failure", http.StatusBadRequest, errors.New("internal"), "bad request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
			c := monitor.Callback(w, r, "/test")
			c.Respond(tt.code, tt.err, tt.text)
			if tt.err != nil && w.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
	if n := testutil.CollectAndCount(monitor.ApiRequestsTimer); n != 2 {
		t.Errorf("expected 2 observed series, got %d", n)
	}
}
