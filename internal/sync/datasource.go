// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-bits/jobloop"
)

// Common interface for data sources.
type Datasource interface {
	// Initialize the data source, e.g. create database tables.
	Init(ctx context.Context) error
	// Download data from the data source.
	Sync(ctx context.Context) error
}

// Sync the datasource right away and then repeatedly with a jittered
// interval, until the context is cancelled. Failed syncs are logged
// and retried in the next round.
func RunPeriodically(ctx context.Context, name string, ds Datasource, interval time.Duration, monitor Monitor) {
	for {
		func() {
			if monitor.PipelineRunTimer != nil {
				hist := monitor.PipelineRunTimer.WithLabelValues(name)
				timer := prometheus.NewTimer(hist)
				defer timer.ObserveDuration()
			}
			if err := ds.Sync(ctx); err != nil {
				slog.Error("sync: failed to sync datasource", "name", name, "error", err)
				return
			}
			slog.Info("sync: synced datasource", "name", name)
		}()
		select {
		case <-ctx.Done():
			slog.Info("sync: shutting down", "name", name)
			return
		case <-time.After(jobloop.DefaultJitter(interval)):
		}
	}
}
