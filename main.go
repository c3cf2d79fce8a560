// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/db"
	"github.com/cobaltcore-dev/cortex-harvest/internal/keystone"
	"github.com/cobaltcore-dev/cortex-harvest/internal/monitoring"
	"github.com/cobaltcore-dev/cortex-harvest/internal/mqtt"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova"
	"github.com/cobaltcore-dev/cortex-harvest/internal/sync"
	"github.com/cobaltcore-dev/cortex-harvest/internal/sync/coreusage"
	novasync "github.com/cobaltcore-dev/cortex-harvest/internal/sync/openstack/nova"
	"github.com/cobaltcore-dev/cortex-harvest/internal/telemetry"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/must"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

// Run the prometheus metrics server for monitoring.
func runMonitoringServer(ctx context.Context, registry *monitoring.Registry, config conf.MonitoringConfig) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	slog.Info("metrics listening", "port", config.Port)
	addr := fmt.Sprintf(":%d", config.Port)
	return httpext.ListenAndServeContext(ctx, addr, mux)
}

// Run the api server that serves the nova external scheduler.
func runAPIServer(ctx context.Context, config conf.APIConfig, api nova.HTTPAPI) error {
	mux := http.NewServeMux()
	api.Init(mux)
	slog.Info("api listening", "port", config.Port)
	addr := fmt.Sprintf(":%d", config.Port)
	return httpext.ListenAndServeContext(ctx, addr, mux)
}

func main() {
	// If called with `--version`, report version and exit (the Dockerfile
	// uses this to check if the binary was built correctly)
	bininfo.HandleVersionArgument()

	config := conf.GetConfigOrDie[*conf.Config]()
	must.Succeed(config.Validate())
	config.LoggingConfig.SetDefaultLogger()

	// Set runtime concurrency to match CPU limit imposed by Kubernetes
	undoMaxprocs := must.Return(maxprocs.Set(maxprocs.Logger(slog.Debug)))
	defer undoMaxprocs()

	// Override User-Agent header for all requests made by this process.
	wrap := httpext.WrapTransport(&http.DefaultTransport)
	wrap.SetOverrideUserAgent(bininfo.Component(), bininfo.VersionOr("rolling"))

	// This context will gracefully shutdown when the process receives the
	// standard shutdown signal SIGINT, with a 10-second delay to allow
	// Kubernetes to stop sending new requests well before the process starts
	// to shut down.
	ctx := httpext.ContextWithSIGINT(context.Background(), 10*time.Second)

	registry := monitoring.NewRegistry(config.MonitoringConfig)
	database := db.NewPostgresDB(ctx, config.DBConfig, db.NewDBMonitor(registry))
	defer database.Close()

	store := telemetry.NewStore(&database)
	must.Succeed(store.Init())
	must.Succeed(novasync.InitAggregatesTable(&database))

	syncMonitor := sync.NewSyncMonitor(registry)
	var mqttClient mqtt.Client
	if config.MQTTConfig.URL != "" {
		mqttClient = mqtt.NewClient(config.MQTTConfig, mqtt.NewMQTTMonitor(registry))
		must.Succeed(mqttClient.Connect())
		defer mqttClient.Disconnect()
		subscriber := &coreusage.Subscriber{
			Store:      store,
			MqttClient: mqttClient,
			Topic:      config.SyncConfig.CoreUsage.GetTopic(),
			Mon:        syncMonitor,
		}
		must.Succeed(subscriber.Init(ctx))
	} else {
		slog.Warn("no mqtt url configured, core usage telemetry will not be received")
	}

	pipeline := must.Return(nova.NewPipeline(config.SchedulerConfig, lib.NewPipelineMonitor(registry)))
	api := nova.NewAPI(
		config.APIConfig, pipeline, lib.NewAPIMonitor(registry),
		store, novasync.NewAggregateStore(&database),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		database.CheckLivenessPeriodically(ctx)
		return nil
	})
	if config.KeystoneConfig.URL != "" {
		syncer := &novasync.NovaSyncer{
			DB:         &database,
			Mon:        syncMonitor,
			API:        novasync.NewNovaAPI(syncMonitor, keystone.NewKeystoneAPI(config.KeystoneConfig)),
			MqttClient: mqttClient,
		}
		must.Succeed(syncer.Init(ctx))
		interval := time.Duration(config.SyncConfig.Aggregates.GetIntervalSeconds()) * time.Second
		eg.Go(func() error {
			sync.RunPeriodically(ctx, "nova_aggregates", syncer, interval, syncMonitor)
			return nil
		})
	} else {
		slog.Warn("no keystone url configured, aggregates will not be synced")
	}
	eg.Go(func() error { return runMonitoringServer(ctx, registry, config.MonitoringConfig) })
	eg.Go(func() error { return runAPIServer(ctx, config.APIConfig, api) })
	must.Succeed(eg.Wait())
}
