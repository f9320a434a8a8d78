// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"

	"github.com/ManuGH/evtbus/internal/api"
	"github.com/ManuGH/evtbus/internal/bus"
	"github.com/ManuGH/evtbus/internal/config"
	"github.com/ManuGH/evtbus/internal/heartbeat"
	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/ManuGH/evtbus/internal/telemetry"
	"github.com/rs/zerolog"
)

// Runtime is the wired set of components for one daemon run.
type Runtime struct {
	Bus       *bus.Bus
	Heartbeat *heartbeat.Monitor
	API       *api.Server
	Manager   Manager
	Tracing   *telemetry.Provider
}

// Bootstrap builds every component from cfg. Nothing is started.
func Bootstrap(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*Runtime, error) {
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	busLogger := logger.With().Str(xglog.FieldComponent, "bus").Logger()
	b, err := bus.New(bus.Options{
		Name:          cfg.Bus.Name,
		MaxPayload:    cfg.Bus.MaxPayload,
		QueueCapacity: cfg.Bus.QueueCapacity,
		TableCapacity: cfg.Bus.TableCapacity,
		RecoverPanics: cfg.Bus.RecoverPanics,
		Logger:        &busLogger,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("create bus: %w", err)
	}

	hbOpts := []heartbeat.Option{
		heartbeat.WithLogger(logger.With().Str(xglog.FieldComponent, "heartbeat").Logger()),
	}
	if cfg.Heartbeat.StatusFile != "" {
		hbOpts = append(hbOpts, heartbeat.WithStatusFile(cfg.Heartbeat.StatusFile))
	}
	hb := heartbeat.New(cfg.Heartbeat.Interval, b, hbOpts...)

	var apiServer *api.Server
	deps := Deps{Logger: logger, Bus: b}
	if cfg.API.ListenAddr != "" {
		tracingService := ""
		if cfg.Telemetry.Enabled {
			tracingService = cfg.Log.Service
		}
		apiServer = api.New(api.Config{
			PublishLimit:   cfg.API.PublishLimit,
			PublishWindow:  cfg.API.PublishWindow,
			TracingService: tracingService,
		}, b, hb)
		deps.APIHandler = apiServer.Handler()
	}

	mgr, err := NewManager(DefaultServerConfig(cfg.API.ListenAddr), deps)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	mgr.RegisterShutdownHook("tracing", tp.Shutdown)

	return &Runtime{
		Bus:       b,
		Heartbeat: hb,
		API:       apiServer,
		Manager:   mgr,
		Tracing:   tp,
	}, nil
}
