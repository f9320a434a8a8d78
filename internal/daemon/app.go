// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/evtbus/internal/config"
	"github.com/ManuGH/evtbus/internal/heartbeat"
	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/rs/zerolog"
)

// App owns the long-lived runtime lifecycle (config watcher, reload signal,
// heartbeat) and delegates bus and server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	heartbeat    *heartbeat.Monitor
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and hb may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, hb *heartbeat.Monitor) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		heartbeat:    hb,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Best-effort: a missing watcher must not block startup.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(xglog.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(xglog.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	if a.cfgHolder != nil {
		updates := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(updates)
		running := a.cfgHolder.Get()
		g.Go(func() error {
			a.reportPendingRestart(ctx, running, updates)
			return nil
		})
	}

	if a.heartbeat != nil {
		g.Go(func() error {
			return a.heartbeat.Run(ctx)
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

// reportPendingRestart warns, after each reload, which settings differ from
// the ones the bus, heartbeat and API were built with.
func (a *App) reportPendingRestart(ctx context.Context, running config.AppConfig, updates <-chan config.AppConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-updates:
			pending := config.RestartRequired(running, next)
			if len(pending) == 0 {
				continue
			}
			a.logger.Warn().
				Str(xglog.FieldEvent, "config.restart_required").
				Strs("keys", pending).
				Msg("reloaded settings take effect after restart")
		}
	}
}
