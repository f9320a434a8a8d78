// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func restoreGlobalLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func TestConfigHolder_ReloadAppliesLogLevel(t *testing.T) {
	restoreGlobalLevel(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader, path)
	updates := make(chan AppConfig, 1)
	h.RegisterListener(updates)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	require.Equal(t, "warn", h.Get().Log.Level)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	select {
	case got := <-updates:
		require.Equal(t, "warn", got.Log.Level)
	default:
		t.Fatal("listener not notified")
	}
}

func TestConfigHolder_FailedReloadKeepsConfig(t *testing.T) {
	path := writeConfig(t, "bus:\n  maxPayload: 100\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewConfigHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("bus:\n  bogus: 1\n"), 0o600))
	require.ErrorIs(t, h.Reload(context.Background()), ErrUnknownConfigField)
	require.Equal(t, 100, h.Get().Bus.MaxPayload)
}

func TestConfigHolder_WatcherReloadsOnWrite(t *testing.T) {
	restoreGlobalLevel(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader, path)
	h.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600))
	require.Eventually(t, func() bool {
		return h.Get().Log.Level == "error"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	// Let the watch loop observe cancellation before the leak check.
	time.Sleep(50 * time.Millisecond)
}

func TestConfigHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewConfigHolder(Defaults(), NewLoader("", ""), "")
	require.NoError(t, h.StartWatcher(context.Background()))
}

func TestConfigHolder_ConcurrentReloads(t *testing.T) {
	restoreGlobalLevel(t)
	t.Setenv(EnvTracingSampleRatio, "0.5")
	t.Setenv(EnvPublishLimit, "100")
	path := writeConfig(t, "bus:\n  maxPayload: 10\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader, path)
	updates := make(chan AppConfig, 64)
	h.RegisterListener(updates)

	require.NoError(t, os.WriteFile(path, []byte("bus:\n  maxPayload: 20\n"), 0o600))

	const workers, rounds = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := h.Reload(context.Background()); err != nil {
					t.Error(err)
					return
				}
				select {
				case <-updates:
				default:
				}
			}
		}()
	}
	wg.Wait()

	cfg := h.Get()
	require.Equal(t, 20, cfg.Bus.MaxPayload)
	require.Equal(t, 100, cfg.API.PublishLimit)
	require.InDelta(t, 0.5, cfg.Telemetry.SamplingRate, 1e-9)

	for len(updates) > 0 {
		<-updates
	}
	require.NoError(t, h.Reload(context.Background()))
	require.Equal(t, 20, (<-updates).Bus.MaxPayload)
}

func TestRestartRequired(t *testing.T) {
	running := Defaults()
	require.Empty(t, RestartRequired(running, running))

	next := running
	next.Log.Level = "debug"
	require.Empty(t, RestartRequired(running, next), "log level is applied live")

	next.Bus.QueueCapacity = 64
	next.Heartbeat.Interval = 0
	next.API.ListenAddr = ""
	next.Telemetry.Enabled = true
	require.Equal(t,
		[]string{"bus.queueCapacity", "heartbeat.interval", "api.listenAddr", "telemetry"},
		RestartRequired(running, next))
}
