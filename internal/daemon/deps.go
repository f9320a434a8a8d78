// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/ManuGH/evtbus/internal/bus"
	"github.com/rs/zerolog"
)

// ServerConfig holds the admin HTTP server settings.
type ServerConfig struct {
	// ListenAddr of "" runs the daemon without the admin API.
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
}

// DefaultServerConfig returns timeouts suitable for a small admin surface.
func DefaultServerConfig(listenAddr string) ServerConfig {
	return ServerConfig{
		ListenAddr:      listenAddr,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxHeaderBytes:  1 << 16,
	}
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	Logger zerolog.Logger

	// Bus is started by Manager.Start and drained during shutdown.
	Bus *bus.Bus

	// APIHandler serves the admin API. Required when ListenAddr is set.
	APIHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate(cfg ServerConfig) error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Bus == nil {
		return ErrMissingBus
	}
	if cfg.ListenAddr != "" && d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
