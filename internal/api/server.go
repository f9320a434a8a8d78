// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the daemon's admin HTTP surface: health, status,
// prometheus metrics and an HTTP publish endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/evtbus/internal/api/middleware"
	"github.com/ManuGH/evtbus/internal/bus"
	"github.com/ManuGH/evtbus/internal/heartbeat"
	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// EventBus is the part of the bus the API needs.
type EventBus interface {
	Publish(id bus.EventID, payload []byte) bool
	MaxPayload() int
	Running() bool
	Stats() bus.Stats
}

// HeartbeatSource provides the heartbeat view shown on /status.
type HeartbeatSource interface {
	Snapshot() heartbeat.Snapshot
}

// Config controls the router.
type Config struct {
	PublishLimit  int
	PublishWindow time.Duration
	// TracingService names the tracer for request spans; empty disables them.
	TracingService string
}

// Server holds the admin API handlers.
type Server struct {
	bus       EventBus
	heartbeat HeartbeatSource
	cfg       Config
	logger    zerolog.Logger
	router    chi.Router
}

// New builds the server and its routes. hb may be nil.
func New(cfg Config, b EventBus, hb HeartbeatSource) *Server {
	if cfg.PublishLimit <= 0 {
		cfg.PublishLimit = 600
	}
	if cfg.PublishWindow <= 0 {
		cfg.PublishWindow = time.Minute
	}
	s := &Server{
		bus:       b,
		heartbeat: hb,
		cfg:       cfg,
		logger:    xglog.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: s.cfg.PublishLimit,
		WindowSize:   s.cfg.PublishWindow,
	})).Post("/events/{id}", s.handlePublish)

	return r
}
