// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

const maxEventPayload = 1 << 16

// Validate reports every invalid field at once.
func Validate(cfg AppConfig) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(cfg.Bus.Name) == "" {
		fail("bus.name", "must not be empty")
	}
	if cfg.Bus.MaxPayload < 1 || cfg.Bus.MaxPayload > maxEventPayload {
		fail("bus.maxPayload", "must be between 1 and %d, got %d", maxEventPayload, cfg.Bus.MaxPayload)
	}
	if cfg.Bus.QueueCapacity < 1 {
		fail("bus.queueCapacity", "must be positive, got %d", cfg.Bus.QueueCapacity)
	}
	if cfg.Bus.TableCapacity < 1 {
		fail("bus.tableCapacity", "must be positive, got %d", cfg.Bus.TableCapacity)
	}

	if cfg.Heartbeat.Interval < 0 {
		fail("heartbeat.interval", "must not be negative, got %s", cfg.Heartbeat.Interval)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		fail("log.level", "unknown level %q", cfg.Log.Level)
	}

	if cfg.API.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.API.ListenAddr); err != nil {
			fail("api.listenAddr", "%v", err)
		}
	}
	if cfg.API.PublishLimit < 1 {
		fail("api.publishLimit", "must be positive, got %d", cfg.API.PublishLimit)
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			fail("telemetry.exporter", "must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			fail("telemetry.endpoint", "must not be empty when tracing is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		fail("telemetry.samplingRate", "must be within [0, 1], got %g", cfg.Telemetry.SamplingRate)
	}

	return errors.Join(errs...)
}
