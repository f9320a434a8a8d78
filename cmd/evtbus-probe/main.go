// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command evtbus-probe starts a bus, subscribes to one event id, publishes a
// payload to it and reports what the callback received.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ManuGH/evtbus/internal/bus"
	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/rs/zerolog"
)

func main() {
	id := flag.Uint("id", 2, "event id to subscribe and publish")
	payload := flag.String("payload", "Hello!", "payload to publish")
	timeout := flag.Duration("timeout", 2*time.Second, "how long to wait for dispatch")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	xglog.Configure(xglog.Config{Level: *level, Service: "evtbus-probe"})
	logger := xglog.WithComponent("probe")

	if err := run(logger, *id, []byte(*payload), *timeout); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "probe.failed").Msg("probe failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, rawID uint, payload []byte, timeout time.Duration) error {
	if rawID > 0xFFFF {
		return fmt.Errorf("event id %d out of range", rawID)
	}
	id := bus.EventID(rawID)

	b, err := bus.New(bus.Options{Name: "probe"})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = b.Close(ctx)
	}()
	if err := b.Start(); err != nil {
		return err
	}

	received := make(chan struct{})
	h := bus.SubscribeWith(b, id, logger, func(ev *bus.Event, l zerolog.Logger) {
		l.Info().
			Str(xglog.FieldEvent, "probe.received").
			Uint16(xglog.FieldEventID, uint16(ev.ID)).
			Int("len", ev.Len()).
			Str("hex", hex.EncodeToString(ev.Payload())).
			Str("text", string(ev.Payload())).
			Msg("event received")
		select {
		case <-received:
		default:
			close(received)
		}
	})
	if !h.Valid() {
		return fmt.Errorf("subscribe to event %d failed", id)
	}
	defer b.Unsubscribe(h)

	if !b.Publish(id, payload) {
		return fmt.Errorf("publish to event %d rejected (payload %d bytes, max %d)", id, len(payload), b.MaxPayload())
	}

	select {
	case <-received:
		logger.Info().
			Str(xglog.FieldEvent, "probe.ok").
			Str(xglog.FieldHandle, h.String()).
			Uint64(xglog.FieldDispatched, b.Dispatched()).
			Msg("probe succeeded")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("no dispatch within %s", timeout)
	}
}
