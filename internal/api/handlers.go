// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ManuGH/evtbus/internal/bus"
	"github.com/ManuGH/evtbus/internal/heartbeat"
	xglog "github.com/ManuGH/evtbus/internal/log"
	"github.com/go-chi/chi/v5"
)

type statusResponse struct {
	Bus       bus.Stats           `json:"bus"`
	Heartbeat *heartbeat.Snapshot `json:"heartbeat,omitempty"`
}

type publishResponse struct {
	EventID uint16 `json:"event_id"`
	Bytes   int    `json:"bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.bus.Running() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Bus: s.bus.Stats()}
	if s.heartbeat != nil {
		snap := s.heartbeat.Snapshot()
		resp.Heartbeat = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePublish publishes the request body as the payload of event {id}. The
// id accepts decimal or 0x-prefixed hex.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event_id", "event id must be an integer in [0, 65535]")
		return
	}

	limit := s.bus.MaxPayload()
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(limit)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				"payload exceeds "+strconv.Itoa(limit)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "read_failed", err.Error())
		return
	}

	if !s.bus.Publish(bus.EventID(id), payload) {
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Debug().
			Str(xglog.FieldEvent, "api.publish_rejected").
			Uint16(xglog.FieldEventID, uint16(id)).
			Msg("bus rejected publish")
		writeError(w, http.StatusServiceUnavailable, "publish_rejected", "event queue full or bus stopped")
		return
	}

	writeJSON(w, http.StatusAccepted, publishResponse{EventID: uint16(id), Bytes: len(payload)})
}
