// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/evtbus/internal/log"
	"github.com/rs/zerolog"
)

// Environment variable names.
const (
	EnvMaxPayload         = "EVTBUS_MAX_PAYLOAD"
	EnvQueueCapacity      = "EVTBUS_QUEUE_CAPACITY"
	EnvTableCapacity      = "EVTBUS_TABLE_CAPACITY"
	EnvRecoverPanics      = "EVTBUS_RECOVER_PANICS"
	EnvBusName            = "EVTBUS_NAME"
	EnvHeartbeatInterval  = "EVTBUS_HEARTBEAT_INTERVAL"
	EnvHeartbeatStatus    = "EVTBUS_HEARTBEAT_STATUS_FILE"
	EnvLogLevel           = "EVTBUS_LOG_LEVEL"
	EnvLogService         = "EVTBUS_LOG_SERVICE"
	EnvListen             = "EVTBUS_LISTEN"
	EnvPublishLimit       = "EVTBUS_PUBLISH_LIMIT"
	EnvTracingEnabled     = "EVTBUS_TRACING_ENABLED"
	EnvTracingExporter    = "EVTBUS_TRACING_EXPORTER"
	EnvTracingEndpoint    = "EVTBUS_TRACING_ENDPOINT"
	EnvTracingSampleRatio = "EVTBUS_TRACING_SAMPLING_RATE"
)

const envPrefix = "EVTBUS_"

var knownEnvKeys = map[string]struct{}{
	EnvMaxPayload:         {},
	EnvQueueCapacity:      {},
	EnvTableCapacity:      {},
	EnvRecoverPanics:      {},
	EnvBusName:            {},
	EnvHeartbeatInterval:  {},
	EnvHeartbeatStatus:    {},
	EnvLogLevel:           {},
	EnvLogService:         {},
	EnvListen:             {},
	EnvPublishLimit:       {},
	EnvTracingEnabled:     {},
	EnvTracingExporter:    {},
	EnvTracingEndpoint:    {},
	EnvTracingSampleRatio: {},
}

// UnknownEnvKeys picks the EVTBUS_* keys out of environ ("KEY=value" pairs)
// that no setting reads. The result is sorted and free of duplicates.
func UnknownEnvKeys(environ []string) []string {
	seen := make(map[string]struct{})
	var unknown []string
	for _, pair := range environ {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, envPrefix) {
			continue
		}
		if _, ok := knownEnvKeys[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}

// parseEnv reads key and converts it with parse. Unset or empty variables and
// values that fail to parse yield defaultValue. The chosen source is logged.
func parseEnv[T any](logger zerolog.Logger, key string, defaultValue T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Str("default", fmt.Sprint(defaultValue)).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}

	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", v).
			Str("default", fmt.Sprint(defaultValue)).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}

	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return parsed
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password")
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(log.WithComponent("config"), key, defaultValue, func(s string) (string, error) {
		return s, nil
	})
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(log.WithComponent("config"), key, defaultValue, strconv.Atoi)
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(log.WithComponent("config"), key, defaultValue, parseBool)
}

// ParseDuration reads a Go duration ("5s", "250ms") from environment variable
// or returns default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(log.WithComponent("config"), key, defaultValue, time.ParseDuration)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(log.WithComponent("config"), key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
