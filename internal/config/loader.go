// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/evtbus/internal/log"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBusName           = "evtbus"
	DefaultMaxPayload        = 64
	DefaultQueueCapacity     = 32
	DefaultTableCapacity     = 16
	DefaultHeartbeatInterval = time.Second
	DefaultLogLevel          = "info"
	DefaultLogService        = "evtbus"
	DefaultListenAddr        = ":8089"
	DefaultPublishLimit      = 600
	DefaultPublishWindow     = time.Minute
	DefaultTracingExporter   = "grpc"
	DefaultTracingEndpoint   = "localhost:4317"
	DefaultSamplingRate      = 1.0
)

// Loader handles configuration loading with precedence. A Loader holds no
// mutable state, so Load may be called from several goroutines.
type Loader struct {
	configPath string
	version    string
	environ    func() []string
}

// NewLoader creates a new configuration loader. An empty configPath means
// defaults and environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
		environ:    os.Environ,
	}
}

// Load resolves the configuration: defaults, then the strict YAML file, then
// environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)
	cfg.Version = l.version
	l.warnUnknownEnv()

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Bus: BusConfig{
			Name:          DefaultBusName,
			MaxPayload:    DefaultMaxPayload,
			QueueCapacity: DefaultQueueCapacity,
			TableCapacity: DefaultTableCapacity,
		},
		Heartbeat: HeartbeatConfig{
			Interval: DefaultHeartbeatInterval,
		},
		Log: LogConfig{
			Level:   DefaultLogLevel,
			Service: DefaultLogService,
		},
		API: APIConfig{
			ListenAddr:    DefaultListenAddr,
			PublishLimit:  DefaultPublishLimit,
			PublishWindow: DefaultPublishWindow,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: DefaultSamplingRate,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if b := src.Bus; b != nil {
		setIfPresent(&dst.Bus.Name, b.Name)
		setIfPresent(&dst.Bus.MaxPayload, b.MaxPayload)
		setIfPresent(&dst.Bus.QueueCapacity, b.QueueCapacity)
		setIfPresent(&dst.Bus.TableCapacity, b.TableCapacity)
		setIfPresent(&dst.Bus.RecoverPanics, b.RecoverPanics)
	}
	if h := src.Heartbeat; h != nil {
		if h.Interval != nil {
			d, err := time.ParseDuration(*h.Interval)
			if err != nil {
				return fmt.Errorf("heartbeat.interval: %w", err)
			}
			dst.Heartbeat.Interval = d
		}
		setIfPresent(&dst.Heartbeat.StatusFile, h.StatusFile)
	}
	if lg := src.Log; lg != nil {
		setIfPresent(&dst.Log.Level, lg.Level)
		setIfPresent(&dst.Log.Service, lg.Service)
	}
	if a := src.API; a != nil {
		setIfPresent(&dst.API.ListenAddr, a.ListenAddr)
		setIfPresent(&dst.API.PublishLimit, a.PublishLimit)
	}
	if t := src.Telemetry; t != nil {
		setIfPresent(&dst.Telemetry.Enabled, t.Enabled)
		setIfPresent(&dst.Telemetry.Exporter, t.Exporter)
		setIfPresent(&dst.Telemetry.Endpoint, t.Endpoint)
		setIfPresent(&dst.Telemetry.SamplingRate, t.SamplingRate)
	}
	return nil
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// mergeEnvConfig applies environment overrides on top of cfg.
func mergeEnvConfig(cfg *AppConfig) {
	cfg.Bus.Name = ParseString(EnvBusName, cfg.Bus.Name)
	cfg.Bus.MaxPayload = ParseInt(EnvMaxPayload, cfg.Bus.MaxPayload)
	cfg.Bus.QueueCapacity = ParseInt(EnvQueueCapacity, cfg.Bus.QueueCapacity)
	cfg.Bus.TableCapacity = ParseInt(EnvTableCapacity, cfg.Bus.TableCapacity)
	cfg.Bus.RecoverPanics = ParseBool(EnvRecoverPanics, cfg.Bus.RecoverPanics)

	cfg.Heartbeat.Interval = ParseDuration(EnvHeartbeatInterval, cfg.Heartbeat.Interval)
	cfg.Heartbeat.StatusFile = ParseString(EnvHeartbeatStatus, cfg.Heartbeat.StatusFile)

	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = ParseString(EnvLogService, cfg.Log.Service)

	// An explicitly empty EVTBUS_LISTEN disables the API.
	if v, ok := os.LookupEnv(EnvListen); ok {
		cfg.API.ListenAddr = v
	}
	cfg.API.PublishLimit = ParseInt(EnvPublishLimit, cfg.API.PublishLimit)

	cfg.Telemetry.Enabled = ParseBool(EnvTracingEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvTracingExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvTracingEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvTracingSampleRatio, cfg.Telemetry.SamplingRate)
}

// ValidateEnvUsage returns the EVTBUS_* variables in the environment that no
// setting reads, sorted. These are usually typos or removed settings.
func (l *Loader) ValidateEnvUsage() []string {
	return UnknownEnvKeys(l.environ())
}

func (l *Loader) warnUnknownEnv() {
	unknown := l.ValidateEnvUsage()
	if len(unknown) == 0 {
		return
	}
	logger := log.WithComponent("config")
	logger.Warn().
		Str(log.FieldEvent, "config.unknown_env").
		Strs("keys", unknown).
		Msg("ignoring unknown EVTBUS_* environment variables")
}
