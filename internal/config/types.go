// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Bus       BusConfig
	Heartbeat HeartbeatConfig
	Log       LogConfig
	API       APIConfig
	Telemetry TelemetryConfig

	// Version is stamped from the binary, never from file or env.
	Version string
}

type BusConfig struct {
	Name          string
	MaxPayload    int
	QueueCapacity int
	TableCapacity int
	RecoverPanics bool
}

type HeartbeatConfig struct {
	// Interval of zero disables the heartbeat.
	Interval   time.Duration
	StatusFile string
}

type LogConfig struct {
	Level   string
	Service string
}

type APIConfig struct {
	// ListenAddr of "" disables the admin API.
	ListenAddr string
	// PublishLimit is the number of publish requests allowed per client IP
	// per PublishWindow.
	PublishLimit  int
	PublishWindow time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig mirrors the YAML layout. Pointer fields distinguish an absent key
// from an explicit zero value.
type FileConfig struct {
	Bus       *FileBusConfig       `yaml:"bus,omitempty"`
	Heartbeat *FileHeartbeatConfig `yaml:"heartbeat,omitempty"`
	Log       *FileLogConfig       `yaml:"log,omitempty"`
	API       *FileAPIConfig       `yaml:"api,omitempty"`
	Telemetry *FileTelemetryConfig `yaml:"telemetry,omitempty"`
}

type FileBusConfig struct {
	Name          *string `yaml:"name,omitempty"`
	MaxPayload    *int    `yaml:"maxPayload,omitempty"`
	QueueCapacity *int    `yaml:"queueCapacity,omitempty"`
	TableCapacity *int    `yaml:"tableCapacity,omitempty"`
	RecoverPanics *bool   `yaml:"recoverPanics,omitempty"`
}

type FileHeartbeatConfig struct {
	Interval   *string `yaml:"interval,omitempty"`
	StatusFile *string `yaml:"statusFile,omitempty"`
}

type FileLogConfig struct {
	Level   *string `yaml:"level,omitempty"`
	Service *string `yaml:"service,omitempty"`
}

type FileAPIConfig struct {
	ListenAddr   *string `yaml:"listenAddr,omitempty"`
	PublishLimit *int    `yaml:"publishLimit,omitempty"`
}

type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     *string  `yaml:"exporter,omitempty"`
	Endpoint     *string  `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
