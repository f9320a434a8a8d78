// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads daemon configuration with the precedence
// defaults < YAML file < environment.
//
// The YAML file is parsed strictly: unknown keys and trailing documents are
// errors. Environment variables use the EVTBUS_ prefix. A ConfigHolder keeps
// the active configuration and can reload it when the file changes; only the
// log level takes effect without a restart.
package config
