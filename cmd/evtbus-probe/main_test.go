// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRun_RoundTrip(t *testing.T) {
	require.NoError(t, run(zerolog.Nop(), 2, []byte("Hello!"), 2*time.Second))
}

func TestRun_RejectsOversizedPayload(t *testing.T) {
	err := run(zerolog.Nop(), 2, make([]byte, 65), time.Second)
	require.ErrorContains(t, err, "rejected")
}

func TestRun_RejectsOutOfRangeID(t *testing.T) {
	require.Error(t, run(zerolog.Nop(), 70000, nil, time.Second))
}
