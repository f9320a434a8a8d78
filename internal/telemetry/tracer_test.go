// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = NewProvider(context.Background(), Config{})
	})
}

func TestNewProvider_DisabledInstallsNoop(t *testing.T) {
	resetGlobal(t)

	p, err := NewProvider(context.Background(), Config{ServiceName: "evtbus", ExporterType: "bogus"})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer("test").Start(context.Background(), DispatchSpanName)
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "zipkin"})
	require.ErrorIs(t, err, ErrUnsupportedExporter)
	assert.Contains(t, err.Error(), `"zipkin"`)
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 3, want: "AlwaysOnSampler"},
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: -1, want: "AlwaysOffSampler"},
		{rate: 0.25, want: "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, newSampler(tt.rate).Description(), "rate %v", tt.rate)
	}
}

func TestProvider_NilShutdown(t *testing.T) {
	var p *Provider
	assert.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_CustomExporterFlushesOnShutdown(t *testing.T) {
	resetGlobal(t)
	exp := tracetest.NewInMemoryExporter()

	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "evtbus",
		Exporter:     exp,
		SamplingRate: 1,
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := Tracer("test").Start(context.Background(), DispatchSpanName)
	span.SetAttributes(EventAttributes("main", 7, 3)...)
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, DispatchSpanName, spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.Int(EventIDKey, 7))
	assert.Contains(t, spans[0].Attributes, attribute.String(BusNameKey, "main"))
}

func TestNewProvider_ZeroRateDropsSpans(t *testing.T) {
	resetGlobal(t)
	exp := tracetest.NewInMemoryExporter()

	p, err := NewProvider(context.Background(), Config{Enabled: true, Exporter: exp})
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), HeartbeatSpanName)
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Empty(t, exp.GetSpans())
}

func TestDispatchResultAttributes(t *testing.T) {
	attrs := DispatchResultAttributes(3, 2)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Int(MatchedKey, 3), attrs[0])
	assert.Equal(t, attribute.Int(InvokedKey, 2), attrs[1])
}

var _ sdktrace.SpanExporter = (*tracetest.InMemoryExporter)(nil)
