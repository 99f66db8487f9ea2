// SPDX-License-Identifier: MPL-2.0

package server

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dupetable/dupetable/internal/server"

type telemetry struct {
	tracer      trace.Tracer
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	rateLimited metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	var err error

	if t.requests, err = meter.Int64Counter(
		"dupetable.http.requests",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}

	if t.duration, err = meter.Float64Histogram(
		"dupetable.http.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	if t.rateLimited, err = meter.Int64Counter(
		"dupetable.ratelimit.rejected",
		metric.WithDescription("Custom downloads rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("create rate limit counter: %w", err)
	}

	return t, nil
}
