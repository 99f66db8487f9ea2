// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dupetable/dupetable/internal/pack"

// telemetry holds the instruments shared by every build.
type telemetry struct {
	tracer   trace.Tracer
	rendered metric.Int64Counter
	failed   metric.Int64Counter
	archived metric.Int64Counter
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

	t.rendered, err = meter.Int64Counter(
		"dupetable.recipes.rendered",
		metric.WithDescription("Recipe artifacts rendered into archives"),
		metric.WithUnit("{recipe}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rendered counter: %w", err)
	}

	t.failed, err = meter.Int64Counter(
		"dupetable.recipes.failed",
		metric.WithDescription("Items whose recipe could not be rendered"),
		metric.WithUnit("{recipe}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failed counter: %w", err)
	}

	t.archived, err = meter.Int64Counter(
		"dupetable.archives.written",
		metric.WithDescription("Archives published to disk"),
		metric.WithUnit("{archive}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create archived counter: %w", err)
	}

	return t, nil
}
