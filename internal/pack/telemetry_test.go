// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dupetable/dupetable/internal/catalog"
)

func TestTelemetryRecordsBuilds(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	a, err := NewAssembler(
		WithLogger(log.New(io.Discard)),
		WithMeterProvider(mp),
		WithTracerProvider(tp),
	)
	if err != nil {
		t.Fatalf("NewAssembler() error: %v", err)
	}

	ctx := context.Background()
	r := failingRenderer{inner: newTestRenderer(t), fail: map[string]bool{"bad": true}}
	b, _, err := a.Build(ctx, []catalog.ItemID{"stone", "bad", "apple"}, FormatStandard, r, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := a.WriteArchive(ctx, b, filepath.Join(t.TempDir(), "out.zip")); err != nil {
		t.Fatalf("WriteArchive() error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	want := map[string]int64{
		"dupetable.recipes.rendered": 2,
		"dupetable.recipes.failed":   1,
		"dupetable.archives.written": 1,
	}
	for name, value := range want {
		if got := counterValue(rm, name); got != value {
			t.Errorf("%s = %d, want %d", name, got, value)
		}
	}

	names := map[string]bool{}
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
	}
	for _, n := range []string{"pack.Build", "pack.WriteArchive"} {
		if !names[n] {
			t.Errorf("span %q not recorded; got %v", n, names)
		}
	}
}

func counterValue(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
