package telemetry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Stats keeps the metrics of the process in memory so that they can be
// summarized on exit.
type Stats struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewStats creates an in-memory meter provider.
func NewStats() *Stats {
	reader := sdkmetric.NewManualReader()
	return &Stats{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Install makes s the global meter provider. Recorders created afterward
// report to it.
func (s *Stats) Install() {
	otel.SetMeterProvider(s.provider)
}

// Shutdown stops the meter provider.
func (s *Stats) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

// Summary is a digest of the evaluation metrics.
type Summary struct {
	Evaluations int64
	Failures    int64
	// ByKind counts failures by error kind.
	ByKind map[string]int64
	// MeanLatency is the mean evaluation latency in milliseconds.
	MeanLatency float64
}

// Summary collects the metrics recorded so far.
func (s *Stats) Summary(ctx context.Context) (Summary, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return Summary{}, fmt.Errorf("collect metrics: %w", err)
	}
	sum := Summary{ByKind: make(map[string]int64)}
	var (
		count uint64
		total float64
	)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					switch m.Name {
					case MetricEvaluations:
						sum.Evaluations += dp.Value
						if v, ok := dp.Attributes.Value("success"); ok && !v.AsBool() {
							sum.Failures += dp.Value
						}
					case MetricErrors:
						sum.ByKind[stringAttr(dp.Attributes, "kind")] += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				if m.Name != MetricLatency {
					continue
				}
				for _, dp := range data.DataPoints {
					count += dp.Count
					total += dp.Sum
				}
			}
		}
	}
	if count > 0 {
		sum.MeanLatency = total / float64(count)
	}
	return sum, nil
}

func stringAttr(set attribute.Set, key attribute.Key) string {
	v, ok := set.Value(key)
	if !ok {
		return ""
	}
	return v.AsString()
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d evaluations, %d failed", s.Evaluations, s.Failures)
	if len(s.ByKind) > 0 {
		b.WriteString(" (")
		for i, k := range slices.Sorted(maps.Keys(s.ByKind)) {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %d", k, s.ByKind[k])
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, "; mean latency %.3f ms", s.MeanLatency)
	return b.String()
}
