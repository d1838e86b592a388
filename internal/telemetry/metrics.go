// Package telemetry records metrics and traces of expression evaluations
// through OpenTelemetry.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zephyrtronium/calculator"
)

// Instrument names.
const (
	MetricEvaluations = "calculator.evaluations"
	MetricLatency     = "calculator.latency_ms"
	MetricErrors      = "calculator.errors"
)

// Recorder records evaluation metrics.
// Use NewRecorder for OTel metrics or Noop when disabled.
type Recorder interface {
	// RecordEvaluation records one evaluation at a precision, with its
	// duration and error, if any.
	RecordEvaluation(ctx context.Context, prec uint, duration time.Duration, err error)
}

type otelRecorder struct {
	evaluations metric.Int64Counter
	latency     metric.Float64Histogram
	errors      metric.Int64Counter
}

func newOtelRecorder() (*otelRecorder, error) {
	meter := otel.Meter("calculator")

	evaluations, err := meter.Int64Counter(MetricEvaluations,
		metric.WithDescription("Number of expressions evaluated"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(MetricLatency,
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Number of failed evaluations by error kind"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{evaluations: evaluations, latency: latency, errors: errs}, nil
}

// NewRecorder returns a Recorder using the global OTel meter provider. If
// the instruments cannot be created, it logs a warning and returns Noop.
func NewRecorder() Recorder {
	r, err := newOtelRecorder()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return Noop{}
	}
	return r
}

func (r *otelRecorder) RecordEvaluation(ctx context.Context, prec uint, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", err == nil),
		attribute.Int("precision", int(prec)),
	)
	r.evaluations.Add(ctx, 1, attrs)
	r.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		r.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kindOf(err))))
	}
}

// kindOf names the kind of an evaluation error for metric attributes.
func kindOf(err error) string {
	if k := calculator.ErrorKind(err); k != "" {
		return k
	}
	return "other"
}

// Noop is a Recorder and SpanManager that does nothing.
type Noop struct{}

var _ Recorder = Noop{}

// RecordEvaluation does nothing.
func (Noop) RecordEvaluation(context.Context, uint, time.Duration, error) {}
