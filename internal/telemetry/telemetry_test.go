package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zephyrtronium/calculator"
)

// setupStats installs an in-memory meter provider and returns a function to
// restore the original.
func setupStats(t *testing.T) (*Stats, func()) {
	original := otel.GetMeterProvider()
	stats := NewStats()
	stats.Install()
	return stats, func() {
		otel.SetMeterProvider(original)
		if err := stats.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}
}

// setupTracing installs a tracer provider exporting to memory.
func setupTracing(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("calculator")
	return exporter, func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("calculator")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}
}

func TestNewRecorder(t *testing.T) {
	_, cleanup := setupStats(t)
	defer cleanup()

	r := NewRecorder()
	require.NotNil(t, r)
	_, isNoop := r.(Noop)
	assert.False(t, isNoop, "Expected real recorder, got noop")
}

func TestRecordEvaluation(t *testing.T) {
	stats, cleanup := setupStats(t)
	defer cleanup()

	r, err := newOtelRecorder()
	require.NoError(t, err)

	ctx := context.Background()
	_, domErr := calculator.EvalString("sqrt(-1)")
	require.Error(t, domErr)
	r.RecordEvaluation(ctx, 64, 2*time.Millisecond, nil)
	r.RecordEvaluation(ctx, 64, 4*time.Millisecond, fmt.Errorf("line 1: %w", domErr))
	r.RecordEvaluation(ctx, 128, 6*time.Millisecond, errors.New("broken"))

	sum, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Evaluations)
	assert.Equal(t, int64(2), sum.Failures)
	assert.Equal(t, map[string]int64{"domain": 1, "other": 1}, sum.ByKind)
	assert.InDelta(t, 4.0, sum.MeanLatency, 1e-9)
}

func TestSummaryEmpty(t *testing.T) {
	stats, cleanup := setupStats(t)
	defer cleanup()

	sum, err := stats.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Evaluations)
	assert.Zero(t, sum.MeanLatency)
	assert.Equal(t, "0 evaluations, 0 failed; mean latency 0.000 ms", sum.String())
}

func TestSummaryString(t *testing.T) {
	s := Summary{
		Evaluations: 10,
		Failures:    3,
		ByKind:      map[string]int64{"syntax": 2, "arity": 1},
		MeanLatency: 0.25,
	}
	assert.Equal(t, "10 evaluations, 3 failed (arity: 1, syntax: 2); mean latency 0.250 ms", s.String())
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var n Noop
	n.RecordEvaluation(ctx, 64, time.Second, errors.New("ignored"))
	got, span := n.StartEval(ctx, "session", "1+1", 64)
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())
	n.End(span, nil)
}

func TestSpans(t *testing.T) {
	exporter, cleanup := setupTracing(t)
	defer cleanup()

	m := NewSpanManager()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		exporter.Reset()
		_, span := m.StartEval(ctx, "abc", "1+2", 64)
		m.End(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		s := spans[0]
		assert.Equal(t, "calculator.eval", s.Name)
		assert.Equal(t, codes.Ok, s.Status.Code)
		assert.Contains(t, s.Attributes, attribute.String("session.id", "abc"))
		assert.Contains(t, s.Attributes, attribute.String("expression", "1+2"))
		assert.Contains(t, s.Attributes, attribute.Int("precision", 64))
	})

	t.Run("error", func(t *testing.T) {
		exporter.Reset()
		_, err := calculator.EvalString("1 + sqrt(-4)")
		require.Error(t, err)
		_, span := m.StartEval(ctx, "abc", "1 + sqrt(-4)", 64)
		m.End(span, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		s := spans[0]
		assert.Equal(t, codes.Error, s.Status.Code)
		assert.Equal(t, err.Error(), s.Status.Description)
		assert.Contains(t, s.Attributes, attribute.String("error.kind", "domain"))
		assert.Contains(t, s.Attributes, attribute.Int("error.pos", 5))
		require.Len(t, s.Events, 1)
		assert.Equal(t, "exception", s.Events[0].Name)
	})

	t.Run("nil span", func(t *testing.T) {
		assert.NotPanics(t, func() { m.End(nil, errors.New("x")) })
	})
}
