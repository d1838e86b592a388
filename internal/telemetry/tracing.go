package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zephyrtronium/calculator"
)

var tracer = otel.Tracer("calculator")

// SpanManager handles the spans of evaluations.
// Use NewSpanManager for OTel tracing or Noop when disabled.
type SpanManager interface {
	// StartEval starts a span for evaluating one expression.
	StartEval(ctx context.Context, session, expr string, prec uint) (context.Context, trace.Span)
	// End completes a span, recording err if it is not nil.
	End(span trace.Span, err error)
}

type otelSpans struct{}

// NewSpanManager returns a SpanManager using the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return otelSpans{}
}

func (otelSpans) StartEval(ctx context.Context, session, expr string, prec uint) (context.Context, trace.Span) {
	return tracer.Start(ctx, "calculator.eval",
		trace.WithAttributes(
			attribute.String("session.id", session),
			attribute.String("expression", expr),
			attribute.Int("precision", int(prec)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (otelSpans) End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", kindOf(err)))
		var ierr calculator.InputError
		if errors.As(err, &ierr) {
			span.SetAttributes(attribute.Int("error.pos", ierr.Pos()))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

var _ SpanManager = Noop{}

// StartEval returns ctx and the span already in it, which is a no-op span
// unless the caller started one.
func (Noop) StartEval(ctx context.Context, _, _ string, _ uint) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

// End does nothing.
func (Noop) End(trace.Span, error) {}
