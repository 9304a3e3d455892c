package model

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "prompteval.model"

// Trace records one span per provider attempt. A nil provider uses the global
// TracerProvider.
func Trace(tp oteltrace.TracerProvider) Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			ctx, span := tracer.Start(ctx, "generate", oteltrace.WithAttributes(
				attribute.String("gen_ai.request.model", req.Model),
				attribute.Int("prompteval.input_chars", len(req.Input)),
			))
			defer span.End()

			resp, err := next.Call(ctx, req)
			if err != nil {
				span.AddEvent("exception", oteltrace.WithAttributes(
					attribute.String("exception.type", Kind(err)),
					attribute.String("exception.message", err.Error()),
				))
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			if resp != nil {
				span.SetAttributes(attribute.Int("prompteval.output_parts", len(resp.Parts)))
			}
			return resp, nil
		})
	}
}
