package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/yungbote/postforge-backend/pipeline"

// StartStage opens a span for one pipeline stage. Call the returned func with
// the stage error (or nil) when the stage finishes.
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline."+stage,
		trace.WithAttributes(append([]attribute.KeyValue{attribute.String("pipeline.stage", stage)}, attrs...)...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
