package scan

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bingo-tracker-server/game"
	"bingo-tracker-server/gameerrors"
)

const (
	tracerName   = "bingo-tracker-server/scan"
	scanSpanName = "scan.Scan"
)

// Traced records an OpenTelemetry span around every scan.
type Traced struct {
	next   game.Scanner
	tracer trace.Tracer
}

// NewTraced wraps next using the global tracer provider.
func NewTraced(next game.Scanner) *Traced {
	return &Traced{next: next, tracer: otel.Tracer(tracerName)}
}

func (t *Traced) Scan(ctx context.Context, req game.ScanRequest) (game.ScanResult, error) {
	ctx, span := t.tracer.Start(ctx, scanSpanName, trace.WithAttributes(
		attribute.Int("scan.image_bytes", len(req.Image)),
		attribute.Bool("scan.detect_size", req.Dimensions == nil),
	))
	defer span.End()

	res, err := t.next.Scan(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.String("scan.outcome", outcomeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.String("scan.outcome", string(game.ScanSucceeded)),
		attribute.Int("scan.rows", res.Rows),
		attribute.Int("scan.cols", res.Cols),
	)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return string(game.ScanCancelled)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, new(*gameerrors.UserError)):
		return "rejected"
	default:
		return string(game.ScanErrored)
	}
}
