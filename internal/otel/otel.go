// Package otel wires OpenTelemetry tracing to the event bus. Planner
// and generator runs become spans without those packages importing
// any telemetry API.
package otel

import (
	"context"
	"strings"
	"sync"

	eventbus "github.com/hanpama/fieldplan/internal/eventbus"
	events "github.com/hanpama/fieldplan/internal/events"
	reqid "github.com/hanpama/fieldplan/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("fieldplan")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer trace.Tracer
	spans  sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "fieldplan.plan")
		span.SetAttributes(
			attribute.String("fieldplan.resource", e.Resource),
			attribute.String("fieldplan.action", e.Action),
		)
		s.spans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		s.finish(ctx, e.Err)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.GenerateStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "fieldplan.generate")
		span.SetAttributes(
			attribute.String("fieldplan.roots", strings.Join(e.Roots, ",")),
		)
		s.spans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.GenerateFinish) {
		s.finish(ctx, e.Err)
	})
}

func (s *subscriber) finish(ctx context.Context, err error) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.spans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
