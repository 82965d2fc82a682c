// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// DispatchHook observes every command the dispatcher invokes, modeled on
// Query-farm-vgi-rpc-go/vgirpc/hooks.go's DispatchHook/HookToken pair. It
// is the ambient observability seam the distilled spec leaves unspecified.
type DispatchHook interface {
	// OnDispatch is called just before a command's handler runs. It may
	// return a derived context (e.g. one carrying a span) and a token
	// whose End must be called exactly once when the call finishes.
	OnDispatch(ctx context.Context, service, command string) (context.Context, HookToken)
}

// HookToken closes out one dispatch observed by a DispatchHook.
type HookToken interface {
	End(err error)
}

type noopHook struct{}

func (noopHook) OnDispatch(ctx context.Context, service, command string) (context.Context, HookToken) {
	return ctx, noopToken{}
}

type noopToken struct{}

func (noopToken) End(error) {}

// otelHook is a DispatchHook that wraps every call in an OpenTelemetry
// span named "service.command", exported via stdouttrace for local
// debugging, enabled with WithTracing(true).
type otelHook struct {
	tracer trace.Tracer
	tp     *sdktrace.TracerProvider
}

func newOTelHook() (*otelHook, error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	return &otelHook{tracer: tp.Tracer("wirerpc"), tp: tp}, nil
}

func (h *otelHook) OnDispatch(ctx context.Context, service, command string) (context.Context, HookToken) {
	ctx, span := h.tracer.Start(ctx, service+"."+command,
		trace.WithAttributes(
			attribute.String("wirerpc.service", service),
			attribute.String("wirerpc.command", command),
		))
	return ctx, otelToken{span: span}
}

func (h *otelHook) shutdown(ctx context.Context) error {
	return h.tp.Shutdown(ctx)
}

type otelToken struct {
	span trace.Span
}

func (t otelToken) End(err error) {
	if err != nil {
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, err.Error())
	}
	t.span.End()
}
