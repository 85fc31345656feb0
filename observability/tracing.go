// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package observability

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gogama/reqx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/gogama/reqx/observability"

type spanKey struct{}

// Tracing creates a client span for every exchange of a session and
// injects its context into the request headers.
type Tracing struct {
	// Parent is the context spans are started in. If nil,
	// context.Background() is used.
	Parent context.Context

	// Propagator injects the span context into the request headers.
	Propagator propagation.TextMapPropagator

	tracer trace.Tracer
}

// NewTracing creates a Tracing using provider. If provider is nil, the
// global tracer provider is used. The propagator is initialized to the
// global text map propagator.
func NewTracing(provider trace.TracerProvider) *Tracing {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Tracing{
		Propagator: otel.GetTextMapPropagator(),
		tracer:     provider.Tracer(instrumentationName),
	}
}

// Install adds t to every event chain of g.
func (t *Tracing) Install(g *reqx.HandlerGroup) {
	for _, evt := range reqx.Events() {
		g.PushBack(evt, t)
	}
}

// Handle starts the span on BeforeSend and ends it when the exchange
// ends.
func (t *Tracing) Handle(evt reqx.Event, e *reqx.Exchange) {
	switch evt {
	case reqx.BeforeSend:
		t.start(e)
	case reqx.AfterResponse, reqx.AfterError:
		t.end(e)
	}
}

func (t *Tracing) start(e *reqx.Exchange) {
	parent := t.Parent
	if parent == nil {
		parent = context.Background()
	}

	method := e.Request.Method
	if method == "" {
		method = "GET"
	}
	ctx, span := t.tracer.Start(parent, "HTTP "+method, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", e.Request.URL),
	)
	if u, err := url.Parse(e.Request.URL); err == nil {
		span.SetAttributes(
			attribute.String("http.scheme", u.Scheme),
			attribute.String("http.host", u.Host),
			attribute.String("http.target", e.Request.PathURL()),
		)
	}

	if t.Propagator != nil {
		t.Propagator.Inject(ctx, e.Request.Header)
	}
	e.SetValue(spanKey{}, span)
}

func (t *Tracing) end(e *reqx.Exchange) {
	span, ok := e.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}

	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	if e.Response != nil {
		span.SetAttributes(
			attribute.Int("http.status_code", e.Response.StatusCode),
			attribute.String("http.effective_url", e.Response.URL),
		)
		if e.Err == nil {
			if e.Response.StatusCode >= 400 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", e.Response.StatusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		}
	}

	span.End()
}
