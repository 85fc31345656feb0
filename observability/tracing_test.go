// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package observability

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gogama/reqx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	testTraceID = trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	testSpanID  = trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7}
)

type recordingSpan struct {
	noop.Span

	name  string
	kind  trace.SpanKind
	sc    trace.SpanContext
	attrs map[attribute.Key]attribute.Value
	code  codes.Code
	desc  string
	errs  []error
	ended bool
}

func (s *recordingSpan) SpanContext() trace.SpanContext { return s.sc }
func (s *recordingSpan) IsRecording() bool              { return !s.ended }
func (s *recordingSpan) End(...trace.SpanEndOption)     { s.ended = true }

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordingSpan) SetStatus(code codes.Code, desc string) {
	s.code, s.desc = code, desc
}

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

type recordingTracer struct {
	noop.Tracer

	mu    sync.Mutex
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	traceID := testTraceID
	if parent := trace.SpanContextFromContext(ctx); parent.IsValid() {
		traceID = parent.TraceID()
	}
	s := &recordingSpan{
		name:  name,
		kind:  cfg.SpanKind(),
		attrs: make(map[attribute.Key]attribute.Value),
		sc: trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     testSpanID,
			TraceFlags: trace.FlagsSampled,
		}),
	}

	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()

	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	noop.TracerProvider

	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

// lastHeader holds the last header value a test server saw.
type lastHeader struct {
	mu    sync.Mutex
	value string
}

func (h *lastHeader) set(v string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = v
}

func (h *lastHeader) get() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func newTracingSession(t *testing.T) (*reqx.Session, *recordingTracer) {
	tracer := &recordingTracer{}
	tr := NewTracing(&recordingProvider{tracer: tracer})
	tr.Propagator = propagation.TraceContext{}
	g := &reqx.HandlerGroup{}
	tr.Install(g)

	s := reqx.NewSession()
	s.Handlers = g
	t.Cleanup(func() { _ = s.Close() })

	return s, tracer
}

func TestTracing(t *testing.T) {
	var seen lastHeader
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen.set(req.Header.Get("Traceparent"))
		if req.URL.Path == "/missing" {
			w.WriteHeader(404)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		s, tracer := newTracingSession(t)

		resp, err := s.Get(server.URL+"/ok?x=1", nil)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		require.Len(t, tracer.spans, 1)
		span := tracer.spans[0]
		assert.Equal(t, "HTTP GET", span.name)
		assert.Equal(t, trace.SpanKindClient, span.kind)
		assert.True(t, span.ended)
		assert.Equal(t, codes.Ok, span.code)
		assert.Equal(t, "GET", span.attrs["http.method"].AsString())
		assert.Equal(t, "/ok?x=1", span.attrs["http.target"].AsString())
		assert.Equal(t, "http", span.attrs["http.scheme"].AsString())
		assert.Equal(t, int64(200), span.attrs["http.status_code"].AsInt64())
		assert.Equal(t, "00-"+testTraceID.String()+"-"+testSpanID.String()+"-01", seen.get())
		assert.Equal(t, seen.get(), resp.Request.Header.Get("traceparent"))
	})
	t.Run("parent", func(t *testing.T) {
		tracer := &recordingTracer{}
		parentTraceID := trace.TraceID{0x01, 0x02, 0x03}
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    parentTraceID,
			SpanID:     trace.SpanID{0x09},
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		tr := NewTracing(&recordingProvider{tracer: tracer})
		tr.Propagator = propagation.TraceContext{}
		tr.Parent = trace.ContextWithRemoteSpanContext(context.Background(), sc)
		g := &reqx.HandlerGroup{}
		tr.Install(g)
		s := reqx.NewSession()
		defer s.Close()
		s.Handlers = g

		_, err := s.Post(server.URL+"/ok", &reqx.Options{Data: "x"})

		require.NoError(t, err)
		require.Len(t, tracer.spans, 1)
		assert.Equal(t, "HTTP POST", tracer.spans[0].name)
		assert.Contains(t, seen.get(), parentTraceID.String())
	})
	t.Run("error status", func(t *testing.T) {
		s, tracer := newTracingSession(t)

		resp, err := s.Get(server.URL+"/missing", nil)

		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		require.Len(t, tracer.spans, 1)
		assert.Equal(t, codes.Error, tracer.spans[0].code)
		assert.Equal(t, "HTTP 404", tracer.spans[0].desc)
		assert.Empty(t, tracer.spans[0].errs)
	})
	t.Run("failed exchange", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := l.Addr().String()
		require.NoError(t, l.Close())
		s, tracer := newTracingSession(t)

		_, err = s.Get("http://"+addr+"/", nil)

		require.Error(t, err)
		require.Len(t, tracer.spans, 1)
		span := tracer.spans[0]
		assert.True(t, span.ended)
		assert.Equal(t, codes.Error, span.code)
		require.Len(t, span.errs, 1)
		assert.ErrorIs(t, span.errs[0], reqx.ErrConnection)
		_, ok := span.attrs["http.status_code"]
		assert.False(t, ok)
	})
	t.Run("no propagator", func(t *testing.T) {
		tracer := &recordingTracer{}
		tr := NewTracing(&recordingProvider{tracer: tracer})
		tr.Propagator = nil
		g := &reqx.HandlerGroup{}
		tr.Install(g)
		s := reqx.NewSession()
		defer s.Close()
		s.Handlers = g

		_, err := s.Get(server.URL+"/ok", nil)

		require.NoError(t, err)
		assert.Equal(t, "", seen.get())
		require.Len(t, tracer.spans, 1)
		assert.True(t, tracer.spans[0].ended)
	})
	t.Run("prepared request unchanged", func(t *testing.T) {
		s, tracer := newTracingSession(t)
		p, err := (&reqx.Request{Method: "GET", URL: server.URL + "/ok"}).Prepare()
		require.NoError(t, err)
		before := p.Header.String()

		resp, err := s.Send(p, nil)

		require.NoError(t, err)
		require.Len(t, tracer.spans, 1)
		assert.Equal(t, before, p.Header.String())
		assert.False(t, p.Header.Has("Traceparent"))
		assert.NotEmpty(t, seen.get())
		assert.Equal(t, seen.get(), resp.Request.Header.Get("Traceparent"))
	})
}

func TestNewTracingDefaults(t *testing.T) {
	tr := NewTracing(nil)
	assert.NotNil(t, tr.tracer)
	assert.NotNil(t, tr.Propagator)
}
