// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package observability

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gogama/reqx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/missing" {
			w.WriteHeader(404)
		}
	}))
	defer server.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	refused := "http://" + l.Addr().String() + "/"
	require.NoError(t, l.Close())

	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	g := &reqx.HandlerGroup{}
	m.Install(g)
	s := reqx.NewSession()
	defer s.Close()
	s.Handlers = g

	_, err = s.Get(server.URL+"/ok", nil)
	require.NoError(t, err)
	_, err = s.Get(server.URL+"/ok", nil)
	require.NoError(t, err)
	_, err = s.Post(server.URL+"/missing", nil)
	require.NoError(t, err)
	_, err = s.Get(refused, nil)
	require.ErrorIs(t, err, reqx.ErrConnection)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("ConnectionError", "conn_refused")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requests))

	count, err := testutil.GatherAndCount(registry, "reqx_requests_total", "reqx_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetricsHandle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	start := time.Now()
	e := &reqx.Exchange{
		Request:  &reqx.PreparedRequest{URL: "http://example.com/"},
		Start:    start,
		End:      start.Add(time.Second),
		Response: &reqx.Response{StatusCode: 204},
	}

	m.Handle(reqx.BeforeSend, e)
	assert.Equal(t, 0, testutil.CollectAndCount(m.requests))

	m.Handle(reqx.AfterResponse, e)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "204")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	e.Err = &reqx.Error{Kind: reqx.KindReadTimeout}
	m.Handle(reqx.AfterError, e)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("ReadTimeout", "timeout")))
}

func TestNewMetricsDefaultRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	defer func() {
		prometheus.DefaultRegisterer.Unregister(m.requests)
		prometheus.DefaultRegisterer.Unregister(m.duration)
		prometheus.DefaultRegisterer.Unregister(m.errors)
	}()

	assert.NotNil(t, m.requests)
}
