// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package observability

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gogama/reqx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records the exchanges of a session as Prometheus metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with registry. If
// registry is nil, the default Prometheus registerer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqx_requests_total",
				Help: "Total number of completed exchanges by method and final status code",
			},
			[]string{"method", "status_code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reqx_request_duration_seconds",
				Help:    "Exchange duration in seconds, including redirects",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "host"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqx_request_errors_total",
				Help: "Total number of failed exchanges by error kind and transient category",
			},
			[]string{"kind", "category"},
		),
	}
}

// Install adds m to the AfterResponse and AfterError chains of g.
func (m *Metrics) Install(g *reqx.HandlerGroup) {
	g.PushBack(reqx.AfterResponse, m)
	g.PushBack(reqx.AfterError, m)
}

// Handle records e when it ends.
func (m *Metrics) Handle(evt reqx.Event, e *reqx.Exchange) {
	method := e.Request.Method
	if method == "" {
		method = "GET"
	}
	switch evt {
	case reqx.AfterResponse:
		m.duration.WithLabelValues(method, host(e.Request.URL)).Observe(e.Duration().Seconds())
		m.requests.WithLabelValues(method, strconv.Itoa(e.StatusCode())).Inc()
	case reqx.AfterError:
		m.duration.WithLabelValues(method, host(e.Request.URL)).Observe(e.Duration().Seconds())
		kind := reqx.KindRequest
		var err *reqx.Error
		if errors.As(e.Err, &err) {
			kind = err.Kind
		}
		m.errors.WithLabelValues(kind.String(), e.Category().String()).Inc()
	}
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return u.Host
}
