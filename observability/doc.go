// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package observability provides event handlers which export the
// exchanges of a reqx.Session as Prometheus metrics and OpenTelemetry
// client spans.
//
//	handlers := &reqx.HandlerGroup{}
//	observability.NewMetrics(prometheus.DefaultRegisterer).Install(handlers)
//	observability.NewTracing(nil).Install(handlers)
//	s := reqx.NewSession()
//	s.Handlers = handlers
package observability
