// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package reqx provides an ergonomic HTTP client whose wire transport is
delegated to a pluggable engine (see package engine).

Send a request with one of the package-level functions, which use a
single-use Session:

	resp, err := reqx.Get("https://www.example.com", nil)
	...
	resp, err := reqx.Post("https://www.example.com/form", &reqx.Options{
		Data: map[string]string{"key": "value"},
	})
	...
	resp, err := reqx.Post("https://www.example.com/api", &reqx.Options{
		JSON: map[string]interface{}{"id": 123},
	})

A Session keeps default headers, params, cookies and auth, and reuses
its engine handle, and therefore its connections, across requests:

	s := reqx.NewSession()
	defer s.Close()
	s.Header.Set("Accept", "application/json")
	s.Auth = reqx.BasicAuth("user", "pass")
	resp, err := s.Get("https://api.example.com/items", &reqx.Options{
		Params: reqx.Pairs{{"page", "2"}},
		SendOptions: reqx.SendOptions{
			Timeout: reqx.Timeout(timeout.Phased(2*time.Second, 30*time.Second)),
		},
	})

Every failure is an *Error whose Kind places it in a small taxonomy.
Test it with errors.Is and the sentinel errors, which respect the kind
hierarchy:

	if errors.Is(err, reqx.ErrTimeout) {
		// ConnectTimeout or ReadTimeout.
	}

Only a successful exchange returns a Response. Its content is buffered
in full and can be read whole with Content, Text and JSON, or
incrementally with IterContent, IterText and IterLines. A 4xx or 5xx
status is not an error unless Response.RaiseForStatus is called.

To hook into the exchanges of a session, for example to record metrics
or traces (see package observability), install handlers in a
HandlerGroup:

	handlers := &reqx.HandlerGroup{}
	handlers.PushBack(reqx.AfterResponse, reqx.HandlerFunc(
		func(_ reqx.Event, e *reqx.Exchange) {
			log.Printf("%s %s: %d in %s", e.Request.Method, e.Request.URL,
				e.StatusCode(), e.Duration())
		}),
	)
	s.Handlers = handlers
*/
package reqx
