// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"context"
	"time"

	"github.com/gogama/reqx/transient"
)

// An Exchange represents the state of a single request sent by a
// Session. It is passed to the event handlers installed in the session.
//
// Event handlers may set values on an Exchange using its SetValue
// method and read them back using the Value method, for example to
// carry a span or timer from BeforeSend to AfterResponse. They should
// treat the exported fields as read-only, except that BeforeSend
// handlers may change the headers of Request.
type Exchange struct {
	// Request is the prepared request being sent. It is never nil.
	Request *PreparedRequest

	// Start is the time the exchange started. It is set before
	// BeforeSend fires and remains constant thereafter.
	Start time.Time

	// End is the time the exchange ended. It contains the zero value
	// until the exchange ends.
	End time.Time

	// Response is the response received. It is nil until the exchange
	// ends, and remains nil if the exchange failed before a response
	// head arrived.
	Response *Response

	// Err is the error the exchange failed with. Whenever Err is
	// non-nil, it has the type *Error.
	Err error

	data context.Context
}

// StatusCode returns the status code of the response, or 0 if there is
// no response.
func (e *Exchange) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Duration returns the duration of the exchange.
//
// If the exchange has not yet started, the duration is zero. If the
// exchange has ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Exchange) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the exchange has started.
func (e *Exchange) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the exchange has ended.
func (e *Exchange) Ended() bool {
	return e.End != (time.Time{})
}

// Category returns the transient category of Err.
func (e *Exchange) Category() transient.Category {
	return transient.Categorize(e.Err)
}

// Timeout indicates whether Err indicates a timeout.
func (e *Exchange) Timeout() bool {
	return e.Category() == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// exchange.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same exchange.
func (e *Exchange) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this exchange for key,
// or nil if there is no value associated with key.
func (e *Exchange) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
