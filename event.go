// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Session to extend it with custom
// functionality, such as metrics, tracing or request signing.
type Event int

const (
	// BeforeSend identifies the event that occurs after a prepared
	// request has passed validation and before it is handed to the
	// transport engine.
	//
	// When Session fires BeforeSend, the exchange's request field is
	// set to the prepared request that WILL BE sent after all
	// BeforeSend handlers have finished. Handlers may add or change
	// request headers, for example to inject a trace context.
	BeforeSend Event = iota
	// AfterResponse identifies the event that occurs after an exchange
	// has completed and its response has been built.
	//
	// When Session fires AfterResponse, the exchange's response field
	// is set and the end time has been recorded. The request URL is the
	// effective URL after redirects.
	AfterResponse
	// AfterError identifies the event that occurs after an exchange
	// has failed and the engine error has been translated.
	//
	// When Session fires AfterError, the exchange's error field is set
	// to the *Error which WILL BE returned to the caller. The response
	// field is set if one was partially received, for example on
	// ErrTooManyRedirects.
	AfterError
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeSend",
	"AfterResponse",
	"AfterError",
}

// Events returns a slice containing all events which can occur during
// an exchange, in the order in which they would occur. Only one of
// AfterResponse and AfterError occurs in a given exchange.
func Events() []Event {
	return []Event{
		BeforeSend,
		AfterResponse,
		AfterError,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
