// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

// Sender is the interface that wraps the basic Send method.
//
// Send sends a prepared request and returns the response (and error, if
// any). Session implements the Sender interface, and any other Sender
// implementation must behave substantially the same as Session.Send.
type Sender interface {
	Send(p *PreparedRequest, opts *SendOptions) (*Response, error)
}

// Requester is the interface that wraps the basic Request method.
//
// Request prepares a request from a method, URL and per-call options,
// sends it, and returns the response (and error, if any). Session
// implements the Requester interface.
type Requester interface {
	Request(method, url string, opts *Options) (*Response, error)
}

// Getter is the interface that wraps the basic Get method.
type Getter interface {
	Get(url string, opts *Options) (*Response, error)
}

// Poster is the interface that wraps the basic Post method.
type Poster interface {
	Post(url string, opts *Options) (*Response, error)
}

// Closer is the interface that wraps the basic Close method, which
// releases the engine handle held by a Session.
type Closer interface {
	Close() error
}

// Executor is the interface that groups every method of Session.
//
// Code which only sends requests should depend on Executor, or on the
// smallest of the basic interfaces it needs, rather than on *Session,
// so that it can be tested with a fake.
type Executor interface {
	Sender
	Requester
	Getter
	Poster
	Closer
	Head(url string, opts *Options) (*Response, error)
	Options(url string, opts *Options) (*Response, error)
	Put(url string, opts *Options) (*Response, error)
	Patch(url string, opts *Options) (*Response, error)
	Delete(url string, opts *Options) (*Response, error)
	PrepareRequest(r *Request) (*PreparedRequest, error)
}

var _ Executor = (*Session)(nil)
