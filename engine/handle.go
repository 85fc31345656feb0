// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"io"
	"time"
)

// A Handle is a reusable, stateful transport engine handle.
//
// Options are set one by one and persist across Perform calls until
// Reset is called. Perform runs a single HTTP exchange synchronously,
// following redirects if so configured. After Perform returns, the
// StatusCode, EffectiveURL and ConnectTime accessors describe the last
// response received (or the lack of one).
//
// A Handle is not safe for concurrent use by multiple goroutines.
type Handle interface {
	// Protocols returns the URL schemes the engine can perform, in
	// lower case.
	Protocols() []string

	// Reset restores every option to its default. Connection pools
	// and other caches owned by the handle are kept.
	Reset()

	// SetURL sets the absolute URL of the request.
	SetURL(u string)
	// SetMethod sets the request method. An empty method means GET,
	// or HEAD when SetNoBody(true) is in effect.
	SetMethod(method string)
	// SetNoBody requests that no response body be transferred.
	SetNoBody(noBody bool)
	// SetHeaderLines sets the request header lines. Each line must have
	// the form "Name: value". A line of the form "Name:" with nothing
	// after the colon suppresses a header the engine would otherwise
	// send by default, and "Name;" sends the header with an empty
	// value.
	SetHeaderLines(lines [][]byte)
	// SetAutoDecompress controls whether the engine advertises the
	// content encodings it supports and transparently decodes the
	// response body.
	SetAutoDecompress(enabled bool)
	// SetBody sets the request body source. A nil reader means no body.
	SetBody(r io.Reader)
	// SetBodyLength sets the exact length of the request body in bytes.
	// A negative length means the length is unknown and the body is
	// sent with chunked transfer encoding.
	SetBodyLength(n int64)
	// SetTimeouts sets the connect and total transfer timeouts. A zero
	// value means no limit.
	SetTimeouts(connect, read time.Duration)
	// SetRedirects sets the redirect policy.
	SetRedirects(p RedirectPolicy)
	// SetAuth sets credentials for authentication schemes the engine
	// implements natively. A nil value disables native authentication.
	SetAuth(a *Auth)
	// SetHeaderFunc sets the function receiving each response header
	// line, including the status line and the empty CRLF line ending
	// each response head. Lines include their line terminator.
	SetHeaderFunc(f func(line []byte))
	// SetWriter sets the destination of the final response body. A nil
	// writer discards the body.
	SetWriter(w io.Writer)
	// SetDebugFunc sets the function receiving diagnostic text and the
	// header lines sent and received.
	SetDebugFunc(f func(kind DebugKind, data []byte))

	// Perform runs the exchange. The returned error, if any, is an
	// *Error.
	Perform() error

	// StatusCode returns the status code of the last response received
	// by Perform, or zero if there was none.
	StatusCode() int
	// EffectiveURL returns the URL of the last request made by Perform.
	EffectiveURL() string
	// ConnectTime returns the time it took to obtain a connection for
	// the last request, or zero if no connection was obtained.
	ConnectTime() time.Duration

	// Close releases the handle's resources. The handle must not be
	// used after Close.
	Close() error
}

// A RedirectPolicy controls redirect following.
type RedirectPolicy struct {
	// Follow enables following of 3xx responses carrying a Location
	// header.
	Follow bool
	// Max is the maximum number of redirects followed. A negative value
	// means there is no limit.
	Max int
	// KeepPost keeps the POST method (and body) when following 301, 302
	// and 303 redirects instead of switching to GET.
	KeepPost bool
}

// An AuthScheme identifies a natively implemented authentication scheme.
type AuthScheme int

const (
	// AuthBasic sends RFC 7617 Basic credentials preemptively.
	AuthBasic AuthScheme = iota
	// AuthDigest answers an RFC 7616 Digest challenge.
	AuthDigest
)

var authSchemeNames = []string{"Basic", "Digest"}

// String returns the scheme name as it appears in an Authorization
// header.
func (s AuthScheme) String() string {
	if int(s) < len(authSchemeNames) {
		return authSchemeNames[s]
	}

	return "AuthScheme(?)"
}

// Auth holds credentials for native authentication.
type Auth struct {
	Scheme   AuthScheme
	Username string
	Password string
}

// A DebugKind classifies data passed to a debug function.
type DebugKind int

const (
	// DebugText is informational text.
	DebugText DebugKind = iota
	// DebugHeaderOut is an outgoing request header line.
	DebugHeaderOut
	// DebugHeaderIn is an incoming response header line.
	DebugHeaderIn
)

var debugKindNames = []string{"text", "out", "in"}

func (k DebugKind) String() string {
	if int(k) < len(debugKindNames) {
		return debugKindNames[k]
	}

	return "?"
}
