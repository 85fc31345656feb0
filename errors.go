// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"errors"
	"fmt"

	"github.com/gogama/reqx/engine"
)

// A Kind classifies an Error. Kinds form a small hierarchy which
// errors.Is follows: every kind is a KindRequest; KindSSL, KindProxy
// and KindConnectTimeout are also KindConnection; and
// KindConnectTimeout and KindReadTimeout are also KindTimeout.
type Kind int

const (
	// KindRequest is the base of all kinds. Errors reported with
	// exactly this kind failed in a way no more specific kind covers.
	KindRequest Kind = iota
	// KindMissingSchema means the URL lacks a scheme.
	KindMissingSchema
	// KindInvalidSchema means the URL scheme is malformed or the
	// transport engine does not support it.
	KindInvalidSchema
	// KindInvalidURL means the URL is malformed beyond its scheme.
	KindInvalidURL
	// KindConnection means the connection could not be established,
	// for example because the name could not be resolved or the remote
	// host refused the connection.
	KindConnection
	// KindSSL means the TLS handshake or certificate verification
	// failed.
	KindSSL
	// KindProxy means the proxy could not be resolved or connected to.
	KindProxy
	// KindTimeout means a timeout budget expired.
	KindTimeout
	// KindConnectTimeout means the connect budget expired before a
	// connection was established.
	KindConnectTimeout
	// KindReadTimeout means the budget expired after a connection was
	// established.
	KindReadTimeout
	// KindTooManyRedirects means more redirects were needed than the
	// maximum allowed. The last redirect response is attached.
	KindTooManyRedirects
	// KindHTTP is reported only by Response.RaiseForStatus.
	KindHTTP
	// KindNotImplemented means an option the library does not support
	// was given.
	KindNotImplemented
)

var kindNames = []string{
	"RequestException",
	"MissingSchema",
	"InvalidSchema",
	"InvalidURL",
	"ConnectionError",
	"SSLError",
	"ProxyError",
	"Timeout",
	"ConnectTimeout",
	"ReadTimeout",
	"TooManyRedirects",
	"HTTPError",
	"NotImplemented",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// parents lists the direct parents of each kind other than KindRequest,
// which is implicitly the parent of all.
var parents = map[Kind][]Kind{
	KindSSL:            {KindConnection},
	KindProxy:          {KindConnection},
	KindConnectTimeout: {KindConnection, KindTimeout},
	KindReadTimeout:    {KindTimeout},
}

// Is reports whether kind k is the same as, or a descendant of, kind
// ancestor.
func (k Kind) Is(ancestor Kind) bool {
	if k == ancestor || ancestor == KindRequest {
		return true
	}

	for _, p := range parents[k] {
		if p.Is(ancestor) {
			return true
		}
	}

	return false
}

// An Error is the error returned for every failure in this package.
//
// Errors translated from a transport engine failure carry the engine's
// numeric Code and Message. Request is the prepared request being sent
// when the error occurred, if there was one, and Response is the partial
// response, if one was built. For example an error of KindTooManyRedirects
// carries the last redirect response received.
type Error struct {
	Kind     Kind
	Code     engine.Code
	Message  string
	Request  *PreparedRequest
	Response *Response
	Err      error
}

func (err *Error) Error() string {
	if err.Code != engine.OK {
		return fmt.Sprintf("reqx: %s: (%d) %s", err.Kind, int(err.Code), err.Message)
	}

	return fmt.Sprintf("reqx: %s: %s", err.Kind, err.Message)
}

// Unwrap returns the underlying cause, which is an *engine.Error for
// errors translated from an engine failure.
func (err *Error) Unwrap() error {
	return err.Err
}

// Is reports whether err matches target. Any *Error matches the
// sentinel of its own kind and of every ancestor kind, so
// errors.Is(err, ErrConnection) is true for an SSL failure.
func (err *Error) Is(target error) bool {
	s, ok := target.(sentinel)
	return ok && err.Kind.Is(Kind(s))
}

// Timeout reports whether the error is a KindTimeout or descendant.
func (err *Error) Timeout() bool {
	return err.Kind.Is(KindTimeout)
}

type sentinel Kind

func (s sentinel) Error() string {
	return "reqx: " + Kind(s).String()
}

// Sentinel errors for use with errors.Is.
var (
	ErrRequest          error = sentinel(KindRequest)
	ErrMissingSchema    error = sentinel(KindMissingSchema)
	ErrInvalidSchema    error = sentinel(KindInvalidSchema)
	ErrInvalidURL       error = sentinel(KindInvalidURL)
	ErrConnection       error = sentinel(KindConnection)
	ErrSSL              error = sentinel(KindSSL)
	ErrProxy            error = sentinel(KindProxy)
	ErrTimeout          error = sentinel(KindTimeout)
	ErrConnectTimeout   error = sentinel(KindConnectTimeout)
	ErrReadTimeout      error = sentinel(KindReadTimeout)
	ErrTooManyRedirects error = sentinel(KindTooManyRedirects)
	ErrHTTP             error = sentinel(KindHTTP)
	ErrNotImplemented   error = sentinel(KindNotImplemented)
)

// ErrSessionClosed is the cause of the error returned when a Session
// is used after Close.
var ErrSessionClosed = errors.New("session is closed")

func newError(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// codeKinds maps engine codes to error kinds. OperationTimedout is
// resolved separately because the phase decides between the two
// timeout kinds.
var codeKinds = map[engine.Code]Kind{
	engine.UnsupportedProtocol:     KindConnection,
	engine.URLMalformat:            KindInvalidURL,
	engine.CouldntResolveProxy:     KindProxy,
	engine.CouldntResolveHost:      KindConnection,
	engine.CouldntConnect:          KindConnection,
	engine.SSLConnectError:         KindSSL,
	engine.InterfaceFailed:         KindConnection,
	engine.TooManyRedirects:        KindTooManyRedirects,
	engine.GotNothing:              KindConnection,
	engine.PeerFailedVerification:  KindSSL,
	engine.SSLIssuerError:          KindSSL,
	engine.SSLPinnedPubKeyNotMatch: KindSSL,
	engine.SSLInvalidCertStatus:    KindSSL,
}

func kindOf(code engine.Code, connected bool) Kind {
	if code == engine.OperationTimedout {
		if connected {
			return KindReadTimeout
		}
		return KindConnectTimeout
	}

	if k, ok := codeKinds[code]; ok {
		return k
	}

	return KindRequest
}
