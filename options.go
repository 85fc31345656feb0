// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"errors"

	"github.com/gogama/reqx/timeout"
	"go.uber.org/multierr"
)

// Options holds the per-call options of Session.Request and the
// package-level request functions. The zero value requests a plain
// exchange using the session defaults.
type Options struct {
	// Header, Params, Data, JSON, Cookies, Files and Auth have the
	// meaning of the same-named Request fields.
	Header  *Header
	Params  interface{}
	Data    interface{}
	JSON    interface{}
	Cookies interface{}
	Files   interface{}
	Auth    Auth

	// Proxies is not supported. Giving a non-empty map fails with
	// ErrNotImplemented.
	Proxies map[string]string

	// Cert is not supported. Giving a non-nil value fails with
	// ErrNotImplemented. Certificate verification follows the engine
	// defaults.
	Cert interface{}

	// Stream is not supported. The content is always buffered, and
	// setting Stream fails with ErrNotImplemented.
	Stream bool

	SendOptions
}

// SendOptions holds the transport options of an exchange.
type SendOptions struct {
	// Timeout, if not nil, overrides the session timeout budget. Use
	// timeout.Fixed for a single scalar timeout.
	Timeout *timeout.Budget

	// DisableRedirects stops redirects from being followed, so a 3xx
	// response is returned as is.
	DisableRedirects bool

	// MaxRedirects, if not nil, overrides the session maximum number
	// of redirects followed.
	MaxRedirects *int
}

// MaxRedirects returns a pointer to n for use in SendOptions.
func MaxRedirects(n int) *int {
	return &n
}

// Timeout returns a pointer to b for use in SendOptions.
func Timeout(b timeout.Budget) *timeout.Budget {
	return &b
}

// unsupported returns an ErrNotImplemented error naming every option
// given that the library does not support, or nil.
func (o *Options) unsupported() error {
	var err error
	if len(o.Proxies) > 0 {
		err = multierr.Append(err, errors.New("proxies not supported"))
	}
	if o.Cert != nil {
		err = multierr.Append(err, errors.New("cert not supported"))
	}
	if o.Stream {
		err = multierr.Append(err, errors.New("stream not supported"))
	}
	if o.Files != nil {
		err = multierr.Append(err, errors.New("files are not supported"))
	}
	if err == nil {
		return nil
	}

	return &Error{Kind: KindNotImplemented, Message: err.Error(), Err: err}
}
