// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package engine defines the transport engine consumed by package reqx:
// a reusable, stateful handle that is configured option by option, then
// performs exactly one HTTP exchange and reports the outcome through a
// header callback, a body writer and a numeric error code.
//
// The Handle interface is the capability surface. Any implementation may
// be plugged into a reqx.Session. NetHTTP is the default implementation
// and is built on net/http's Transport, with HTTP/2 support from
// golang.org/x/net/http2 and content decoding from
// github.com/klauspost/compress.
//
// Error codes use the numbering of libcurl so that callers which already
// know those numbers can interpret them directly.
package engine
