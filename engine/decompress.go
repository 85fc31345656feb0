// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// acceptEncoding is the Accept-Encoding value sent when automatic
// decompression is enabled.
const acceptEncoding = "gzip, deflate, zstd"

var errUnsupportedEncoding = errors.New("unsupported content encoding")

// decoder wraps r so that reading from it yields the body decoded
// according to the comma-separated Content-Encoding value ce. Encodings
// are removed in the reverse of the order in which they were applied.
func decoder(r io.Reader, ce string) (io.ReadCloser, error) {
	rc := io.NopCloser(r)
	if ce == "" {
		return rc, nil
	}

	codings := strings.Split(ce, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		next, err := decodeOne(rc, coding)
		if err != nil {
			return nil, err
		}
		rc = next
	}

	return rc, nil
}

func decodeOne(r io.ReadCloser, coding string) (io.ReadCloser, error) {
	switch coding {
	case "", "identity":
		return r, nil
	}

	// An empty encoded body is passed through unchanged: HEAD-like
	// responses and 204/304 responses may carry Content-Encoding
	// without any content.
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err == io.EOF {
		return stack{br, r}, nil
	}

	switch coding {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return stack{zr, r}, nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw
		// DEFLATE data. The zlib header is tried first.
		hdr, _ := br.Peek(2)
		if len(hdr) == 2 && hdr[0]&0x0f == 8 && (uint16(hdr[0])<<8|uint16(hdr[1]))%31 == 0 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, err
			}
			return stack{zr, r}, nil
		}
		return stack{flate.NewReader(br), r}, nil
	case "zstd":
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return stack{zr.IOReadCloser(), r}, nil
	default:
		return nil, errUnsupportedEncoding
	}
}

// stack reads from a decoding reader and closes the decoding reader
// before the reader beneath it.
type stack struct {
	io.Reader
	under io.Closer
}

func (s stack) Close() error {
	var err error
	if c, ok := s.Reader.(io.Closer); ok {
		err = c.Close()
	}
	if err2 := s.under.Close(); err == nil {
		err = err2
	}
	return err
}

// decodeError marks errors produced while decoding content so they can
// be reported as BadContentEncoding rather than as receive failures.
type decodeError struct {
	err error
}

func (err decodeError) Error() string { return err.err.Error() }

func (err decodeError) Unwrap() error { return err.err }

// decodingReader tags non-EOF errors from the decoder, while errors
// from the underlying network reader keep their own identity.
type decodingReader struct {
	dec io.ReadCloser
	net *trackingReader
}

func (r *decodingReader) Read(p []byte) (int, error) {
	n, err := r.dec.Read(p)
	if err != nil && err != io.EOF && r.net.err == nil {
		err = decodeError{err}
	}
	return n, err
}

func (r *decodingReader) Close() error {
	return r.dec.Close()
}

// trackingReader records the first error returned by the network body.
type trackingReader struct {
	r   io.Reader
	err error
}

func (r *trackingReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}
