// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strconv"
	"unicode/utf8"
)

// prepareBody sets p.Body from data or, if data is nil, from j.
//
// Data may be:
//
// • []byte or string, sent as is;
//
// • an io.Reader, sent as is (the caller keeps ownership and must
// close it, if necessary, after the exchange);
//
// • an iter.Seq[[]byte] generator, sent with chunked framing;
//
// • Pairs, []Pair, url.Values, map[string][]string or map[string]string,
// form-urlencoded with Content-Type application/x-www-form-urlencoded
// unless a Content-Type was set.
//
// If data is nil and j is not, j is serialized as ASCII-safe JSON and
// Content-Type application/json is set unless a Content-Type was set.
// Data wins when both are given.
func (p *PreparedRequest) prepareBody(data, files, j interface{}) error {
	if files != nil {
		return newError(KindNotImplemented, "files are not supported")
	}

	var body interface{}
	switch {
	case data != nil:
		switch d := data.(type) {
		case []byte:
			body = d
		case string:
			body = []byte(d)
		case iter.Seq[[]byte]:
			body = d
		case func(func([]byte) bool):
			body = iter.Seq[[]byte](d)
		case io.Reader:
			body = d
		case Pairs, []Pair, url.Values, map[string][]string, map[string]string:
			pairs, _ := toPairs(d)
			p.setHeaderDefault("Content-Type", "application/x-www-form-urlencoded")
			body = []byte(pairs.Encode())
		default:
			return newError(KindRequest, "unsupported data type %T", data)
		}
	case j != nil:
		b, err := marshalJSON(j)
		if err != nil {
			return &Error{Kind: KindRequest, Message: fmt.Sprintf("cannot encode json: %s", err), Err: err}
		}
		p.setHeaderDefault("Content-Type", "application/json")
		body = b
	}

	if !p.Header.Has("Content-Length") {
		p.prepareContentLength(body)
	}
	p.Body = body

	return nil
}

func (p *PreparedRequest) setHeaderDefault(name, value string) {
	if !p.Header.Has(name) {
		p.Header.Set(name, value)
	}
}

// prepareContentLength sets Content-Length for bodies whose length can
// be known up front. Other bodies are left without one, which makes the
// engine use chunked framing.
func (p *PreparedRequest) prepareContentLength(body interface{}) {
	n, ok := bodyLength(p.Method, body)
	if !ok {
		p.Header.Del("Content-Length")
		return
	}
	p.Header.Set("Content-Length", strconv.FormatInt(n, 10))
}

func bodyLength(method string, body interface{}) (int64, bool) {
	switch b := body.(type) {
	case nil:
		if method == "GET" || method == "HEAD" {
			return 0, false
		}
		return 0, true
	case []byte:
		return int64(len(b)), true
	case io.Seeker:
		cur, err := b.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		end, err := b.Seek(0, io.SeekEnd)
		if _, err2 := b.Seek(cur, io.SeekStart); err != nil || err2 != nil {
			return 0, false
		}
		return end - cur, true
	case interface{ Len() int }:
		// bytes.Buffer and friends report the unread length.
		return int64(b.Len()), true
	case interface{ Size() int64 }:
		return b.Size(), true
	default:
		return 0, false
	}
}

// marshalJSON encodes v with ", " and ": " separators and every
// non-ASCII character escaped, so the result is 7-bit clean.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")

	out := make([]byte, 0, len(raw)+len(raw)/4)
	inString := false
	for i := 0; i < len(raw); {
		c := raw[i]
		if inString {
			switch {
			case c == '\\':
				out = append(out, raw[i], raw[i+1])
				i += 2
				continue
			case c == '"':
				inString = false
			case c >= utf8.RuneSelf:
				r, size := utf8.DecodeRune(raw[i:])
				out = appendEscapedRune(out, r)
				i += size
				continue
			}
			out = append(out, c)
			i++
			continue
		}

		out = append(out, c)
		switch c {
		case '"':
			inString = true
		case ',', ':':
			out = append(out, ' ')
		}
		i++
	}

	return out, nil
}

func appendEscapedRune(out []byte, r rune) []byte {
	if r > 0xffff {
		r -= 0x10000
		out = fmt.Appendf(out, `\u%04x`, 0xd800+(r>>10))
		return fmt.Appendf(out, `\u%04x`, 0xdc00+(r&0x3ff))
	}

	return fmt.Appendf(out, `\u%04x`, r)
}
