// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"bytes"
	"errors"
	"iter"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// IterContent returns an iterator over the unread content in chunks of
// at most chunkSize bytes. A chunkSize of zero or less yields the whole
// remaining content as one chunk.
//
// The iterator is not restartable: it advances the read cursor shared
// by all the Iter methods of r. Interleaving two iterators over the
// same response has undefined results.
func (r *Response) IterContent(chunkSize int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			n := chunkSize
			if n <= 0 || n > r.raw.Len() {
				n = r.raw.Len()
			}
			if n == 0 {
				return
			}

			chunk := make([]byte, n)
			if _, err := r.raw.Read(chunk); err != nil {
				return
			}
			if !yield(chunk) {
				return
			}
		}
	}
}

// IterText is like IterContent but decodes each chunk with Encoding.
// When Encoding is empty it decodes as ISO-8859-1, like Text, so every
// byte maps to exactly one rune and nothing is lost; use IterContent
// for undecoded bytes. Multi-byte sequences split across chunks are
// carried over to the next chunk; an incomplete sequence at the end of
// the content decodes to U+FFFD. Chunks that decode to nothing are not
// yielded.
func (r *Response) IterText(chunkSize int) (iter.Seq[string], error) {
	enc, err := r.encoding()
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		d := newTextDecoder(enc.NewDecoder())
		for chunk := range r.IterContent(chunkSize) {
			if s := d.decode(chunk, false); s != "" && !yield(s) {
				return
			}
		}
		if s := d.decode(nil, true); s != "" {
			yield(s)
		}
	}, nil
}

// IterLines returns an iterator over the lines of the unread content,
// read in chunks of chunkSize bytes.
//
// With a nil or empty delim, lines end at "\n", "\r" or "\r\n", and the
// line terminators are not part of the lines. A terminator at the very
// end of the content does not produce a trailing empty line.
//
// With a non-empty delim, the content is split on delim exactly and the
// piece after the last delimiter is always yielded at the end, so that
// content ending in delim yields a trailing empty line.
func (r *Response) IterLines(chunkSize int, delim []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		s := lineSplitter{delim: delim}
		for chunk := range r.IterContent(chunkSize) {
			if !s.feed(chunk, yield) {
				return
			}
		}
		s.finish(yield)
	}
}

// IterTextLines is like IterLines but splits the decoded text produced
// by IterText.
func (r *Response) IterTextLines(chunkSize int, delim string) (iter.Seq[string], error) {
	text, err := r.IterText(chunkSize)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		s := lineSplitter{delim: []byte(delim)}
		yieldString := func(line []byte) bool { return yield(string(line)) }
		for chunk := range text {
			if !s.feed([]byte(chunk), yieldString) {
				return
			}
		}
		s.finish(yieldString)
	}, nil
}

// lineSplitter re-chunks a byte stream into lines. The lines it yields
// are independent of how the stream was chunked.
type lineSplitter struct {
	delim []byte
	tail  []byte
	seen  bool
}

func (s *lineSplitter) feed(chunk []byte, yield func([]byte) bool) bool {
	if len(chunk) == 0 {
		return true
	}
	s.seen = true

	buf := append(s.tail, chunk...)
	var rest []byte
	var ok bool
	if len(s.delim) > 0 {
		rest, ok = splitDelim(buf, s.delim, yield)
	} else {
		rest, ok = splitLines(buf, yield)
	}
	s.tail = append([]byte(nil), rest...)

	return ok
}

func (s *lineSplitter) finish(yield func([]byte) bool) {
	switch {
	case !s.seen:
	case len(s.delim) > 0:
		yield(s.tail)
	case len(s.tail) > 0:
		yield(bytes.TrimSuffix(s.tail, []byte{'\r'}))
	}
}

func splitDelim(buf, delim []byte, yield func([]byte) bool) ([]byte, bool) {
	for {
		i := bytes.Index(buf, delim)
		if i < 0 {
			return buf, true
		}
		if !yield(buf[:i:i]) {
			return nil, false
		}
		buf = buf[i+len(delim):]
	}
}

// splitLines yields the complete lines of buf and returns the rest. A
// "\r" at the end of buf is left in the rest because the next chunk may
// begin with the "\n" completing it.
func splitLines(buf []byte, yield func([]byte) bool) ([]byte, bool) {
	start := 0
	for i := 0; i < len(buf); i++ {
		var next int
		switch buf[i] {
		case '\n':
			next = i + 1
		case '\r':
			if i+1 == len(buf) {
				return buf[start:], true
			}
			next = i + 1
			if buf[i+1] == '\n' {
				next++
			}
		default:
			continue
		}

		if !yield(buf[start:i:i]) {
			return nil, false
		}
		start = next
		i = next - 1
	}

	return buf[start:], true
}

// textDecoder runs a decoding transformer incrementally, keeping
// incomplete input for the next call.
type textDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

func newTextDecoder(t transform.Transformer) *textDecoder {
	t.Reset()
	return &textDecoder{t: t, dst: make([]byte, 4096)}
}

func (d *textDecoder) decode(chunk []byte, atEOF bool) string {
	src := append(d.pending, chunk...)
	var out []byte
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out = append(out, d.dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil, errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return string(out)
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		default:
			// Undecodable input: skip a byte and keep going.
			out = utf8.AppendRune(out, utf8.RuneError)
			if len(src) > 0 {
				src = src[1:]
			}
			if len(src) == 0 {
				d.pending = nil
				return string(out)
			}
		}
	}
}
