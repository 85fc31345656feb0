// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gogama/reqx/engine"
	"github.com/gogama/reqx/timeout"
)

type adapterState int

const (
	stateIdle adapterState = iota
	stateConfiguring
	stateExecuting
	stateCompleted
	stateFailed
)

// sendConfig is the transport configuration of one exchange.
type sendConfig struct {
	timeout        timeout.Budget
	allowRedirects bool
	maxRedirects   int
}

// An adapter runs one exchange of a prepared request on an engine
// handle and translates the outcome into a Response or an *Error.
type adapter struct {
	handle engine.Handle
	logger *slog.Logger
	state  adapterState
}

func (a *adapter) send(p *PreparedRequest, cfg sendConfig) (*Response, error) {
	if err := a.checkScheme(p); err != nil {
		a.state = stateFailed
		return nil, err
	}

	a.state = stateConfiguring
	heads := &headerState{}
	var buf bytes.Buffer
	body, closeBody := requestBody(p.Body)
	defer closeBody()

	h := a.handle
	h.Reset()
	h.SetURL(p.URL)
	if p.Method != "" {
		h.SetMethod(p.Method)
	}
	if p.Method == "HEAD" {
		h.SetNoBody(true)
	}
	h.SetAutoDecompress(true)
	if p.NativeAuth != nil {
		h.SetAuth(&engine.Auth{
			Scheme:   p.NativeAuth.Scheme,
			Username: p.NativeAuth.Username,
			Password: p.NativeAuth.Password,
		})
	}
	h.SetHeaderLines(headerLines(p.Header))
	if body != nil {
		h.SetBody(body)
	}
	h.SetBodyLength(contentLength(p.Header))
	h.SetTimeouts(cfg.timeout.Connect, cfg.timeout.Read)
	h.SetRedirects(engine.RedirectPolicy{
		Follow:   cfg.allowRedirects,
		Max:      cfg.maxRedirects,
		KeepPost: true,
	})
	h.SetHeaderFunc(heads.line)
	h.SetWriter(&buf)
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		h.SetDebugFunc(a.debug)
	}

	a.state = stateExecuting
	start := time.Now()
	err := h.Perform()
	elapsed := time.Since(start)

	if h.StatusCode() != 0 {
		if u := h.EffectiveURL(); u != "" {
			p.URL = u
		}
	}
	resp := a.buildResponse(p, heads, buf.Bytes(), elapsed)

	if err != nil {
		a.state = stateFailed
		return nil, a.translate(err, p, resp)
	}

	a.state = stateCompleted
	if resp != nil {
		a.logger.Debug("exchange completed",
			"method", p.Method,
			"url", p.URL,
			"status", resp.StatusCode,
			"elapsed", elapsed)
	}

	return resp, nil
}

func (a *adapter) checkScheme(p *PreparedRequest) error {
	scheme, _, ok := strings.Cut(p.URL, ":")
	if !ok {
		err := newError(KindMissingSchema, "Missing scheme for %q", p.URL)
		err.Request = p
		return err
	}
	if !slices.Contains(a.handle.Protocols(), strings.ToLower(scheme)) {
		err := newError(KindInvalidSchema, "Unsupported scheme for %q", p.URL)
		err.Request = p
		return err
	}

	return nil
}

func (a *adapter) buildResponse(p *PreparedRequest, heads *headerState, body []byte, elapsed time.Duration) *Response {
	status := a.handle.StatusCode()
	if status == 0 {
		return nil
	}

	resp := newResponse(body)
	resp.StatusCode = status
	resp.Reason = heads.reason
	resp.Header = heads.header
	if resp.Header == nil {
		resp.Header = &Header{}
	}
	resp.Encoding = encodingFromHeader(resp.Header.Get("Content-Type"))
	resp.URL = p.URL
	resp.Elapsed = elapsed
	resp.Request = p

	return resp
}

func (a *adapter) translate(err error, p *PreparedRequest, resp *Response) *Error {
	var ee *engine.Error
	if !errors.As(err, &ee) {
		return &Error{Kind: KindRequest, Code: engine.Unknown, Message: err.Error(), Request: p, Response: resp, Err: err}
	}

	kind := kindOf(ee.Code, a.handle.ConnectTime() > 0)
	a.logger.Debug("exchange failed",
		"method", p.Method,
		"url", p.URL,
		"code", int(ee.Code),
		"kind", kind.String())

	return &Error{
		Kind:     kind,
		Code:     ee.Code,
		Message:  ee.Message,
		Request:  p,
		Response: resp,
		Err:      ee,
	}
}

func (a *adapter) debug(kind engine.DebugKind, data []byte) {
	text := decodeLine(data)
	if kind == engine.DebugText {
		a.logger.Debug(strings.TrimRight(text, " \r\n"), "dir", kind.String())
		return
	}

	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' }) {
		a.logger.Debug(line, "dir", kind.String())
	}
}

// headerLines renders the prepared headers as engine header lines.
// Values are passed through byte for byte.
func headerLines(h *Header) [][]byte {
	var lines [][]byte
	for name, value := range h.All() {
		line := make([]byte, 0, len(name)+2+len(value))
		line = append(line, name...)
		line = append(line, ": "...)
		line = append(line, value...)
		lines = append(lines, line)
	}

	return lines
}

func contentLength(h *Header) int64 {
	if v := h.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n >= 0 {
			return n
		}
	}

	return -1
}

// requestBody converts a prepared body to a reader and returns the
// function releasing it once the exchange is over.
func requestBody(body interface{}) (io.Reader, func()) {
	switch b := body.(type) {
	case nil:
		return nil, func() {}
	case []byte:
		return bytes.NewReader(b), func() {}
	case iter.Seq[[]byte]:
		r := newSeqReader(b)
		return r, r.close
	case io.Reader:
		return b, func() {}
	default:
		panic("reqx: unexpected prepared body type")
	}
}

// seqReader reads the chunks yielded by a generator.
type seqReader struct {
	mu   sync.Mutex
	next func() ([]byte, bool)
	stop func()
	buf  []byte
	done bool
}

func newSeqReader(seq iter.Seq[[]byte]) *seqReader {
	next, stop := iter.Pull(seq)
	return &seqReader{next: next, stop: stop}
}

func (r *seqReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.buf) == 0 {
		if r.done {
			return 0, io.EOF
		}
		chunk, ok := r.next()
		if !ok {
			r.done = true
			return 0, io.EOF
		}
		r.buf = chunk
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *seqReader) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done = true
	r.stop()
}

// headerState accumulates the response heads delivered by the engine.
// Each head starts with a status line and ends with an empty line;
// when a new head starts after an empty line, the header fields and
// reason of the previous head are discarded, so only the final hop
// survives.
type headerState struct {
	reason       string
	header       *Header
	awaitReset   bool
	statusParsed bool
}

func (s *headerState) line(b []byte) {
	if s.awaitReset {
		s.header = nil
		s.reason = ""
		s.statusParsed = false
		s.awaitReset = false
	}

	line := decodeLine(b)
	if !s.statusParsed {
		s.statusParsed = true
		s.reason = reasonPhrase(line)
		return
	}

	if line == "\r\n" || line == "\n" {
		s.awaitReset = true
		return
	}

	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	if s.header == nil {
		s.header = &Header{}
	}
	s.header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
}

// reasonPhrase returns what follows the second space of a status line.
func reasonPhrase(statusLine string) string {
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 3 {
		return ""
	}

	return strings.TrimSpace(parts[2])
}

// decodeLine decodes a raw header line as UTF-8, falling back to
// ISO-8859-1 when it is not valid UTF-8.
func decodeLine(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
