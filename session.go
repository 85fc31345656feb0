// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gogama/reqx/engine"
	"github.com/gogama/reqx/timeout"
	"golang.org/x/time/rate"
)

// DefaultMaxRedirects is the maximum number of redirects a new Session
// follows.
const DefaultMaxRedirects = 30

// A Session holds defaults shared by the requests it sends and the
// transport engine handle it sends them with, so that connections are
// reused across requests.
//
// Defaults are merged with the options of each call: per-call headers
// replace session headers of the same name (compared case-insensitively)
// and per-call params and cookies update the session ones like a
// dictionary update. A per-call Auth replaces the session Auth.
//
// Sends are serialized on the session's engine handle, so a Session may
// be used from multiple goroutines but performs one exchange at a time.
// Use one Session per concurrent exchange when parallelism is needed.
//
// Create a Session with NewSession or NewSessionWithEngine, and Close
// it when done.
type Session struct {
	// Header holds default request headers.
	Header *Header

	// Params holds default query parameters.
	Params Pairs

	// Cookies holds default cookies.
	Cookies Pairs

	// Auth is the default auth, used when a call has none.
	Auth Auth

	// MaxRedirects is the maximum number of redirects followed. A
	// negative value means there is no limit. NewSession sets it to
	// DefaultMaxRedirects; in a zero Session it is 0, so any redirect
	// fails with ErrTooManyRedirects.
	MaxRedirects int

	// Timeout is the default timeout budget. The zero value never
	// times out.
	Timeout timeout.Budget

	// Handlers, if not nil, receives the events of every exchange.
	Handlers *HandlerGroup

	// Limiter, if not nil, is waited on before each exchange.
	Limiter *rate.Limiter

	// Logger receives debug records, including the header lines sent
	// and received when it is enabled at debug level. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	mu     sync.Mutex
	handle engine.Handle
	closed bool
}

// NewSession returns a session sending requests with a NetHTTP engine
// handle configured with engine defaults.
func NewSession() *Session {
	return NewSessionWithEngine(engine.New(engine.Config{}))
}

// NewSessionWithEngine returns a session sending requests with h. The
// session takes ownership of h and closes it when the session is
// closed.
func NewSessionWithEngine(h engine.Handle) *Session {
	return &Session{
		Header:       &Header{},
		MaxRedirects: DefaultMaxRedirects,
		handle:       h,
	}
}

// Get sends a GET request.
func (s *Session) Get(url string, opts *Options) (*Response, error) {
	return s.Request("GET", url, opts)
}

// Head sends a HEAD request. Redirects are followed unless
// opts.DisableRedirects is set.
func (s *Session) Head(url string, opts *Options) (*Response, error) {
	return s.Request("HEAD", url, opts)
}

// Options sends an OPTIONS request.
func (s *Session) Options(url string, opts *Options) (*Response, error) {
	return s.Request("OPTIONS", url, opts)
}

// Post sends a POST request.
func (s *Session) Post(url string, opts *Options) (*Response, error) {
	return s.Request("POST", url, opts)
}

// Put sends a PUT request.
func (s *Session) Put(url string, opts *Options) (*Response, error) {
	return s.Request("PUT", url, opts)
}

// Patch sends a PATCH request.
func (s *Session) Patch(url string, opts *Options) (*Response, error) {
	return s.Request("PATCH", url, opts)
}

// Delete sends a DELETE request.
func (s *Session) Delete(url string, opts *Options) (*Response, error) {
	return s.Request("DELETE", url, opts)
}

// Request prepares a request from method, url and opts merged with the
// session defaults, and sends it. A nil opts is the same as the zero
// Options.
//
// Unsupported options fail with ErrNotImplemented before anything is
// sent. Any other failure is returned as an *Error. If the engine
// completes without receiving a response, both return values are nil.
func (s *Session) Request(method, url string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.unsupported(); err != nil {
		return nil, err
	}

	p, err := s.PrepareRequest(&Request{
		Method:  method,
		URL:     url,
		Header:  opts.Header,
		Params:  opts.Params,
		Data:    opts.Data,
		JSON:    opts.JSON,
		Files:   opts.Files,
		Cookies: opts.Cookies,
		Auth:    opts.Auth,
	})
	if err != nil {
		return nil, err
	}

	return s.Send(p, &opts.SendOptions)
}

// PrepareRequest prepares r merged with the session defaults. Neither r
// nor the session is modified.
func (s *Session) PrepareRequest(r *Request) (*PreparedRequest, error) {
	header := s.Header.Clone()
	header.Merge(r.Header)

	params, err := toPairs(r.Params)
	if err != nil {
		return nil, newError(KindInvalidURL, "Invalid params: %s", err)
	}

	cookies, err := cookiePairs(r.Cookies, r.URL)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: err.Error(), Err: err}
	}

	auth := r.Auth
	if auth == nil {
		auth = s.Auth
	}

	merged := &Request{
		Method:  r.Method,
		URL:     r.URL,
		Header:  header,
		Params:  mergePairs(s.Params, params),
		Data:    r.Data,
		JSON:    r.JSON,
		Files:   r.Files,
		Cookies: mergePairs(s.Cookies, cookies),
		Auth:    auth,
	}

	return merged.Prepare()
}

func mergePairs(current, next Pairs) Pairs {
	switch {
	case len(next) == 0:
		return current
	case len(current) == 0:
		return next
	default:
		return current.Update(next)
	}
}

// Send sends a prepared request. A nil opts is the same as the zero
// SendOptions.
//
// Event handlers and the engine work on a copy of p, which becomes the
// Request of the response and of any exchange error. The only change
// made to p itself is setting its URL to the effective URL.
func (s *Session) Send(p *PreparedRequest, opts *SendOptions) (*Response, error) {
	if opts == nil {
		opts = &SendOptions{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &Error{Kind: KindRequest, Message: ErrSessionClosed.Error(), Request: p, Err: ErrSessionClosed}
	}
	if s.handle == nil {
		s.handle = engine.New(engine.Config{})
	}
	cfg := sendConfig{
		timeout:        s.Timeout,
		allowRedirects: !opts.DisableRedirects,
		maxRedirects:   s.MaxRedirects,
	}
	if opts.Timeout != nil {
		cfg.timeout = *opts.Timeout
	}
	if opts.MaxRedirects != nil {
		cfg.maxRedirects = *opts.MaxRedirects
	}
	if err := cfg.timeout.Validate(); err != nil {
		return nil, &Error{Kind: KindRequest, Message: err.Error(), Request: p, Err: err}
	}

	if s.Limiter != nil {
		if err := s.Limiter.Wait(context.Background()); err != nil {
			return nil, &Error{Kind: KindRequest, Message: err.Error(), Request: p, Err: err}
		}
	}

	c := p.Clone()
	e := &Exchange{Request: c, Start: time.Now()}
	s.Handlers.run(BeforeSend, e)

	a := adapter{handle: s.handle, logger: s.logger()}
	resp, err := a.send(c, cfg)
	p.URL = c.URL

	e.End = time.Now()
	e.Response = resp
	if err != nil {
		e.Err = err
		if re, ok := err.(*Error); ok {
			e.Response = re.Response
		}
		s.Handlers.run(AfterError, e)
		return nil, err
	}

	s.Handlers.run(AfterResponse, e)
	return resp, nil
}

// Close releases the engine handle. Closing a closed session does
// nothing, and requests sent after Close fail with an error whose
// cause is ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	return err
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}

	return slog.Default()
}
