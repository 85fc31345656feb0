// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/textproto"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogama/reqx/transient"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/http2"
)

// DefaultUserAgent is the User-Agent header value NetHTTP sends when
// neither Config.UserAgent nor a request header line provides one.
const DefaultUserAgent = "reqx/1.0"

// Config configures a NetHTTP engine. The zero value is valid.
type Config struct {
	// TLSConfig specifies the TLS configuration for https connections.
	// If nil, the default configuration is used.
	TLSConfig *tls.Config

	// UserAgent is the default User-Agent header value. If empty,
	// DefaultUserAgent is used.
	UserAgent string

	// DisableHTTP2 prevents negotiation of HTTP/2 on https connections.
	DisableHTTP2 bool

	// MaxIdleConnsPerHost is the maximum number of idle connections kept
	// per host. If zero, http.DefaultMaxIdleConnsPerHost is used.
	MaxIdleConnsPerHost int
}

// NetHTTP is the default Handle implementation. It performs exchanges
// with a private net/http Transport whose connection pool survives
// Reset, so a Session reusing one handle keeps its connections alive.
type NetHTTP struct {
	config    Config
	tlsConfig *tls.Config
	transport *http.Transport

	opts options

	status      int
	effective   string
	connectTime time.Duration
	closed      bool
}

var _ Handle = (*NetHTTP)(nil)

type options struct {
	url            string
	method         string
	noBody         bool
	headerLines    [][]byte
	autoDecompress bool
	body           io.Reader
	bodyLength     int64
	connect        time.Duration
	read           time.Duration
	redirects      RedirectPolicy
	auth           *Auth
	headerFunc     func([]byte)
	writer         io.Writer
	debugFunc      func(DebugKind, []byte)
}

func defaultOptions() options {
	return options{
		bodyLength: -1,
		redirects:  RedirectPolicy{Max: -1},
	}
}

// New creates a NetHTTP engine handle.
func New(config Config) *NetHTTP {
	h := &NetHTTP{
		config: config,
		opts:   defaultOptions(),
	}

	if config.TLSConfig != nil {
		h.tlsConfig = config.TLSConfig.Clone()
	} else {
		h.tlsConfig = &tls.Config{}
	}
	if len(h.tlsConfig.NextProtos) == 0 {
		if config.DisableHTTP2 {
			h.tlsConfig.NextProtos = []string{"http/1.1"}
		} else {
			h.tlsConfig.NextProtos = []string{http2.NextProtoTLS, "http/1.1"}
		}
	}

	h.transport = &http.Transport{
		DialContext:           dial,
		DialTLSContext:        h.dialTLS,
		DisableCompression:    true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if config.DisableHTTP2 {
		h.transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	} else if t2, err := http2.ConfigureTransports(h.transport); err == nil {
		t2.ReadIdleTimeout = 30 * time.Second
	}

	return h
}

type connectTimeoutKey struct{}

func dial(ctx context.Context, network, addr string) (net.Conn, error) {
	d := net.Dialer{KeepAlive: 30 * time.Second}
	if t, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && t > 0 {
		d.Timeout = t
	}

	return d.DialContext(ctx, network, addr)
}

// dialTLS dials and completes the TLS handshake within the connect
// timeout.
func (h *NetHTTP) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	if t, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	conn, err := dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	cfg := h.tlsConfig.Clone()
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		cfg.ServerName = host
	}

	tc := tls.Client(conn, cfg)
	if err = tc.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return tc, nil
}

// Protocols returns "http" and "https".
func (h *NetHTTP) Protocols() []string {
	return []string{"http", "https"}
}

func (h *NetHTTP) Reset() {
	h.opts = defaultOptions()
	h.status = 0
	h.effective = ""
	h.connectTime = 0
}

func (h *NetHTTP) SetURL(u string)                         { h.opts.url = u }
func (h *NetHTTP) SetMethod(method string)                 { h.opts.method = method }
func (h *NetHTTP) SetNoBody(noBody bool)                   { h.opts.noBody = noBody }
func (h *NetHTTP) SetHeaderLines(lines [][]byte)           { h.opts.headerLines = lines }
func (h *NetHTTP) SetAutoDecompress(enabled bool)          { h.opts.autoDecompress = enabled }
func (h *NetHTTP) SetBody(r io.Reader)                     { h.opts.body = r }
func (h *NetHTTP) SetBodyLength(n int64)                   { h.opts.bodyLength = n }
func (h *NetHTTP) SetRedirects(p RedirectPolicy)           { h.opts.redirects = p }
func (h *NetHTTP) SetHeaderFunc(f func([]byte))            { h.opts.headerFunc = f }
func (h *NetHTTP) SetWriter(w io.Writer)                   { h.opts.writer = w }
func (h *NetHTTP) SetDebugFunc(f func(DebugKind, []byte))  { h.opts.debugFunc = f }
func (h *NetHTTP) SetTimeouts(connect, read time.Duration) { h.opts.connect, h.opts.read = connect, read }

func (h *NetHTTP) SetAuth(a *Auth) {
	if a == nil {
		h.opts.auth = nil
		return
	}
	c := *a
	h.opts.auth = &c
}

func (h *NetHTTP) StatusCode() int            { return h.status }
func (h *NetHTTP) EffectiveURL() string       { return h.effective }
func (h *NetHTTP) ConnectTime() time.Duration { return h.connectTime }

// Close closes idle pooled connections. Further calls to Perform fail
// with BadFunctionArgument.
func (h *NetHTTP) Close() error {
	h.closed = true
	h.transport.CloseIdleConnections()
	return nil
}

// An outgoing holds the request state that changes between hops.
type outgoing struct {
	method    string
	url       *url.URL
	header    http.Header
	host      string
	body      io.Reader
	length    int64
	auth      *Auth
	digest    string
	bodyStart int64
	sent      bool
}

// Perform runs the configured exchange.
func (h *NetHTTP) Perform() error {
	h.status = 0
	h.effective = ""
	h.connectTime = 0

	if h.closed {
		return errorf(BadFunctionArgument, nil, "handle is closed")
	}

	u, err := h.parseURL(h.opts.url)
	if err != nil {
		return err
	}
	h.effective = u.String()

	out := &outgoing{
		method:    h.opts.method,
		url:       u,
		body:      h.opts.body,
		length:    h.opts.bodyLength,
		auth:      h.opts.auth,
		bodyStart: -1,
	}
	if out.method == "" {
		out.method = http.MethodGet
		if h.opts.noBody {
			out.method = http.MethodHead
		}
	}
	if !httpguts.ValidHeaderFieldName(out.method) {
		return errorf(BadFunctionArgument, nil, "invalid request method %q", out.method)
	}

	hl, err := parseHeaderLines(h.opts.headerLines)
	if err != nil {
		return errorf(BadFunctionArgument, err, "%s", err)
	}
	h.applyDefaults(hl)
	out.header, out.host = hl.header, hl.host
	if out.length < 0 && hl.length >= 0 {
		out.length = hl.length
	}
	if s, ok := out.body.(io.Seeker); ok {
		if off, err := s.Seek(0, io.SeekCurrent); err == nil {
			out.bodyStart = off
		}
	}

	ctx := context.Background()
	if h.opts.read > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.read)
		defer cancel()
	}
	if h.opts.connect > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, h.opts.connect)
	}

	start := time.Now()
	redirects := 0
	digestTried := false
	for {
		resp, err := h.roundTrip(ctx, start, out)
		if err != nil {
			return err
		}

		h.status = resp.StatusCode
		h.effective = out.url.String()

		if resp.StatusCode == http.StatusUnauthorized && out.auth != nil && out.auth.Scheme == AuthDigest && !digestTried {
			digestTried = true
			if c, ok := parseDigestChallenge(resp.Header.Values("Www-Authenticate")); ok {
				value, err := c.authorization(out.auth.Username, out.auth.Password, out.method, out.url.RequestURI())
				if err == nil {
					drain(resp)
					out.digest = value
					h.debugf("Issue another request to this URL: '%s'", out.url)
					continue
				}
				h.debugf("Digest challenge not answered: %s", err)
			}
		}

		if h.opts.redirects.Follow && isRedirect(resp.StatusCode) {
			if loc := resp.Header.Get("Location"); loc != "" {
				drain(resp)
				if max := h.opts.redirects.Max; max >= 0 && redirects >= max {
					return errorf(TooManyRedirects, nil, "Maximum (%d) redirects followed", max)
				}
				next, err := out.url.Parse(loc)
				if err != nil {
					return errorf(URLMalformat, err, "Redirect URL rejected: %s", loc)
				}
				if !h.supported(next.Scheme) {
					return errorf(UnsupportedProtocol, nil, "Protocol %q not supported", next.Scheme)
				}
				h.debugf("Issue another request to this URL: '%s'", next)
				h.redirect(out, resp.StatusCode, next)
				redirects++
				digestTried = false
				continue
			}
		}

		return h.transfer(ctx, resp, out.method)
	}
}

func (h *NetHTTP) parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errorf(URLMalformat, err, "URL rejected: Malformed input to a URL function")
	}
	if u.Scheme == "" {
		return nil, errorf(URLMalformat, nil, "URL rejected: No URL scheme")
	}
	if !h.supported(u.Scheme) {
		return nil, errorf(UnsupportedProtocol, nil, "Protocol %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return nil, errorf(URLMalformat, nil, "URL rejected: No host part in the URL")
	}

	return u, nil
}

func (h *NetHTTP) supported(scheme string) bool {
	return slices.Contains(h.Protocols(), strings.ToLower(scheme))
}

func (h *NetHTTP) applyDefaults(hl *headerLines) {
	def := func(name, value string) {
		if hl.suppressed[name] {
			return
		}
		if headerKey(hl.header, name) == "" {
			hl.header.Set(name, value)
		}
	}

	def("Accept", "*/*")
	if h.opts.autoDecompress {
		def("Accept-Encoding", acceptEncoding)
	}
	ua := h.config.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	if hl.suppressed["User-Agent"] {
		// An explicitly empty User-Agent stops net/http adding its own.
		hl.header["User-Agent"] = []string{""}
	} else {
		def("User-Agent", ua)
		if k := headerKey(hl.header, "User-Agent"); k != "User-Agent" {
			// net/http only sees the canonical key, so without it the
			// default Go User-Agent would be sent as well.
			hl.header["User-Agent"] = []string{""}
		}
	}
}

// redirect prepares out to follow a redirect with the given status code
// to next.
func (h *NetHTTP) redirect(out *outgoing, code int, next *url.URL) {
	if !strings.EqualFold(next.Host, out.url.Host) || !strings.EqualFold(next.Scheme, out.url.Scheme) {
		out.auth = nil
		delHeader(out.header, "Authorization")
		delHeader(out.header, "Cookie")
		out.host = ""
	}
	out.digest = ""

	switch code {
	case http.StatusMovedPermanently, http.StatusFound:
		if out.method == http.MethodPost && !h.opts.redirects.KeepPost {
			out.toGet()
		}
	case http.StatusSeeOther:
		if out.method != http.MethodHead && !(out.method == http.MethodPost && h.opts.redirects.KeepPost) {
			out.toGet()
		}
	}

	out.url = next
}

func (out *outgoing) toGet() {
	out.method = http.MethodGet
	out.body = nil
	out.length = 0
	out.sent = false
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// roundTrip sends one hop and delivers the response head to the header
// function.
func (h *NetHTTP) roundTrip(ctx context.Context, start time.Time, out *outgoing) (*http.Response, error) {
	if out.sent && out.body != nil {
		s, ok := out.body.(io.Seeker)
		if !ok || out.bodyStart < 0 {
			return nil, errorf(SendFailRewind, nil, "necessary data rewind wasn't possible")
		}
		if _, err := s.Seek(out.bodyStart, io.SeekStart); err != nil {
			return nil, errorf(SendFailRewind, err, "necessary data rewind wasn't possible")
		}
	}

	req, err := http.NewRequestWithContext(ctx, out.method, out.url.String(), nil)
	if err != nil {
		return nil, errorf(URLMalformat, err, "URL rejected: %s", err)
	}
	req.Header = out.header.Clone()
	if out.host != "" {
		req.Host = out.host
	}
	if headerKey(req.Header, "Authorization") == "" {
		if out.digest != "" {
			req.Header.Set("Authorization", out.digest)
		} else if out.auth != nil && out.auth.Scheme == AuthBasic {
			req.Header.Set("Authorization", "Basic "+basicAuth(out.auth.Username, out.auth.Password))
		}
	}

	var br *bodyReader
	if out.body == nil || out.length == 0 {
		req.Body = http.NoBody
		req.ContentLength = 0
	} else {
		br = &bodyReader{r: out.body}
		req.Body = br
		req.ContentLength = out.length
		out.sent = true
	}

	h.connectTime = 0
	gate := &traceGate{}
	ctx = httptrace.WithClientTrace(ctx, h.trace(gate, start))
	req = req.WithContext(ctx)

	h.debugRequest(req)
	resp, err := h.transport.RoundTrip(req)
	gate.close()
	if err != nil {
		if br != nil && br.err != nil {
			return nil, errorf(SendError, br.err, "Failed reading request body: %s", br.err)
		}
		return nil, h.classify(ctx, err, SendError)
	}

	h.emitHead(resp.ProtoMajor, resp.ProtoMinor, resp.StatusCode, resp.Status, resp.Header)
	return resp, nil
}

// transfer copies the final response body to the writer.
func (h *NetHTTP) transfer(ctx context.Context, resp *http.Response, method string) error {
	defer func() { _ = resp.Body.Close() }()

	if h.opts.noBody || method == http.MethodHead {
		return nil
	}

	tr := &trackingReader{r: resp.Body}
	var r io.Reader = tr
	if h.opts.autoDecompress {
		ce := resp.Header.Get("Content-Encoding")
		dec, err := decoder(tr, ce)
		if err != nil {
			if tr.err != nil {
				return h.classify(ctx, tr.err, RecvError)
			}
			if errors.Is(err, errUnsupportedEncoding) {
				return errorf(BadContentEncoding, err, "Unrecognized content encoding type: %s", ce)
			}
			return errorf(BadContentEncoding, err, "Error while processing content unencoding: %s", err)
		}
		defer func() { _ = dec.Close() }()
		r = &decodingReader{dec: dec, net: tr}
	}

	w := h.opts.writer
	if w == nil {
		w = io.Discard
	}
	tw := &trackingWriter{w: w}
	if _, err := io.Copy(tw, r); err != nil {
		if tw.err != nil {
			return errorf(WriteError, tw.err, "Failure writing output to destination")
		}
		var de decodeError
		if errors.As(err, &de) {
			return errorf(BadContentEncoding, de.err, "Error while processing content unencoding: %s", de.err)
		}
		return h.classify(ctx, err, RecvError)
	}

	return nil
}

// classify translates a transport error into an *Error. Errors that
// match no specific class get the code fallback.
func (h *NetHTTP) classify(ctx context.Context, err error, fallback Code) *Error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		if h.opts.read > 0 {
			return errorf(OperationTimedout, err, "Operation timed out after %d milliseconds", h.opts.read.Milliseconds())
		}
		return errorf(OperationTimedout, err, "Operation timed out")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return errorf(CouldntResolveHost, err, "Could not resolve host: %s", dnsErr.Name)
	}

	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var authErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	switch {
	case errors.As(err, &authErr):
		return errorf(PeerFailedVerification, err, "SSL certificate problem: %s", authErr.Error())
	case errors.As(err, &hostErr):
		return errorf(PeerFailedVerification, err, "SSL: no alternative certificate subject name matches target host name")
	case errors.As(err, &invalidErr):
		return errorf(PeerFailedVerification, err, "SSL certificate problem: %s", invalidErr.Error())
	case errors.As(err, &certErr):
		return errorf(PeerFailedVerification, err, "SSL certificate problem: %s", certErr.Error())
	}

	var recordErr tls.RecordHeaderError
	var alertErr tls.AlertError
	if errors.As(err, &recordErr) || errors.As(err, &alertErr) {
		return errorf(SSLConnectError, err, "SSL connect error: %s", err)
	}

	switch transient.Categorize(err) {
	case transient.Timeout:
		return errorf(OperationTimedout, err, "Operation timed out: %s", err)
	case transient.ConnRefused:
		return errorf(CouldntConnect, err, "Failed to connect: Connection refused")
	case transient.ConnReset:
		return errorf(fallback, err, "Connection reset by peer")
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return errorf(CouldntConnect, err, "Failed to connect: %s", opErr.Err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if fallback == SendError {
			return errorf(GotNothing, err, "Empty reply from server")
		}
		return errorf(RecvError, err, "Failure when receiving data from the peer")
	}

	return errorf(fallback, err, "%s", err)
}

// drain discards the remainder of a response body so the connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}

// A traceGate stops trace callbacks from running once the round trip
// that installed them has returned.
type traceGate struct {
	mu     sync.Mutex
	closed bool
}

func (g *traceGate) do(f func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		f()
	}
}

func (g *traceGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (h *NetHTTP) trace(gate *traceGate, start time.Time) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			gate.do(func() {
				d := time.Since(start)
				if d <= 0 {
					d = time.Nanosecond
				}
				h.connectTime = d
				if info.Reused {
					h.debugf("Re-using existing connection to %s", info.Conn.RemoteAddr())
				} else {
					h.debugf("Connected to %s", info.Conn.RemoteAddr())
				}
			})
		},
		Got1xxResponse: func(code int, header textproto.MIMEHeader) error {
			gate.do(func() {
				h.emitHead(1, 1, code, strconv.Itoa(code)+" "+http.StatusText(code), http.Header(header))
			})
			return nil
		},
	}
}

// emitHead delivers a response head to the header function, one line
// at a time, in the form libcurl delivers it.
func (h *NetHTTP) emitHead(major, minor, code int, status string, header http.Header) {
	if h.opts.headerFunc == nil && h.opts.debugFunc == nil {
		return
	}

	var statusLine string
	if major >= 2 {
		statusLine = fmt.Sprintf("HTTP/%d %d \r\n", major, code)
	} else {
		statusLine = fmt.Sprintf("HTTP/%d.%d %s\r\n", major, minor, status)
	}
	h.headerLine(statusLine)
	for _, name := range slices.Sorted(maps.Keys(header)) {
		for _, value := range header[name] {
			h.headerLine(name + ": " + value + "\r\n")
		}
	}
	h.headerLine("\r\n")
}

func (h *NetHTTP) headerLine(line string) {
	b := []byte(line)
	if h.opts.debugFunc != nil {
		h.opts.debugFunc(DebugHeaderIn, b)
	}
	if h.opts.headerFunc != nil {
		h.opts.headerFunc(b)
	}
}

func (h *NetHTTP) debugf(format string, a ...interface{}) {
	if h.opts.debugFunc != nil {
		h.opts.debugFunc(DebugText, []byte(fmt.Sprintf(format, a...)))
	}
}

func (h *NetHTTP) debugRequest(req *http.Request) {
	if h.opts.debugFunc == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.Method, req.URL.RequestURI())
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	for _, name := range slices.Sorted(maps.Keys(req.Header)) {
		for _, value := range req.Header[name] {
			if value != "" {
				fmt.Fprintf(&b, "%s: %s\r\n", name, value)
			}
		}
	}
	if req.ContentLength > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", req.ContentLength)
	} else if req.ContentLength < 0 {
		b.WriteString("Transfer-Encoding: chunked\r\n")
	}
	b.WriteString("\r\n")
	h.opts.debugFunc(DebugHeaderOut, []byte(b.String()))
}

// headerLines is the parsed form of the request header lines.
type headerLines struct {
	header     http.Header
	suppressed map[string]bool
	host       string
	length     int64
}

func parseHeaderLines(lines [][]byte) (*headerLines, error) {
	hl := &headerLines{
		header:     make(http.Header),
		suppressed: make(map[string]bool),
		length:     -1,
	}

	for _, line := range lines {
		s := strings.TrimRight(string(line), "\r\n")
		if s == "" {
			continue
		}

		i := strings.IndexAny(s, ":;")
		if i <= 0 {
			return nil, fmt.Errorf("malformed header line %q", s)
		}
		name := strings.TrimSpace(s[:i])
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("invalid header name %q", name)
		}
		key := textproto.CanonicalMIMEHeaderKey(name)
		if stored := headerKey(hl.header, name); stored != "" {
			name = stored
		}
		value := strings.TrimSpace(s[i+1:])

		if s[i] == ';' {
			if value != "" {
				return nil, fmt.Errorf("malformed header line %q", s)
			}
			hl.header[name] = append(hl.header[name], "")
			continue
		}
		if value == "" {
			hl.suppressed[key] = true
			delete(hl.header, name)
			continue
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("invalid value for header %q", name)
		}

		switch key {
		case "Host":
			hl.host = value
		case "Content-Length":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			hl.length = n
		case "Transfer-Encoding":
			// The transfer encoding follows from the body length.
		default:
			hl.header[name] = append(hl.header[name], value)
		}
	}

	return hl, nil
}

// headerKey returns the key under which h holds name, compared
// case-insensitively, or "" if h has no such key. Header keys keep the
// casing the caller wrote, so they are not always canonical.
func headerKey(h http.Header, name string) string {
	if _, ok := h[name]; ok {
		return name
	}
	for k := range h {
		if strings.EqualFold(k, name) {
			return k
		}
	}

	return ""
}

// delHeader deletes every key of h equal to name ignoring case.
func delHeader(h http.Header, name string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			delete(h, k)
		}
	}
}

type bodyReader struct {
	r   io.Reader
	err error
}

func (r *bodyReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

// Close does not close the wrapped reader, which belongs to the caller.
func (r *bodyReader) Close() error {
	return nil
}

type trackingWriter struct {
	w   io.Writer
	err error
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}
