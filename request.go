// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"net/url"
	"strings"
)

// A Request describes a request before it is prepared. Its loosely
// typed fields accept several representations, each documented on the
// field. Preparing a Request never modifies it.
type Request struct {
	// Method is the HTTP method. It is upper-cased when prepared. The
	// empty string leaves the choice to the engine, which uses GET.
	Method string

	// URL is the target URL. See PrepareURL.
	URL string

	// Header holds user-supplied request headers. A name marked with
	// Header.Unset is removed when the request is prepared.
	Header *Header

	// Params are query parameters appended to the URL query. They may
	// be a raw query string, Pairs, []Pair, url.Values,
	// map[string][]string or map[string]string.
	Params interface{}

	// Data is the request body. See the body rules described on
	// PreparedRequest.Body.
	Data interface{}

	// JSON, if Data is nil, is serialized as the JSON request body.
	JSON interface{}

	// Files is not supported. Preparing a request with non-nil Files
	// fails with ErrNotImplemented.
	Files interface{}

	// Cookies are serialized into the Cookie header unless Header
	// already has one. They may be []*http.Cookie, an http.CookieJar, a
	// "a=1; b=2" string, or any of the forms accepted for Params.
	Cookies interface{}

	// Auth, if not nil, attaches credentials.
	Auth Auth
}

// Prepare returns the prepared form of r.
//
// Preparation runs in a fixed order: the method is upper-cased, the URL
// is prepared with the params, headers are copied, cookies are added,
// the body is prepared and finally auth is applied.
func (r *Request) Prepare() (*PreparedRequest, error) {
	p := &PreparedRequest{}

	p.Method = strings.ToUpper(r.Method)

	u, err := PrepareURL(r.URL, r.Params)
	if err != nil {
		return nil, err
	}
	p.URL = u

	p.Header = r.Header.Clone()
	p.Header.compact()

	if err = p.prepareCookies(r.Cookies); err != nil {
		return nil, err
	}

	if err = p.prepareBody(r.Data, r.Files, r.JSON); err != nil {
		return nil, err
	}

	if r.Auth != nil {
		if err = r.Auth.applyAuth(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// A PreparedRequest is a fully resolved request ready to be sent. The
// only change made to it after preparation is that sending it records
// the effective URL, after redirects, in URL.
type PreparedRequest struct {
	// Method is the final, upper-case method.
	Method string

	// URL is the prepared URL, or the effective URL once sent.
	URL string

	// Header holds the user, cookie and auth headers. It never holds
	// headers the engine adds on its own, such as User-Agent.
	Header *Header

	// Body is nil, a []byte, an io.Reader or an iter.Seq[[]byte].
	//
	// When a request is prepared, Data of type []byte or string is sent
	// as is. An io.Reader is streamed and remains owned by the caller;
	// its length is probed if it is an io.Seeker or exposes Len or Size,
	// otherwise it is sent with chunked framing. A generator of type
	// iter.Seq[[]byte], or a plain func(func([]byte) bool), is always
	// sent with chunked framing. Pairs, []Pair, url.Values,
	// map[string][]string and map[string]string are form-urlencoded.
	Body interface{}

	// NativeAuth holds credentials handed to the engine. It is nil
	// unless the request was prepared with a *NativeAuth.
	NativeAuth *NativeAuth
}

// PathURL returns the path and query of the URL, which is how the
// request target appears in an HTTP/1.1 request line.
func (p *PreparedRequest) PathURL() string {
	u, err := url.Parse(p.URL)
	if err != nil {
		return "/"
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return path
}

// Clone returns a copy of p whose header may be changed without
// affecting p. The body is shared.
func (p *PreparedRequest) Clone() *PreparedRequest {
	c := *p
	c.Header = p.Header.Clone()
	if p.NativeAuth != nil {
		a := *p.NativeAuth
		c.NativeAuth = &a
	}

	return &c
}
