// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

// Do sends a request with a single-use session, which is closed before
// Do returns. See Session.Request.
func Do(method, url string, opts *Options) (*Response, error) {
	s := NewSession()
	defer s.Close()

	return s.Request(method, url, opts)
}

// Send sends a prepared request with a single-use session. See
// Session.Send.
func Send(p *PreparedRequest, opts *SendOptions) (*Response, error) {
	s := NewSession()
	defer s.Close()

	return s.Send(p, opts)
}

// Get sends a GET request with a single-use session.
func Get(url string, opts *Options) (*Response, error) {
	return Do("GET", url, opts)
}

// Head sends a HEAD request with a single-use session.
func Head(url string, opts *Options) (*Response, error) {
	return Do("HEAD", url, opts)
}

// Post sends a POST request with a single-use session.
func Post(url string, opts *Options) (*Response, error) {
	return Do("POST", url, opts)
}

// Put sends a PUT request with a single-use session.
func Put(url string, opts *Options) (*Response, error) {
	return Do("PUT", url, opts)
}

// Patch sends a PATCH request with a single-use session.
func Patch(url string, opts *Options) (*Response, error) {
	return Do("PATCH", url, opts)
}

// Delete sends a DELETE request with a single-use session.
func Delete(url string, opts *Options) (*Response, error) {
	return Do("DELETE", url, opts)
}
