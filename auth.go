// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"github.com/gogama/reqx/engine"
)

// An Auth attaches credentials to a prepared request. There are two
// variants: *NativeAuth, whose credentials the transport engine turns
// into an Authorization header itself, and HeaderAuth, a function that
// changes the prepared request directly.
type Auth interface {
	applyAuth(p *PreparedRequest) error
}

// NativeAuth holds credentials for an authentication scheme the
// transport engine implements natively. Preparing a request with
// NativeAuth never adds an Authorization header to the prepared
// request.
type NativeAuth struct {
	Scheme   engine.AuthScheme
	Username string
	Password string
}

// BasicAuth returns native Basic authentication credentials.
func BasicAuth(username, password string) *NativeAuth {
	return &NativeAuth{Scheme: engine.AuthBasic, Username: username, Password: password}
}

// DigestAuth returns native Digest authentication credentials.
func DigestAuth(username, password string) *NativeAuth {
	return &NativeAuth{Scheme: engine.AuthDigest, Username: username, Password: password}
}

func (a *NativeAuth) applyAuth(p *PreparedRequest) error {
	c := *a
	p.NativeAuth = &c
	return nil
}

// A HeaderAuth receives the request being prepared and returns the
// request to continue with, typically the same one with headers added.
// A nil return keeps the request given. Content-Length is computed
// again afterwards in case the function changed the body.
type HeaderAuth func(p *PreparedRequest) (*PreparedRequest, error)

func (f HeaderAuth) applyAuth(p *PreparedRequest) error {
	r, err := f(p)
	if err != nil {
		return err
	}
	if r != nil && r != p {
		*p = *r
	}
	if p.Header == nil {
		p.Header = &Header{}
	}

	p.prepareContentLength(p.Body)
	return nil
}

// BearerAuth returns a HeaderAuth setting "Authorization: Bearer token".
func BearerAuth(token string) HeaderAuth {
	return func(p *PreparedRequest) (*PreparedRequest, error) {
		p.Header.Set("Authorization", "Bearer "+token)
		return p, nil
	}
}
