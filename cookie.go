// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// cookiePairs converts a cookie source to pairs. Besides the pair
// sources accepted by toPairs, cookies may be given as []*http.Cookie,
// as a Cookie header style string "a=1; b=2", or as an http.CookieJar,
// which is asked for the cookies it holds for rawURL.
func cookiePairs(v interface{}, rawURL string) (Pairs, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case []*http.Cookie:
		p := make(Pairs, 0, len(c))
		for _, cookie := range c {
			p = append(p, Pair{cookie.Name, cookie.Value})
		}
		return p, nil
	case http.CookieJar:
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		return cookiePairs(c.Cookies(u), rawURL)
	case string:
		cookies, err := http.ParseCookie(c)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie string: %w", err)
		}
		return cookiePairs(cookies, rawURL)
	default:
		return toPairs(v)
	}
}

// prepareCookies sets the Cookie header from cookies unless a Cookie
// header is already present.
func (p *PreparedRequest) prepareCookies(cookies interface{}) error {
	if p.Header.Has("Cookie") || cookies == nil {
		return nil
	}

	pairs, err := cookiePairs(cookies, p.URL)
	if err != nil {
		return &Error{Kind: KindRequest, Message: err.Error(), Err: err}
	}
	if len(pairs) == 0 {
		return nil
	}

	var b strings.Builder
	for i, pair := range pairs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(pair.Value)
	}
	p.Header.Set("Cookie", b.String())

	return nil
}
