// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"errors"
	"iter"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/gogama/reqx/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPrepare(t *testing.T) {
	t.Run("method and url", func(t *testing.T) {
		r := &Request{Method: "post", URL: "http://example.com/a b", Params: Pairs{{"q", "1"}}}
		p, err := r.Prepare()
		require.NoError(t, err)
		assert.Equal(t, "POST", p.Method)
		assert.Equal(t, "http://example.com/a%20b?q=1", p.URL)
		assert.Equal(t, "post", r.Method)
	})
	t.Run("header copied and compacted", func(t *testing.T) {
		h := NewHeader("X-Keep", "1", "X-Drop", "2")
		h.Unset("X-Drop")
		r := &Request{Method: "GET", URL: "http://example.com/", Header: h}

		p, err := r.Prepare()

		require.NoError(t, err)
		assert.Equal(t, []string{"X-Keep"}, p.Header.Keys())
		p.Header.Set("X-Keep", "changed")
		assert.Equal(t, "1", h.Get("X-Keep"))
	})
	t.Run("bad url", func(t *testing.T) {
		_, err := (&Request{URL: "example.com"}).Prepare()
		assert.ErrorIs(t, err, ErrMissingSchema)
	})
}

func TestPrepareCookies(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse("http://example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "j", Value: "1"}})

	testCases := []struct {
		name     string
		cookies  interface{}
		expected string
	}{
		{"pairs", Pairs{{"b", "2"}, {"a", "1"}}, "b=2; a=1"},
		{"map", map[string]string{"b": "2", "a": "1"}, "a=1; b=2"},
		{"http cookies", []*http.Cookie{{Name: "x", Value: "y"}}, "x=y"},
		{"cookie string", "a=1; b=2", "a=1; b=2"},
		{"jar", jar, "j=1"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p, err := (&Request{URL: "http://example.com/", Cookies: testCase.cookies}).Prepare()
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, p.Header.Get("Cookie"))
		})
	}
	t.Run("explicit header wins", func(t *testing.T) {
		p, err := (&Request{URL: "http://example.com/", Header: NewHeader("cookie", "mine=1"), Cookies: Pairs{{"a", "1"}}}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, "mine=1", p.Header.Get("Cookie"))
	})
	t.Run("empty", func(t *testing.T) {
		p, err := (&Request{URL: "http://example.com/", Cookies: Pairs{}}).Prepare()
		require.NoError(t, err)
		assert.False(t, p.Header.Has("Cookie"))
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := (&Request{URL: "http://example.com/", Cookies: 42}).Prepare()
		assert.ErrorIs(t, err, ErrRequest)
	})
}

func TestAuth(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		p, err := (&Request{URL: "http://example.com/", Auth: BasicAuth("user", "pass")}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, &NativeAuth{Scheme: engine.AuthBasic, Username: "user", Password: "pass"}, p.NativeAuth)
		assert.False(t, p.Header.Has("Authorization"))
	})
	t.Run("bearer", func(t *testing.T) {
		p, err := (&Request{URL: "http://example.com/", Auth: BearerAuth("tok")}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", p.Header.Get("Authorization"))
		assert.Nil(t, p.NativeAuth)
	})
	t.Run("header auth changes body", func(t *testing.T) {
		sign := HeaderAuth(func(p *PreparedRequest) (*PreparedRequest, error) {
			p.Body = append(p.Body.([]byte), "&sig=x"...)
			p.Header.Set("X-Signed", "yes")
			return p, nil
		})
		p, err := (&Request{Method: "POST", URL: "http://example.com/", Data: "a=1", Auth: sign}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, "a=1&sig=x", string(p.Body.([]byte)))
		assert.Equal(t, "9", p.Header.Get("Content-Length"))
		assert.Equal(t, "yes", p.Header.Get("X-Signed"))
	})
	t.Run("header auth replaces request", func(t *testing.T) {
		replace := HeaderAuth(func(p *PreparedRequest) (*PreparedRequest, error) {
			return &PreparedRequest{Method: p.Method, URL: p.URL + "?signed", Body: []byte("xy")}, nil
		})
		p, err := (&Request{Method: "PUT", URL: "http://example.com/", Auth: replace}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, "http://example.com/?signed", p.URL)
		require.NotNil(t, p.Header)
		assert.Equal(t, "2", p.Header.Get("Content-Length"))
	})
	t.Run("header auth streams body", func(t *testing.T) {
		stream := HeaderAuth(func(p *PreparedRequest) (*PreparedRequest, error) {
			p.Body = iter.Seq[[]byte](func(yield func([]byte) bool) { yield([]byte("chunk")) })
			return p, nil
		})
		p, err := (&Request{Method: "POST", URL: "http://example.com/", Data: "a=1", Auth: stream}).Prepare()
		require.NoError(t, err)
		assert.False(t, p.Header.Has("Content-Length"))
		assert.Equal(t, int64(-1), contentLength(p.Header))
	})
	t.Run("header auth keeps request on nil", func(t *testing.T) {
		noop := HeaderAuth(func(*PreparedRequest) (*PreparedRequest, error) { return nil, nil })
		p, err := (&Request{URL: "http://example.com/x", Auth: noop}).Prepare()
		require.NoError(t, err)
		assert.Equal(t, "http://example.com/x", p.URL)
	})
	t.Run("header auth error", func(t *testing.T) {
		boom := errors.New("boom")
		fail := HeaderAuth(func(*PreparedRequest) (*PreparedRequest, error) { return nil, boom })
		_, err := (&Request{URL: "http://example.com/", Auth: fail}).Prepare()
		assert.Same(t, boom, err)
	})
}

func TestPreparedRequest(t *testing.T) {
	t.Run("PathURL", func(t *testing.T) {
		testCases := []struct {
			url      string
			expected string
		}{
			{"http://example.com", "/"},
			{"http://example.com/", "/"},
			{"http://example.com/a%20b", "/a%20b"},
			{"http://example.com/p?q=1&r=2", "/p?q=1&r=2"},
			{"http://example.com/p#frag", "/p"},
		}
		for _, testCase := range testCases {
			t.Run(testCase.url, func(t *testing.T) {
				p := &PreparedRequest{URL: testCase.url}
				assert.Equal(t, testCase.expected, p.PathURL())
			})
		}
	})
	t.Run("Clone", func(t *testing.T) {
		p := &PreparedRequest{Method: "GET", URL: "http://example.com/", Header: NewHeader("A", "1"), NativeAuth: BasicAuth("u", "p")}
		c := p.Clone()
		c.Header.Set("A", "2")
		c.NativeAuth.Password = "q"
		assert.Equal(t, "1", p.Header.Get("A"))
		assert.Equal(t, "p", p.NativeAuth.Password)
		assert.Equal(t, p.URL, c.URL)
	})
}
