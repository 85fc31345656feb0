// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResponse(status int, header *Header, body string) *Response {
	r := newResponse([]byte(body))
	r.StatusCode = status
	r.Header = header
	if r.Header == nil {
		r.Header = &Header{}
	}
	r.Encoding = encodingFromHeader(r.Header.Get("Content-Type"))
	r.URL = "http://example.com/p"
	return r
}

func TestResponseText(t *testing.T) {
	testCases := []struct {
		name     string
		encoding string
		body     string
		expected string
	}{
		{"default latin-1", "", "caf\xe9", "café"},
		{"latin-1 alias", "latin1", "caf\xe9", "café"},
		{"utf-8", "utf-8", "café", "café"},
		{"utf-8 upper", "UTF-8", "café", "café"},
		{"invalid utf-8", "utf-8", "a\xffb", "a\uFFFDb"},
		{"windows-1252", "windows-1252", "\x80", "€"},
		{"whatwg label", "sjis", "\x82\xa0", "あ"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r := testResponse(200, nil, testCase.body)
			r.Encoding = testCase.encoding
			text, err := r.Text()
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, text)
		})
	}
	t.Run("unknown encoding", func(t *testing.T) {
		r := testResponse(200, nil, "x")
		r.Encoding = "no-such-encoding"
		_, err := r.Text()
		assert.ErrorIs(t, err, ErrRequest)
		_, err = r.IterText(1)
		assert.ErrorIs(t, err, ErrRequest)
	})
}

func TestEncodingFromHeader(t *testing.T) {
	testCases := []struct {
		contentType string
		expected    string
	}{
		{"", ""},
		{"text/html", "iso-8859-1"},
		{"TEXT/PLAIN", "iso-8859-1"},
		{"text/html; charset=UTF-8", "UTF-8"},
		{`text/plain; charset="shift_jis"`, "shift_jis"},
		{"application/json", "utf-8"},
		{"application/json; charset=latin1", "latin1"},
		{"image/png", ""},
		{"text/plain; charset", "iso-8859-1"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.contentType, func(t *testing.T) {
			assert.Equal(t, testCase.expected, encodingFromHeader(testCase.contentType))
		})
	}
}

func TestResponse(t *testing.T) {
	t.Run("Content", func(t *testing.T) {
		r := testResponse(200, nil, "abc")
		assert.Equal(t, []byte("abc"), r.Content())
		assert.Equal(t, []byte("abc"), r.Content())
	})
	t.Run("ApparentEncoding", func(t *testing.T) {
		assert.Equal(t, "ascii", testResponse(200, nil, "hello").ApparentEncoding())
		assert.Equal(t, "ascii", testResponse(200, nil, "").ApparentEncoding())
		assert.Equal(t, "utf-8", testResponse(200, nil, "caf\xc3\xa9").ApparentEncoding())
		assert.Equal(t, "windows-1252", testResponse(200, nil, "caf\xe9").ApparentEncoding())
	})
	t.Run("JSON", func(t *testing.T) {
		r := testResponse(200, NewHeader("Content-Type", "application/json"), `{"a": 1, "b": ["x"]}`)
		var v struct {
			A int      `json:"a"`
			B []string `json:"b"`
		}
		require.NoError(t, r.JSON(&v))
		assert.Equal(t, 1, v.A)
		assert.Equal(t, []string{"x"}, v.B)
	})
	t.Run("JSON invalid", func(t *testing.T) {
		r := testResponse(200, nil, `{"a": `)
		var v interface{}
		err := r.JSON(&v)
		assert.ErrorIs(t, err, ErrRequest)
		var re *Error
		require.True(t, errors.As(err, &re))
		assert.Same(t, r, re.Response)
	})
	t.Run("JSONPath", func(t *testing.T) {
		r := testResponse(200, nil, `{"items": [{"name": "x"}, {"name": "y"}]}`)
		assert.Equal(t, "y", r.JSONPath("items.1.name").String())
		assert.Equal(t, int64(2), r.JSONPath("items.#").Int())
		assert.False(t, r.JSONPath("missing").Exists())
	})
	t.Run("OK", func(t *testing.T) {
		assert.True(t, testResponse(200, nil, "").OK())
		assert.True(t, testResponse(399, nil, "").OK())
		assert.False(t, testResponse(400, nil, "").OK())
		assert.False(t, testResponse(503, nil, "").OK())
	})
	t.Run("redirects", func(t *testing.T) {
		testCases := []struct {
			status    int
			location  bool
			redirect  bool
			permanent bool
		}{
			{301, true, true, true},
			{302, true, true, false},
			{303, true, true, false},
			{307, true, true, false},
			{308, true, true, true},
			{302, false, false, false},
			{308, false, false, false},
			{300, true, false, false},
			{200, true, false, false},
		}
		for _, testCase := range testCases {
			h := &Header{}
			if testCase.location {
				h.Set("Location", "/x")
			}
			r := testResponse(testCase.status, h, "")
			assert.Equal(t, testCase.redirect, r.IsRedirect(), "status %d location %t", testCase.status, testCase.location)
			assert.Equal(t, testCase.permanent, r.IsPermanentRedirect(), "status %d location %t", testCase.status, testCase.location)
		}
	})
	t.Run("Cookies", func(t *testing.T) {
		h := &Header{}
		h.Add("Set-Cookie", "a=1; Path=/")
		h.Add("Set-Cookie", "")
		h.Add("Set-Cookie", "b=2; HttpOnly")
		cookies := testResponse(200, h, "").Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, "a", cookies[0].Name)
		assert.Equal(t, "/", cookies[0].Path)
		assert.Equal(t, "2", cookies[1].Value)
		assert.True(t, cookies[1].HttpOnly)
	})
	t.Run("RaiseForStatus", func(t *testing.T) {
		testCases := []struct {
			status  int
			reason  string
			message string
		}{
			{200, "OK", ""},
			{302, "Found", ""},
			{404, "Not Found", "404 Client Error: Not Found for url: http://example.com/p"},
			{503, "Service Unavailable", "503 Server Error: Service Unavailable for url: http://example.com/p"},
		}
		for _, testCase := range testCases {
			r := testResponse(testCase.status, nil, "")
			r.Reason = testCase.reason
			r.Request = &PreparedRequest{URL: r.URL}
			err := r.RaiseForStatus()
			if testCase.message == "" {
				assert.NoError(t, err)
				continue
			}
			assert.ErrorIs(t, err, ErrHTTP)
			var re *Error
			require.True(t, errors.As(err, &re))
			assert.Equal(t, testCase.message, re.Message)
			assert.Same(t, r, re.Response)
			assert.Same(t, r.Request, re.Request)
		}
	})
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "<Response [204]>", testResponse(204, nil, "").String())
	})
}
