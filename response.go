// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// A Response is the response to a completed exchange.
//
// The content is buffered in full before the Response is returned.
// Content returns the whole buffer every time it is called, while the
// Iter methods consume it through a single shared read cursor: an
// iteration resumes where the previous one stopped, and mixing
// iterators on the same Response yields undefined interleavings.
type Response struct {
	// StatusCode is the status code of the final hop.
	StatusCode int

	// Reason is the reason phrase from the status line of the final hop.
	Reason string

	// Header holds the header fields of the final hop. Repeated fields
	// are kept as multiple values and read joined by Header.Get.
	Header *Header

	// Encoding is the character encoding of the content, derived from
	// the Content-Type header. It is empty if unknown, and may be
	// changed before calling Text or the text iterators.
	Encoding string

	// URL is the effective URL after redirects.
	URL string

	// Elapsed is the time spent performing the exchange, excluding
	// request preparation and engine configuration.
	Elapsed time.Duration

	// Request is the prepared request that produced the response.
	Request *PreparedRequest

	body []byte
	raw  *bytes.Reader
}

func newResponse(body []byte) *Response {
	return &Response{
		body: body,
		raw:  bytes.NewReader(body),
	}
}

// Content returns the response content. Repeated calls return the same
// bytes, which must not be modified.
func (r *Response) Content() []byte {
	return r.body
}

// Text returns the content decoded with Encoding, or with ISO-8859-1 if
// Encoding is empty. Invalid sequences decode to U+FFFD. An error is
// returned only if Encoding names an unknown encoding.
func (r *Response) Text() (string, error) {
	enc, err := r.encoding()
	if err != nil {
		return "", err
	}

	b, err := enc.NewDecoder().Bytes(r.body)
	if err != nil {
		return "", &Error{Kind: KindRequest, Message: err.Error(), Err: err}
	}

	return string(b), nil
}

func (r *Response) encoding() (encoding.Encoding, error) {
	name := r.Encoding
	if name == "" {
		name = "iso-8859-1"
	}

	return lookupEncoding(name)
}

// lookupEncoding finds an encoding by its IANA name, falling back to the
// WHATWG labels browsers accept. Latin-1 is resolved to true ISO-8859-1
// rather than the windows-1252 superset the WHATWG labels map it to.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iso-8859-1", "iso8859-1", "latin-1", "latin1", "l1":
		return charmap.ISO8859_1, nil
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}

	return nil, newError(KindRequest, "unknown encoding %q", name)
}

// ApparentEncoding guesses the encoding of the content from the bytes
// alone. Pure ASCII content is reported as "ascii".
func (r *Response) ApparentEncoding() string {
	if isASCII(string(r.body)) {
		return "ascii"
	}

	_, name, _ := charset.DetermineEncoding(r.body, "")
	return name
}

// JSON decodes the content as JSON into v.
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &Error{Kind: KindRequest, Message: fmt.Sprintf("invalid json: %s", err), Response: r, Err: err}
	}

	return nil
}

// JSONPath looks up a gjson path expression in the content, for example
// "items.0.name". The result reports whether the path exists.
func (r *Response) JSONPath(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}

// OK reports whether the status code is below 400.
func (r *Response) OK() bool {
	return r.StatusCode < 400
}

// IsRedirect reports whether the response is a redirect that has a
// Location header.
func (r *Response) IsRedirect() bool {
	switch r.StatusCode {
	case 301, 302, 303, 307, 308:
		return r.Header.Has("Location")
	}

	return false
}

// IsPermanentRedirect reports whether the response is a 301 or 308
// redirect that has a Location header.
func (r *Response) IsPermanentRedirect() bool {
	return (r.StatusCode == 301 || r.StatusCode == 308) && r.Header.Has("Location")
}

// Cookies parses the Set-Cookie headers of the final hop. Malformed
// headers are skipped.
func (r *Response) Cookies() []*http.Cookie {
	var cookies []*http.Cookie
	for _, line := range r.Header.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err == nil {
			cookies = append(cookies, c)
		}
	}

	return cookies
}

// RaiseForStatus returns an ErrHTTP error, with r attached, if the
// status code is 4xx or 5xx. Otherwise it returns nil.
func (r *Response) RaiseForStatus() error {
	var class string
	switch {
	case 400 <= r.StatusCode && r.StatusCode < 500:
		class = "Client Error"
	case 500 <= r.StatusCode && r.StatusCode < 600:
		class = "Server Error"
	default:
		return nil
	}

	err := newError(KindHTTP, "%d %s: %s for url: %s", r.StatusCode, class, r.Reason, r.URL)
	err.Request = r.Request
	err.Response = r
	return err
}

func (r *Response) String() string {
	return fmt.Sprintf("<Response [%d]>", r.StatusCode)
}

// encodingFromHeader returns the charset parameter of contentType. If
// there is none, text types default to ISO-8859-1 and JSON to UTF-8.
func encodingFromHeader(contentType string) string {
	if contentType == "" {
		return ""
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil {
		if cs := strings.Trim(params["charset"], `"' `); cs != "" {
			return cs
		}
	} else {
		mediaType = strings.ToLower(contentType)
	}

	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return "iso-8859-1"
	case strings.HasPrefix(mediaType, "application/json"):
		return "utf-8"
	}

	return ""
}
