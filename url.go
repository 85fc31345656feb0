// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// A Pair is one key/value pair of a query string, form or cookie list.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered list of key/value pairs. Unlike a map, it keeps
// insertion order and may repeat keys.
type Pairs []Pair

// Get returns the value of the first pair with the given key.
func (p Pairs) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}

	return "", false
}

// Update returns a copy of p updated with other as a dictionary: pairs
// of other whose key is already in p replace the value of the first
// such pair in place, while other pairs are appended.
func (p Pairs) Update(other Pairs) Pairs {
	out := slices.Clone(p)
	for _, pair := range other {
		i := slices.IndexFunc(out, func(q Pair) bool { return q.Key == pair.Key })
		if i >= 0 {
			out[i].Value = pair.Value
		} else {
			out = append(out, pair)
		}
	}

	return out
}

// Encode returns p in application/x-www-form-urlencoded form, keeping
// pair order.
func (p Pairs) Encode() string {
	var b strings.Builder
	for i, pair := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}

	return b.String()
}

// toPairs converts the loosely typed pair sources accepted for params,
// form data and cookies. Maps are walked in sorted key order so the
// result is deterministic; use Pairs to control order.
func toPairs(v interface{}) (Pairs, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Pairs:
		return x, nil
	case []Pair:
		return Pairs(x), nil
	case map[string]string:
		p := make(Pairs, 0, len(x))
		for _, k := range sortedKeys(x) {
			p = append(p, Pair{k, x[k]})
		}
		return p, nil
	case url.Values:
		return valuesPairs(x), nil
	case map[string][]string:
		return valuesPairs(x), nil
	case string:
		return parseQuery(x), nil
	case []byte:
		return parseQuery(string(x)), nil
	default:
		return nil, fmt.Errorf("unsupported pair source type %T", v)
	}
}

func valuesPairs(m map[string][]string) Pairs {
	var p Pairs
	for _, k := range sortedKeys(m) {
		for _, v := range m[k] {
			p = append(p, Pair{k, v})
		}
	}

	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// parseQuery parses a query string into pairs. Fields without "=" get
// an empty value, and fields that fail to unescape are kept verbatim.
func parseQuery(q string) Pairs {
	var p Pairs
	for _, part := range strings.Split(q, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if uv, err := url.QueryUnescape(v); err == nil {
			v = uv
		}
		p = append(p, Pair{k, v})
	}

	return p
}

// PrepareURL returns the canonical form of rawURL with params merged
// into its query.
//
// URLs containing a colon whose scheme does not begin with "http" are
// returned unchanged, so callers may use schemes this package knows
// nothing about. Otherwise the scheme is lower-cased, a non-ASCII host
// is IDNA-encoded, the path is percent-encoded (existing escapes are
// kept) with an empty path becoming "/", and params, if not empty, are
// appended to the pairs already in the query. Duplicate keys are kept.
//
// Params may be a raw query string or []byte, Pairs, []Pair, url.Values,
// map[string][]string or map[string]string.
func PrepareURL(rawURL string, params interface{}) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	if strings.Contains(rawURL, ":") && !strings.HasPrefix(strings.ToLower(rawURL), "http") {
		return rawURL, nil
	}

	scheme, rest, ok := strings.Cut(rawURL, ":")
	if !ok {
		return "", newError(KindMissingSchema, "Invalid URL %q: No scheme supplied. Perhaps you meant http://%s?", rawURL, rawURL)
	}
	if !validScheme(scheme) {
		return "", newError(KindInvalidSchema, "Invalid URL %q: malformed scheme", rawURL)
	}
	scheme = strings.ToLower(scheme)

	var netloc string
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		netloc, rest = rest[:end], rest[end:]
	}
	if netloc == "" {
		return "", newError(KindInvalidURL, "Invalid URL %q: No host supplied", rawURL)
	}
	netloc, err := prepareNetloc(netloc)
	if err != nil {
		return "", newError(KindInvalidURL, "Invalid URL %q: %s", rawURL, err)
	}

	rest, fragment, hasFragment := strings.Cut(rest, "#")
	path, query, _ := strings.Cut(rest, "?")

	if path == "" {
		path = "/"
	} else {
		path = quotePath(path)
	}

	extra, err := toPairs(params)
	if err != nil {
		return "", newError(KindInvalidURL, "Invalid params: %s", err)
	}
	if len(extra) > 0 {
		query = append(parseQuery(query), extra...).Encode()
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(netloc)
	b.WriteString(path)
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if hasFragment && fragment != "" {
		b.WriteByte('#')
		b.WriteString(fragment)
	}

	return b.String(), nil
}

// validScheme reports whether s matches the RFC 3986 scheme production.
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}

	return true
}

// prepareNetloc IDNA-encodes a non-ASCII host and checks the port.
func prepareNetloc(netloc string) (string, error) {
	userinfo, hostport := "", netloc
	if i := strings.LastIndexByte(netloc, '@'); i >= 0 {
		userinfo, hostport = netloc[:i+1], netloc[i+1:]
	}

	host, port := hostport, ""
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", fmt.Errorf("unterminated IPv6 literal")
		}
		host, port = hostport[:end+1], hostport[end+1:]
	} else if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		host, port = hostport[:i], hostport[i:]
	}

	if port != "" {
		if port[0] != ':' {
			return "", fmt.Errorf("invalid port %q", port)
		}
		for _, c := range port[1:] {
			if c < '0' || c > '9' {
				return "", fmt.Errorf("invalid port %q", port[1:])
			}
		}
	}
	if host == "" {
		return "", fmt.Errorf("No host supplied")
	}

	if !isASCII(host) {
		if !utf8.ValidString(host) {
			return "", fmt.Errorf("host is not valid UTF-8")
		}
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("URL has an invalid label")
		}
		host = ascii
	}

	return userinfo + host + port, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}

	return true
}

const upperhex = "0123456789ABCDEF"

// quotePath percent-encodes every byte of path other than unreserved
// characters and "/". Valid percent escapes are left alone so quoting
// an already quoted path changes nothing.
func quotePath(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '%' && i+2 < len(path) && isHex(path[i+1]) && isHex(path[i+2]):
			b.WriteString(path[i : i+3])
			i += 2
		case unreservedPath(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}

	return b.String()
}

func unreservedPath(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	return strings.IndexByte("-._~/", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
