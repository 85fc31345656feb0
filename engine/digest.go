// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// basicAuth returns the Basic credential string for username and
// password, without the scheme prefix.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// A digestChallenge holds the parameters of a WWW-Authenticate Digest
// challenge.
type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       string
}

// parseDigestChallenge extracts the first Digest challenge from the
// WWW-Authenticate header values. It returns false if there is none.
func parseDigestChallenge(values []string) (digestChallenge, bool) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) < 7 || !strings.EqualFold(v[:7], "digest ") {
			continue
		}

		params := parseAuthParams(v[7:])
		c := digestChallenge{
			realm:     params["realm"],
			nonce:     params["nonce"],
			opaque:    params["opaque"],
			algorithm: params["algorithm"],
		}
		for _, q := range strings.Split(params["qop"], ",") {
			if strings.TrimSpace(q) == "auth" {
				c.qop = "auth"
			}
		}
		if c.nonce == "" {
			continue
		}

		return c, true
	}

	return digestChallenge{}, false
}

// parseAuthParams parses comma separated key=value pairs where values
// may be quoted strings containing commas.
func parseAuthParams(s string) map[string]string {
	params := make(map[string]string)
	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t,")
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimLeft(s[eq+1:], " \t")

		var val string
		if strings.HasPrefix(s, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				b.WriteByte(s[i])
			}
			val = b.String()
			if i < len(s) {
				i++
			}
			s = s[i:]
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			val = strings.TrimSpace(s[:end])
			s = s[end:]
		}

		params[key] = val
	}

	return params
}

// authorization computes the Authorization header value answering the
// challenge for the given request method and request URI. The nonce
// count is always 1 since each challenge is answered once.
func (c digestChallenge) authorization(username, password, method, uri string) (string, error) {
	var newHash func() hash.Hash
	switch strings.ToUpper(c.algorithm) {
	case "", "MD5":
		newHash = md5.New
	case "SHA-256":
		newHash = sha256.New
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", c.algorithm)
	}

	h := func(s string) string {
		d := newHash()
		_, _ = io.WriteString(d, s)
		return hex.EncodeToString(d.Sum(nil))
	}

	ha1 := h(username + ":" + c.realm + ":" + password)
	ha2 := h(method + ":" + uri)

	const nc = "00000001"
	var cnonce, response string
	if c.qop != "" {
		b := make([]byte, 8)
		if _, err := io.ReadFull(rand.Reader, b); err != nil {
			return "", err
		}
		cnonce = hex.EncodeToString(b)
		response = h(strings.Join([]string{ha1, c.nonce, nc, cnonce, c.qop, ha2}, ":"))
	} else {
		response = h(ha1 + ":" + c.nonce + ":" + ha2)
	}

	parts := []string{
		fmt.Sprintf(`username="%s"`, username),
		fmt.Sprintf(`realm="%s"`, c.realm),
		fmt.Sprintf(`nonce="%s"`, c.nonce),
		fmt.Sprintf(`uri="%s"`, uri),
	}
	if c.algorithm != "" {
		parts = append(parts, "algorithm="+c.algorithm)
	}
	parts = append(parts, fmt.Sprintf(`response="%s"`, response))
	if c.qop != "" {
		parts = append(parts, "qop="+c.qop, "nc="+nc, fmt.Sprintf(`cnonce="%s"`, cnonce))
	}
	if c.opaque != "" {
		parts = append(parts, fmt.Sprintf(`opaque="%s"`, c.opaque))
	}

	return "Digest " + strings.Join(parts, ", "), nil
}
