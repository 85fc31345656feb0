// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gogama/reqx/engine"
	"github.com/gogama/reqx/timeout"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config describes a Session in YAML form:
//
//	headers:
//	  Accept: application/json
//	params:
//	  api-version: "2"
//	cookies:
//	  session: abc
//	max_redirects: 5
//	timeout: 10s          # or {connect: 2s, read: 30s}
//	user_agent: my-app/1.0
//	disable_http2: false
//	rate_limit: 20        # requests per second
//	burst: 5
//
// Mapping order is kept for headers, params and cookies.
type Config struct {
	Headers      Pairs         `yaml:"headers"`
	Params       Pairs         `yaml:"params"`
	Cookies      Pairs         `yaml:"cookies"`
	MaxRedirects *int          `yaml:"max_redirects"`
	Timeout      TimeoutConfig `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	DisableHTTP2 bool          `yaml:"disable_http2"`
	RateLimit    float64       `yaml:"rate_limit"`
	Burst        int           `yaml:"burst"`
}

// TimeoutConfig is a timeout budget written either as a single
// duration or as a mapping with connect and read durations.
type TimeoutConfig timeout.Budget

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *TimeoutConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var d time.Duration
		if err := node.Decode(&d); err != nil {
			return err
		}
		*c = TimeoutConfig(timeout.Fixed(d))
		return nil
	}

	var phases struct {
		Connect time.Duration `yaml:"connect"`
		Read    time.Duration `yaml:"read"`
	}
	if err := node.Decode(&phases); err != nil {
		return err
	}
	*c = TimeoutConfig(timeout.Phased(phases.Connect, phases.Read))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Pairs are decoded from a
// mapping, in document order, or from a sequence of single-entry
// mappings when keys repeat.
func (p *Pairs) UnmarshalYAML(node *yaml.Node) error {
	var out Pairs
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = append(out, Pair{node.Content[i].Value, node.Content[i+1].Value})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var sub Pairs
			if err := item.Decode(&sub); err != nil {
				return err
			}
			out = append(out, sub...)
		}
	default:
		return fmt.Errorf("line %d: expected a mapping of pairs", node.Line)
	}

	*p = out
	return nil
}

// LoadConfig decodes a Config from YAML.
func LoadConfig(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reqx: invalid config: %w", err)
	}
	if err := timeout.Budget(c.Timeout).Validate(); err != nil {
		return nil, fmt.Errorf("reqx: invalid config: %w", err)
	}

	return &c, nil
}

// LoadConfigFile decodes a Config from the YAML file at path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadConfig(f)
}

// NewSession returns a session with the configured defaults and a
// NetHTTP engine handle configured with the user agent and HTTP/2
// setting.
func (c *Config) NewSession() *Session {
	s := NewSessionWithEngine(engine.New(engine.Config{
		UserAgent:    c.UserAgent,
		DisableHTTP2: c.DisableHTTP2,
	}))

	for _, pair := range c.Headers {
		s.Header.Add(pair.Key, pair.Value)
	}
	s.Params = c.Params
	s.Cookies = c.Cookies
	if c.MaxRedirects != nil {
		s.MaxRedirects = *c.MaxRedirects
	}
	s.Timeout = timeout.Budget(c.Timeout)
	if c.RateLimit > 0 {
		burst := c.Burst
		if burst < 1 {
			burst = 1
		}
		s.Limiter = rate.NewLimiter(rate.Limit(c.RateLimit), burst)
	}

	return s
}
