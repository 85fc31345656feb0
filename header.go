// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"iter"
	"strings"
)

// A Header is a case-insensitive ordered map of header fields.
//
// Names are compared case-insensitively, but the casing used by the
// first insertion of a name is kept for enumeration and serialization.
// Set replaces the values of a name (last write wins), while Add appends
// a value. Get joins multiple values with ", " as RFC 7230 section 3.3.2
// permits.
//
// Unset records a request header that must be removed while the request
// is prepared. It differs from Del in that the name survives a Merge,
// so a per-call Unset removes a session default header.
//
// The zero value is an empty header ready to use. A nil *Header is a
// valid empty header for reading.
type Header struct {
	names  []string
	fields map[string]*field
}

type field struct {
	name   string
	values []string
	unset  bool
}

// NewHeader returns a header holding the given name/value pairs, which
// are applied in order with Set. It panics if kv has odd length.
func NewHeader(kv ...string) *Header {
	if len(kv)%2 != 0 {
		panic("reqx: NewHeader: odd argument count")
	}

	h := &Header{}
	for i := 0; i < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}

	return h
}

func (h *Header) lookup(name string) *field {
	if h == nil || h.fields == nil {
		return nil
	}

	return h.fields[strings.ToLower(name)]
}

func (h *Header) entry(name string) *field {
	key := strings.ToLower(name)
	if h.fields == nil {
		h.fields = make(map[string]*field)
	}

	f := h.fields[key]
	if f == nil {
		f = &field{name: name}
		h.fields[key] = f
		h.names = append(h.names, key)
	}

	return f
}

// Set sets the value of name, replacing any values it had.
func (h *Header) Set(name, value string) {
	f := h.entry(name)
	f.values = []string{value}
	f.unset = false
}

// Add appends value to the values of name.
func (h *Header) Add(name, value string) {
	f := h.entry(name)
	if f.unset {
		f.values = nil
		f.unset = false
	}
	f.values = append(f.values, value)
}

// Unset marks name for removal when a request is prepared.
func (h *Header) Unset(name string) {
	f := h.entry(name)
	f.values = nil
	f.unset = true
}

// Del removes name.
func (h *Header) Del(name string) {
	if h.lookup(name) == nil {
		return
	}

	key := strings.ToLower(name)
	delete(h.fields, key)
	for i, n := range h.names {
		if n == key {
			h.names = append(h.names[:i], h.names[i+1:]...)
			break
		}
	}
}

// Get returns the values of name joined with ", ", or the empty string
// if name is not present.
func (h *Header) Get(name string) string {
	f := h.lookup(name)
	if f == nil || f.unset {
		return ""
	}

	return strings.Join(f.values, ", ")
}

// Values returns the values of name in the order they were added. The
// returned slice must not be modified.
func (h *Header) Values(name string) []string {
	f := h.lookup(name)
	if f == nil || f.unset {
		return nil
	}

	return f.values
}

// Has reports whether name is present and not unset.
func (h *Header) Has(name string) bool {
	f := h.lookup(name)
	return f != nil && !f.unset
}

// Len returns the number of names present.
func (h *Header) Len() int {
	n := 0
	for range h.All() {
		n++
	}

	return n
}

// Keys returns the names present, in first insertion order and with
// the casing of their first insertion.
func (h *Header) Keys() []string {
	var keys []string
	for name := range h.All() {
		keys = append(keys, name)
	}

	return keys
}

// All returns an iterator over the names present and their joined
// values, in first insertion order.
func (h *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, key := range h.names {
			f := h.fields[key]
			if f.unset {
				continue
			}
			if !yield(f.name, strings.Join(f.values, ", ")) {
				return
			}
		}
	}
}

// Clone returns a deep copy of h, including unset marks.
func (h *Header) Clone() *Header {
	c := &Header{}
	if h == nil {
		return c
	}

	c.names = append([]string(nil), h.names...)
	c.fields = make(map[string]*field, len(h.fields))
	for key, f := range h.fields {
		c.fields[key] = &field{
			name:   f.name,
			values: append([]string(nil), f.values...),
			unset:  f.unset,
		}
	}

	return c
}

// Merge copies every name of other into h, replacing the values h has
// for that name. Unset marks are copied as well.
func (h *Header) Merge(other *Header) {
	if other == nil {
		return
	}

	for _, key := range other.names {
		src := other.fields[key]
		dst := h.entry(src.name)
		dst.values = append([]string(nil), src.values...)
		dst.unset = src.unset
	}
}

// compact drops names marked by Unset.
func (h *Header) compact() {
	if h == nil {
		return
	}

	names := h.names[:0]
	for _, key := range h.names {
		if h.fields[key].unset {
			delete(h.fields, key)
			continue
		}
		names = append(names, key)
	}
	h.names = names
}

func (h *Header) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for name, value := range h.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
	}
	b.WriteByte('}')

	return b.String()
}
