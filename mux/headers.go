// File: mux/headers.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// Ordered header storage and the literal header-block encoding used by
// HEADERS, PUSH_PROMISE and CONTINUATION frames. Storage keeps insertion
// order, which a map would lose; lookup is linear, which beats hashing on
// the small header counts seen in practice.

package mux

import (
	"encoding/binary"
	"strings"
)

// Pseudo-header names. They sort before regular headers by convention:
// callers add them first and the codec preserves order.
const (
	PseudoMethod    = ":method"
	PseudoScheme    = ":scheme"
	PseudoAuthority = ":authority"
	PseudoPath      = ":path"
)

// HeaderField is a single name/value pair.
type HeaderField struct {
	Name, Value string
}

// Headers is an ordered sequence of name/value pairs.
type Headers struct {
	fields []HeaderField
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return new(Headers)
}

// Add appends a pair, keeping insertion order.
func (h *Headers) Add(name, value string) *Headers {
	h.fields = append(h.fields, HeaderField{Name: name, Value: value})
	return h
}

// Get returns the first value for name, matching case-insensitively.
func (h *Headers) Get(name string) (string, bool) {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the first occurrence of name or appends the pair if absent.
func (h *Headers) Set(name, value string) *Headers {
	for i, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			h.fields[i].Value = value
			return h
		}
	}
	return h.Add(name, value)
}

// Len returns the number of stored pairs.
func (h *Headers) Len() int { return len(h.fields) }

// Fields returns the underlying pair slice in insertion order. The slice is
// shared with the container; callers must not retain it across mutations.
func (h *Headers) Fields() []HeaderField { return h.fields }

// Method returns the ":method" pseudo-header, or "".
func (h *Headers) Method() string { v, _ := h.Get(PseudoMethod); return v }

// Scheme returns the ":scheme" pseudo-header, or "".
func (h *Headers) Scheme() string { v, _ := h.Get(PseudoScheme); return v }

// Authority returns the ":authority" pseudo-header, or "".
func (h *Headers) Authority() string { v, _ := h.Get(PseudoAuthority); return v }

// Path returns the ":path" pseudo-header, or "".
func (h *Headers) Path() string { v, _ := h.Get(PseudoPath); return v }

// Equal reports whether both containers hold the same pairs in the same order.
func (h *Headers) Equal(o *Headers) bool {
	if h.Len() != o.Len() {
		return false
	}
	for i, f := range h.fields {
		if o.fields[i] != f {
			return false
		}
	}
	return true
}

// The block encoding is a flat literal form: for every pair, a uvarint name
// length, the name bytes, a uvarint value length and the value bytes. A full
// compression table is out of scope here; the layout only has to be
// self-delimiting so the writer can split it across continuation frames at
// any byte offset.

// appendBlock appends the encoded block to dst and returns the result.
func (h *Headers) appendBlock(dst []byte) []byte {
	for _, f := range h.fields {
		dst = binary.AppendUvarint(dst, uint64(len(f.Name)))
		dst = append(dst, f.Name...)
		dst = binary.AppendUvarint(dst, uint64(len(f.Value)))
		dst = append(dst, f.Value...)
	}
	return dst
}

// decodeHeaderBlock parses a complete reassembled block.
func decodeHeaderBlock(block []byte) (*Headers, error) {
	h := NewHeaders()
	for len(block) > 0 {
		name, rest, err := readLenPrefixed(block)
		if err != nil {
			return nil, err
		}
		value, rest2, err := readLenPrefixed(rest)
		if err != nil {
			return nil, err
		}
		h.Add(string(name), string(value))
		block = rest2
	}
	return h, nil
}

func readLenPrefixed(b []byte) ([]byte, []byte, error) {
	n, used := binary.Uvarint(b)
	if used <= 0 || n > uint64(len(b)-used) {
		return nil, nil, ErrBadHeaderBlock
	}
	return b[used : used+int(n)], b[used+int(n):], nil
}
