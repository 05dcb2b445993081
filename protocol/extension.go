// File: protocol/extension.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sec-WebSocket-Extensions parsing and serialization. Offers are kept
// in declaration order and each offer keeps its parameters in
// declaration order, since negotiation outcome depends on which offer
// is examined first.

package protocol

import "strings"

// ExtensionParam is a single extension parameter. Value is empty for
// valueless parameters.
type ExtensionParam struct {
	Key   string
	Value string
}

// Extension is one offered extension with its parameters.
type Extension struct {
	Name   string
	Params []ExtensionParam
}

// Param returns the value of the named parameter and whether it was
// present.
func (e *Extension) Param(key string) (string, bool) {
	for _, p := range e.Params {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// ParseExtensions parses a Sec-WebSocket-Extensions header value into
// an ordered offer list. Malformed elements are skipped rather than
// failing the whole header.
func ParseExtensions(header string) []Extension {
	var out []Extension
	for _, element := range strings.Split(header, ",") {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		parts := strings.Split(element, ";")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		ext := Extension{Name: name}
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, value, found := strings.Cut(part, "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if found {
				value = strings.Trim(strings.TrimSpace(value), `"`)
			}
			ext.Params = append(ext.Params, ExtensionParam{Key: key, Value: value})
		}
		out = append(out, ext)
	}
	return out
}

// AppendExtension serializes ext and appends it to an existing
// Sec-WebSocket-Extensions header value, inserting a separator when the
// value is non-empty.
func AppendExtension(header string, ext Extension) string {
	var sb strings.Builder
	if header != "" {
		sb.WriteString(header)
		sb.WriteString(", ")
	}
	sb.WriteString(ext.Name)
	for _, p := range ext.Params {
		sb.WriteString("; ")
		sb.WriteString(p.Key)
		if p.Value != "" {
			sb.WriteString("=")
			sb.WriteString(p.Value)
		}
	}
	return sb.String()
}
