// File: protocol/handshake.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocket upgrade handshake: request validation, Sec-WebSocket-Accept
// computation, and response serialization. The response travels through
// the connection pipeline as *UpgradeResponse so that extension
// negotiators can append Sec-WebSocket-Extensions tokens before it hits
// the wire.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	WebSocketGUID            = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	MaxHandshakeHeadersSize  = 8192
	HeaderConnection         = "Connection"
	HeaderUpgrade            = "Upgrade"
	HeaderSecWebSocketKey    = "Sec-WebSocket-Key"
	HeaderSecWebSocketVer    = "Sec-WebSocket-Version"
	HeaderSecWebSocketExt    = "Sec-WebSocket-Extensions"
	RequiredWebSocketVersion = "13"
)

var (
	ErrInvalidUpgradeHeaders = fmt.Errorf("invalid WebSocket upgrade headers")
	ErrMissingWebSocketKey   = fmt.Errorf("missing Sec-WebSocket-Key header")
	ErrBadWebSocketVersion   = fmt.Errorf("unsupported WebSocket version; only '13' is supported")
)

// UpgradeRequest carries a parsed client upgrade request through the
// inbound side of the pipeline.
type UpgradeRequest struct {
	Request *http.Request
}

// UpgradeResponse carries the 101 Switching Protocols response through
// the outbound side of the pipeline. Stages may mutate Header before
// the response is serialized.
type UpgradeResponse struct {
	Header http.Header
}

// IsUpgradeRequest reports whether msg is an upgrade request.
func IsUpgradeRequest(msg any) (*UpgradeRequest, bool) {
	req, ok := msg.(*UpgradeRequest)
	return req, ok
}

// IsUpgradeResponse reports whether msg is an upgrade response.
func IsUpgradeResponse(msg any) (*UpgradeResponse, bool) {
	resp, ok := msg.(*UpgradeResponse)
	return resp, ok
}

// UpgradeToWebSocket validates the client request headers, computes
// Sec-WebSocket-Accept and returns the response ready for the pipeline.
func UpgradeToWebSocket(req *http.Request) (*UpgradeResponse, error) {
	total := 0
	for k, vs := range req.Header {
		total += len(k)
		for _, v := range vs {
			total += len(v)
			if total > MaxHandshakeHeadersSize {
				return nil, fmt.Errorf("handshake headers too large")
			}
		}
	}
	if !headerContainsToken(req.Header, HeaderConnection, "Upgrade") ||
		!headerContainsToken(req.Header, HeaderUpgrade, "websocket") {
		return nil, ErrInvalidUpgradeHeaders
	}
	if req.Header.Get(HeaderSecWebSocketVer) != RequiredWebSocketVersion {
		return nil, ErrBadWebSocketVersion
	}
	key := req.Header.Get(HeaderSecWebSocketKey)
	if key == "" {
		return nil, ErrMissingWebSocketKey
	}
	hdr := make(http.Header)
	hdr.Set("Upgrade", "websocket")
	hdr.Set("Connection", "Upgrade")
	hdr.Set("Sec-WebSocket-Accept", ComputeAcceptKey(key))
	return &UpgradeResponse{Header: hdr}, nil
}

// ComputeAcceptKey derives the Sec-WebSocket-Accept value from the
// client key.
func ComputeAcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Known handshake headers in emission order, mapped from their
// net/http-canonical map keys to the casing RFC 6455 uses on the wire.
// http.Header canonicalizes "Sec-WebSocket-Accept" to
// "Sec-Websocket-Accept", which some clients reject.
var responseHeaderOrder = []struct {
	canonical, wire string
}{
	{"Upgrade", "Upgrade"},
	{"Connection", "Connection"},
	{"Sec-Websocket-Accept", "Sec-WebSocket-Accept"},
	{"Sec-Websocket-Protocol", "Sec-WebSocket-Protocol"},
	{"Sec-Websocket-Extensions", "Sec-WebSocket-Extensions"},
}

// WriteHandshakeResponse serializes the 101 response into dst and
// returns the extended slice. Known headers go out first, in a fixed
// order with their conventional casing; any extra headers follow in
// sorted order.
func WriteHandshakeResponse(resp *UpgradeResponse, dst []byte) []byte {
	dst = append(dst, "HTTP/1.1 101 Switching Protocols\r\n"...)
	for _, h := range responseHeaderOrder {
		for _, v := range resp.Header[h.canonical] {
			dst = appendHeaderLine(dst, h.wire, v)
		}
	}
	extra := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		if !isKnownResponseHeader(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		for _, v := range resp.Header[k] {
			dst = appendHeaderLine(dst, k, v)
		}
	}
	return append(dst, "\r\n"...)
}

func appendHeaderLine(dst []byte, name, value string) []byte {
	dst = append(dst, name...)
	dst = append(dst, ": "...)
	dst = append(dst, value...)
	return append(dst, "\r\n"...)
}

func isKnownResponseHeader(canonical string) bool {
	for _, h := range responseHeaderOrder {
		if h.canonical == canonical {
			return true
		}
	}
	return false
}

// headerContainsToken reports whether headerName contains token in its
// comma-separated value list.
func headerContainsToken(h http.Header, headerName, token string) bool {
	vals := h[http.CanonicalHeaderKey(headerName)]
	token = strings.ToLower(token)
	for _, v := range vals {
		parts := strings.Split(v, ",")
		for _, p := range parts {
			if strings.ToLower(strings.TrimSpace(p)) == token {
				return true
			}
		}
	}
	return false
}
