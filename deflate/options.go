// File: deflate/options.go
// Package deflate
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package deflate

import (
	"fmt"

	"github.com/momentics/hioload-mux/api"
)

// ExtensionName is the permessage-deflate token in
// Sec-WebSocket-Extensions.
const ExtensionName = "permessage-deflate"

// Negotiable parameter names.
const (
	ParamClientMaxWindowBits     = "client_max_window_bits"
	ParamServerMaxWindowBits     = "server_max_window_bits"
	ParamClientNoContextTakeover = "client_no_context_takeover"
	ParamServerNoContextTakeover = "server_no_context_takeover"
)

// Window bit bounds for LZ77 sliding windows.
const (
	MinWindowBits     = 9
	MaxWindowBits     = 15
	DefaultWindowBits = 15
)

// DefaultCompressionLevel balances ratio against CPU.
const DefaultCompressionLevel = 6

// Config controls negotiation and compression behavior.
type Config struct {
	// CompressionLevel is passed to the deflate backend, 0 through 9.
	CompressionLevel int
	// AllowServerWindowBits permits clients to customize
	// server_max_window_bits. When false an offer carrying that
	// parameter falls back to an uncompressed connection.
	AllowServerWindowBits bool
	// PreferredClientWindowBits is advertised back to clients that
	// offer client_max_window_bits.
	PreferredClientWindowBits int
}

// Option customizes a Config.
type Option func(*Config)

// WithCompressionLevel sets the deflate compression level.
func WithCompressionLevel(level int) Option {
	return func(c *Config) { c.CompressionLevel = level }
}

// WithServerWindowBitsAllowed permits client-requested
// server_max_window_bits values.
func WithServerWindowBitsAllowed() Option {
	return func(c *Config) { c.AllowServerWindowBits = true }
}

// WithPreferredClientWindowBits sets the window size advertised to
// clients that accept one.
func WithPreferredClientWindowBits(bits int) Option {
	return func(c *Config) { c.PreferredClientWindowBits = bits }
}

func newConfig(opts ...Option) (Config, error) {
	cfg := Config{
		CompressionLevel:          DefaultCompressionLevel,
		PreferredClientWindowBits: DefaultWindowBits,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.CompressionLevel < 0 || cfg.CompressionLevel > 9 {
		return cfg, api.NewError(api.ErrCodeConfiguration,
			fmt.Sprintf("compression level %d outside 0..9", cfg.CompressionLevel), nil)
	}
	if cfg.PreferredClientWindowBits < MinWindowBits || cfg.PreferredClientWindowBits > MaxWindowBits {
		return cfg, api.NewError(api.ErrCodeConfiguration,
			fmt.Sprintf("client window bits %d outside %d..%d",
				cfg.PreferredClientWindowBits, MinWindowBits, MaxWindowBits), nil)
	}
	return cfg, nil
}
