// File: logging/logging.go
// Package logging configures the process-wide logger.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the root logger for the named component. The
// HIOLOAD_LOG_LEVEL environment variable overrides the default info
// level; HIOLOAD_LOG_CONSOLE=1 switches to human-readable output.
func InitLogger(component string) zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("HIOLOAD_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	var out = zerolog.New(os.Stderr)
	if os.Getenv("HIOLOAD_LOG_CONSOLE") == "1" {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	logger := out.Level(level).With().Timestamp().Str("component", component).Logger()
	log.Logger = logger
	return logger
}
