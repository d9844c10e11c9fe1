// Package logger builds the zerolog.Logger the rest of this module logs
// through, and the "component" sub-logger convention every layer
// (middleware, state, tools) uses to tag its own log lines.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/jkhoffman/cogni/config"
	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing JSON lines to w at the verbosity
// named by level. An empty level falls back to the COGNI_LOG_LEVEL
// environment variable, then to info.
func New(level config.LogLevel, w io.Writer) zerolog.Logger {
	if level == "" {
		level = config.LogLevel(os.Getenv("COGNI_LOG_LEVEL"))
	}
	return zerolog.New(w).Level(parseLogLevel(string(level))).With().Timestamp().Logger()
}

// Component returns base tagged with a "component" field, the convention
// every layer of this module uses to identify its own log lines (e.g.
// "llmRetry", "llmLogging", "stateFile").
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off":
		return zerolog.Disabled
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
