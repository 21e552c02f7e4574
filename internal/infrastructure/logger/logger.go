package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the service logger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// New builds the logger passed to every component. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	return NewWithWriter(opts, os.Stdout)
}

// NewWithWriter builds the logger on top of the given writer
func NewWithWriter(opts Options, out io.Writer) zerolog.Logger {
	if strings.EqualFold(opts.Format, "text") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name to a zerolog level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
