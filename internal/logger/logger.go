package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing to w. format is "json" or "console"; level is
// any zerolog level name ("debug", "info", ...).
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// MustNew is New writing to stderr that falls back to an info-level JSON
// logger when the settings are invalid
func MustNew(level, format string) zerolog.Logger {
	log, err := New(os.Stderr, level, format)
	if err != nil {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("Falling back to default logger settings")
	}
	return log
}
