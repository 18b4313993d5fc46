package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Debug enables debug-level output and a
// human-readable console format; otherwise JSON at info level.
func New(debug bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if debug {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
