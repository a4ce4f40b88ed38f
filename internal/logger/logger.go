// Package logger builds the zerolog loggers used by the secretcell commands.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates a JSON logger writing to w, tagged with the given role.
func New(w io.Writer, role string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Str("role", role).
		Timestamp().
		Logger()
}

// Console creates a human-readable logger writing to w, which is what the CLI uses.
// A nil w writes to stderr.
func Console(w io.Writer, role string, verbose bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true}, role, level)
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
