// Package logger builds the zerolog logger shared by the server, the
// repositories and the email worker.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines, or a human readable console
// stream when dev is true.
func New(dev bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, dev)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "practice-manager").Logger()
}
