// Package rlog adapts github.com/rs/zerolog to core.Logger, the
// Printf-style logging interface the teacher's renderer packages depend on.
// The zerolog.ConsoleWriter + SetGlobalLevel setup mirrors
// other_examples' xray_projection_render main.go.
package rlog

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/lumenray/tracer/pkg/core"
)

// Logger wraps a zerolog.Logger behind core.Logger.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New builds a console-formatted logger writing to w at the given level.
// verbose selects zerolog.DebugLevel; otherwise zerolog.InfoLevel.
func New(w io.Writer, verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewFile opens (creating/truncating) path and returns a Logger writing
// NDJSON records to it, for the --log-dir flag.
func NewFile(path string, verbose bool) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Printf implements core.Logger by formatting args and emitting an info
// event. Renderer code that needs structured fields should reach for
// the underlying zerolog.Logger via Zerolog() instead.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Zerolog exposes the underlying structured logger for call sites that
// want fields instead of a formatted string (progress reporting, per-tile
// stats).
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}
