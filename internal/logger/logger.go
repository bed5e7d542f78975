// Package logger provides the tagged, colorized logging used throughout
// this module, in the style of the teacher's `log.Printf("[INFO]\t...")`
// convention but rendered through colorstring so tags stand out on a
// terminal.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mitchellh/colorstring"
)

// Logger wraps a standard library *log.Logger with leveled, colorized
// tag prefixes.
type Logger struct {
	out *log.Logger
	col *colorstring.Colorize
}

// New returns a Logger writing to w, or to os.Stderr if w is nil. Lines
// carry no name prefix beyond the standard date/time flags.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out: log.New(w, "", log.LstdFlags),
		col: &colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: false,
			Reset:   true,
		},
	}
}

func (l *Logger) line(tag, color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.out.Print(l.col.Color(fmt.Sprintf("[%s][%s]\t%s", color, tag, msg)))
}

// Infof logs an informational line, e.g. a completed handshake.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.line("INFO", "blue", format, args...)
}

// Failf logs a protocol violation or other recoverable failure that
// results in closing a connection.
func (l *Logger) Failf(format string, args ...interface{}) {
	l.line("FAIL", "yellow", format, args...)
}

// Errorf logs an unexpected local error (resource exhaustion, a
// misconfigured collaborator).
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.line("ERROR", "red", format, args...)
}
