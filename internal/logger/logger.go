package logger

import (
	"io"
	"log"
	"os"
)

// Logger is an alias used by components for dependency injection.
type Logger = log.Logger

// New returns a standard logger with a consistent component prefix.
func New(component string) *Logger {
	return NewTo(os.Stdout, component)
}

// NewTo is New writing to w, used to capture operator messages.
func NewTo(w io.Writer, component string) *Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return log.New(io.Discard, "", 0)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}
