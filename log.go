package renderer

import (
	"log"
	"os"
)

// Logger is the ambient logging contract used throughout the renderer:
// swapchain recreation, fence-wait timeouts, asset-prep failures, and
// shader-config parse warnings are all reported through it rather than
// written directly to stderr.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdLogger adapts the standard library's *log.Logger to Logger, prefixing
// each line with a level tag. This is the default Logger used when a
// frontend is built without WithLogger.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes to os.Stderr using the stdlib
// log package, matching the engine's own logging idiom.
func NewStdLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) Debugf(format string, args ...any) { s.l.Printf("DEBUG "+format, args...) }
func (s *stdLogger) Infof(format string, args ...any)  { s.l.Printf("INFO  "+format, args...) }
func (s *stdLogger) Warnf(format string, args ...any)  { s.l.Printf("WARN  "+format, args...) }
func (s *stdLogger) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }

// noopLogger discards everything; used only in tests.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// NewNoopLogger returns a Logger that discards all messages.
func NewNoopLogger() Logger { return noopLogger{} }
