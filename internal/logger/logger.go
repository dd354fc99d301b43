// Package logger provides verbose logging for the TrakHound engine.
// A Logger is constructed once by the host and passed down to services,
// drivers and buffers. When verbose mode is disabled only warnings and
// errors are written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes prefixed log lines to an output writer.
// It is safe for concurrent use.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	output  io.Writer
	name    string
}

// New creates a logger writing to w. A nil writer defaults to os.Stderr.
func New(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{verbose: verbose, output: w}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, false)
}

// Named returns a child logger sharing the same output whose lines are
// tagged with name.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	child := &Logger{verbose: l.verbose, output: l.output, name: name}
	if l.name != "" {
		child.name = l.name + "/" + name
	}
	return child
}

// SetVerbose enables or disables verbose logging.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.write(true, "DEBUG", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) {
	l.write(true, "INFO", format, args...)
}

// Warn prints a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.write(false, "WARN", format, args...)
}

// Error prints an error message.
func (l *Logger) Error(format string, args ...any) {
	l.write(false, "ERROR", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbose {
		fmt.Fprintf(l.output, "\n=== %s ===\n", name)
	}
}

func (l *Logger) write(verboseOnly bool, level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if verboseOnly && !l.verbose {
		return
	}
	if l.name != "" {
		fmt.Fprintf(l.output, "[%s] %s: "+format+"\n", append([]any{level, l.name}, args...)...)
		return
	}
	fmt.Fprintf(l.output, "["+level+"] "+format+"\n", args...)
}
