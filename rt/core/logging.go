package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(lv))
}

// DefaultLogger writes debug and info lines to one stream and warnings and
// errors to another.
type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr)
}

func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) Enabled(lv Level) bool {
	return lv > LevelDebug || l.DebugEnabled()
}

func (l *DefaultLogger) logf(lv Level, format string, args ...any) {
	l.write(l.prefix, lv, format, args...)
}

func (l *DefaultLogger) write(prefix string, lv Level, format string, args ...any) {
	if !l.Enabled(lv) {
		return
	}
	dst := l.out
	if lv >= LevelWarn {
		dst = l.err
	}
	msg := fmt.Sprintf(format, args...)
	if prefix == "" {
		dst.Printf("%s: %s", lv, msg)
		return
	}
	dst.Printf("[%s] %s: %s", prefix, lv, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// Named returns a logger sharing l's streams and debug switch whose lines
// are tagged "prefix/name".
func (l *DefaultLogger) Named(name string) Logger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &namedLogger{parent: l, prefix: prefix}
}

type namedLogger struct {
	parent *DefaultLogger
	prefix string
}

func (n *namedLogger) DebugEnabled() bool    { return n.parent.DebugEnabled() }
func (n *namedLogger) SetDebug(enabled bool) { n.parent.SetDebug(enabled) }

func (n *namedLogger) logf(lv Level, format string, args ...any) {
	n.parent.write(n.prefix, lv, format, args...)
}

func (n *namedLogger) Debugf(format string, args ...any) { n.logf(LevelDebug, format, args...) }
func (n *namedLogger) Infof(format string, args ...any)  { n.logf(LevelInfo, format, args...) }
func (n *namedLogger) Warnf(format string, args ...any)  { n.logf(LevelWarn, format, args...) }
func (n *namedLogger) Errorf(format string, args ...any) { n.logf(LevelError, format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger                          { return nopLogger{} }
func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(bool)                     {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
