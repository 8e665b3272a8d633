// Package logging writes levelled, timestamped diagnostic lines to stderr or a
// log file. Listing output never goes through it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// ANSI colour codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

var levelTags = map[Level]string{
	LevelDebug: "[DEBUG]",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[ERROR]",
}

var levelColors = map[Level]string{
	LevelDebug: cyan,
	LevelInfo:  blue,
	LevelWarn:  yellow,
	LevelError: red,
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "off", "none":
		return LevelOff, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %s (available: debug, info, warn, error)", s)
}

type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	color bool
	file  *os.File
	now   func() time.Time
}

func New(out io.Writer, level Level, color bool) *Logger {
	return &Logger{out: out, level: level, color: color, now: time.Now}
}

// Options mirrors the [logging] config section plus the CLI switches.
type Options struct {
	Level   string
	File    string
	Color   bool
	Verbose bool
	Quiet   bool
}

// Open builds a logger from opts. Verbose forces debug and Quiet silences
// everything; a log file receives uncoloured lines.
func Open(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = LevelDebug
	}
	if opts.Quiet {
		level = LevelOff
	}

	if opts.File == "" {
		return New(os.Stderr, level, opts.Color), nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	l := New(f, level, false)
	l.file = f
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelOff, false)
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level && l.level != LevelOff
}

func (l *Logger) logf(level Level, format string, a ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, a...)
	ts := l.now().Format("15:04:05")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.color {
		fmt.Fprintf(l.out, "%s[%s] %s %s%s\n", levelColors[level], ts, levelTags[level], msg, reset)
		return
	}
	fmt.Fprintf(l.out, "[%s] %s %s\n", ts, levelTags[level], msg)
}

func (l *Logger) Debugf(format string, a ...any) { l.logf(LevelDebug, format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.logf(LevelInfo, format, a...) }
func (l *Logger) Warnf(format string, a ...any)  { l.logf(LevelWarn, format, a...) }
func (l *Logger) Errorf(format string, a ...any) { l.logf(LevelError, format, a...) }
