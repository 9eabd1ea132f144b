package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level gates which messages reach the output.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps "debug", "info" and "error" to a Level. Anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	*log.Logger
	mu    sync.Mutex
	level Level
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		level:  level,
	}
}

// Discard returns a logger that drops everything, handy in tests.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.emit(LevelInfo, "[INFO] ", format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.emit(LevelDebug, "[DEBUG] ", format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.emit(LevelError, "[ERROR] ", format, v...)
}

func (l *Logger) emit(level Level, prefix, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Printf(prefix+format, v...)
}

var std = New(os.Stdout, LevelInfo)

// Default is the process-wide logger used by cmd/marketseg.
func Default() *Logger { return std }
