package utils

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a LogLevel. Unknown names yield INFO and false.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TRACE, true
	case "debug":
		return DEBUG, true
	case "info":
		return INFO, true
	case "warn", "warning":
		return WARN, true
	case "error":
		return ERROR, true
	case "critical":
		return CRITICAL, true
	default:
		return INFO, false
	}
}

// zerolog has no critical level; CRITICAL is written at fatal level through
// WithLevel, which does not exit.
func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case CRITICAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger is a leveled printf-style logger backed by zerolog.
type Logger struct {
	mu       sync.Mutex
	zl       zerolog.Logger
	minLevel LogLevel
	file     *os.File
}

// NewLogger writes JSON lines to w.
func NewLogger(w io.Writer, minLevel LogLevel) *Logger {
	return newLogger(w, minLevel, nil)
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop(), minLevel: CRITICAL + 1}
}

// NewFileLogger appends JSON lines to filePath and, when alsoStdout is set,
// mirrors them to stdout in console form.
func NewFileLogger(filePath string, minLevel LogLevel, alsoStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var w io.Writer = zerolog.SyncWriter(f)
	if alsoStdout {
		w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	return newLogger(w, minLevel, f), nil
}

func newLogger(w io.Writer, minLevel LogLevel, f *os.File) *Logger {
	if lvl := minLevel.zerolog(); lvl < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(lvl)
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(minLevel.zerolog())
	return &Logger{zl: zl, minLevel: minLevel, file: f}
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) SetMinLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	l.zl = l.zl.Level(level.zerolog())
}

// With returns a child logger that tags every line with component.
func (l *Logger) With(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		zl:       l.zl.With().Str("component", component).Logger(),
		minLevel: l.minLevel,
	}
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	if level < l.minLevel {
		l.mu.Unlock()
		return
	}
	zl := l.zl
	l.mu.Unlock()

	zl.WithLevel(level.zerolog()).Msgf(msg, args...)
}

func (l *Logger) Trace(msg string, args ...any)    { l.log(TRACE, msg, args...) }
func (l *Logger) Debug(msg string, args ...any)    { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...any)     { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)     { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...any)    { l.log(ERROR, msg, args...) }
func (l *Logger) Critical(msg string, args ...any) { l.log(CRITICAL, msg, args...) }
