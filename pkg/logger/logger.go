package logger

import (
	"log"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// nativeAsset is the label of the native SOL asset, printed in its own color
const nativeAsset = "SOL"

var assetColors = map[bool]color.Attribute{
	true:  color.FgHiGreen,
	false: color.FgHiBlue,
}

var levelColors = map[Level]color.Attribute{
	DebugLevel:  color.FgWhite,
	InfoLevel:   color.FgCyan,
	NoticeLevel: color.FgYellow,
	ErrorLevel:  color.FgRed,
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoWithAsset(asset string, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorWithAsset(asset string, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugWithAsset(asset string, format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})
	NoticeWithAsset(asset string, format string, args ...interface{})
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                      {}
func (l *EmptyLogger) InfoWithAsset(_ string, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) ErrorWithAsset(_ string, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) DebugWithAsset(_ string, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) NoticeWithAsset(_ string, _ string, _ ...interface{}) {}

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
	printf         func(format string, args ...interface{})
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
		printf:         log.Printf,
	}
}

// formatMessage formats the log message with the log level, the asset prefix, and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, asset string, format string) string {
	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	assetPrefix := ""
	if asset != "" {
		assetPrefix = "[" + asset + "] "
	}

	if l.enableColoring {
		levelStr = color.New(levelColors[level]).Sprint(levelStr)
		if assetPrefix != "" {
			assetPrefix = color.New(assetColors[asset == nativeAsset]).Sprint(assetPrefix)
		}
	}

	return levelStr + assetPrefix + format
}

func (l *StdLogger) logf(level Level, asset string, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		l.printf(l.formatMessage(level, asset, format), args...)
	}
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.logf(InfoLevel, "", format, args...)
}

func (l *StdLogger) InfoWithAsset(asset string, format string, args ...interface{}) {
	l.logf(InfoLevel, asset, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.logf(ErrorLevel, "", format, args...)
}

func (l *StdLogger) ErrorWithAsset(asset string, format string, args ...interface{}) {
	l.logf(ErrorLevel, asset, format, args...)
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.logf(DebugLevel, "", format, args...)
}

func (l *StdLogger) DebugWithAsset(asset string, format string, args ...interface{}) {
	l.logf(DebugLevel, asset, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.logf(NoticeLevel, "", format, args...)
}

func (l *StdLogger) NoticeWithAsset(asset string, format string, args ...interface{}) {
	l.logf(NoticeLevel, asset, format, args...)
}
