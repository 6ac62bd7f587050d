package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Importance classifies informational messages.
type Importance int

const (
	ImportanceLow Importance = iota
	ImportanceNormal
	ImportanceHigh
)

func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceHigh:
		return "high"
	default:
		return "normal"
	}
}

// ParseImportance accepts "low", "normal" and "high". Empty means normal.
func ParseImportance(name string) (Importance, error) {
	switch strings.ToLower(name) {
	case "low":
		return ImportanceLow, nil
	case "", "normal":
		return ImportanceNormal, nil
	case "high":
		return ImportanceHigh, nil
	default:
		return ImportanceNormal, fmt.Errorf("unknown importance %q", name)
	}
}

// level maps an importance onto the slog level used to emit it.
// High importance messages stay informational and are tagged instead.
func (i Importance) level() slog.Level {
	if i == ImportanceLow {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Event is a diagnostic that points at a tool, a code or a source location.
type Event struct {
	Subcategory string
	Code        string
	File        string
	Line        int
	Column      int
	Message     string
}

func (e Event) attrs() []any {
	var attrs []any
	if e.Subcategory != "" {
		attrs = append(attrs, "subcategory", e.Subcategory)
	}
	if e.Code != "" {
		attrs = append(attrs, "code", e.Code)
	}
	if e.File != "" {
		attrs = append(attrs, "file", e.File)
	}
	if e.Line > 0 {
		attrs = append(attrs, "line", e.Line)
	}
	if e.Column > 0 {
		attrs = append(attrs, "column", e.Column)
	}
	return attrs
}

// Log is the logging sink handed to tasks. It only decides severity,
// routing is up to the slog handler behind it.
type Log struct {
	logger *slog.Logger
	errors atomic.Int64
}

// NewLog wraps logger. A nil logger falls back to slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// WithTask returns a sink that tags every record with the task name.
// The error count is not shared with the parent.
func (l *Log) WithTask(name string) *Log {
	return &Log{logger: l.logger.With("task", name)}
}

// Message logs an informational message.
func (l *Log) Message(importance Importance, format string, args ...any) {
	l.logger.Log(context.Background(), importance.level(), fmt.Sprintf(format, args...), "importance", importance.String())
}

// CommandLine logs the command line of a tool about to be started.
func (l *Log) CommandLine(commandLine string) {
	l.logger.Info(commandLine, "kind", "commandline")
}

// Error logs an error and marks the task as having failed.
func (l *Log) Error(format string, args ...any) {
	l.errors.Add(1)
	l.logger.Error(fmt.Sprintf(format, args...))
}

// ErrorCode logs an error carrying tool and location details.
func (l *Log) ErrorCode(e Event) {
	l.errors.Add(1)
	l.logger.Error(e.Message, e.attrs()...)
}

// ErrorFromErr logs err as an error record.
func (l *Log) ErrorFromErr(err error) {
	l.errors.Add(1)
	l.logger.Error(err.Error())
}

// Warning logs a warning.
func (l *Log) Warning(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// WarningCode logs a warning carrying tool and location details.
func (l *Log) WarningCode(e Event) {
	l.logger.Warn(e.Message, e.attrs()...)
}

// HasLoggedErrors reports whether Error, ErrorCode or ErrorFromErr was called.
func (l *Log) HasLoggedErrors() bool {
	return l.errors.Load() > 0
}
