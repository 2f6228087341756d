// Package logging builds the structured logger shared by the CLI, the poller and the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const defaultPrefix = "trainlog"

// New returns a logger writing to w at the given level. Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          defaultPrefix,
		ReportTimestamp: true,
		Level:           parseLevel(level),
	})
}

// NewJSON returns a logger writing one JSON object per line, the format read back by
// the logs command.
func NewJSON(w io.Writer, level string) *log.Logger {
	l := New(w, level)
	l.SetFormatter(log.JSONFormatter)
	return l
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	return parseLevel(level)
}

// Discard returns a logger that drops everything. Used by tests and as a nil substitute.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// OpenFile opens (appending) the log file at path, creating parent directories.
// The caller owns the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func parseLevel(level string) log.Level {
	parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}
