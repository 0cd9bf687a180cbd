// Package logger provides the structured diagnostic logger and the per-action
// audit trail written by iamtool.
//
// Every action appends rows to an audit file in a directory (the system temp
// dir by default) named _{tool}_{action}_{date}.{csv|jsonl}. Rows are flushed
// every few writes and always on Close.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger is an append-only audit trail of per-resource outcomes.
type Logger interface {
	WriteHeader(columns []string) error
	WriteRow(row []string) error
	ShouldWriteHeader() (bool, error)
	Close() error
}

// LogFormat selects the audit file encoding.
type LogFormat string

const (
	FormatCSV  LogFormat = "csv"
	FormatJSON LogFormat = "json"
)

const (
	defaultFlushEvery    = 10
	defaultFlushInterval = 5 * time.Second
)

// ParseLogFormat validates a user-supplied format name.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json", "jsonl":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q (valid: csv, json)", s)
	}
}

// NewLogger opens an audit logger of the given format in dir.
// An empty dir means os.TempDir().
func NewLogger(format LogFormat, dir, toolName, action string) (Logger, error) {
	switch format {
	case FormatCSV:
		return NewCSVLogger(dir, toolName, action)
	case FormatJSON:
		return NewJSONLogger(dir, toolName, action)
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// auditPath builds _{tool}_{action}_{date}.{ext} under dir.
func auditPath(dir, toolName, action, ext string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	dateStr := time.Now().Format("2006-01-02")
	return filepath.Join(dir, fmt.Sprintf("_%s_%s_%s.%s", toolName, action, dateStr, ext))
}

func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("could not create audit log file: %w", err)
	}
	return file, nil
}

func isEmpty(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat audit log file: %w", err)
	}
	return info.Size() == 0, nil
}

// NopLogger discards every row. Used when the audit file cannot be opened.
type NopLogger struct{}

func (NopLogger) WriteHeader([]string) error       { return nil }
func (NopLogger) WriteRow([]string) error          { return nil }
func (NopLogger) ShouldWriteHeader() (bool, error) { return false, nil }
func (NopLogger) Close() error                     { return nil }
