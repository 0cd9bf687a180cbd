package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONLogger appends one JSON object per row (JSON Lines). Keys come from the
// columns passed to WriteHeader; the header itself is never written.
type JSONLogger struct {
	path       string
	file       *os.File
	buf        *bufio.Writer
	columns    []string
	rowCount   int
	lastFlush  time.Time
	flushEvery int
}

// NewJSONLogger opens (or creates) _{toolName}_{action}_{date}.jsonl in dir.
func NewJSONLogger(dir, toolName, action string) (*JSONLogger, error) {
	path := auditPath(dir, toolName, action, "jsonl")
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}

	return &JSONLogger{
		path:       path,
		file:       file,
		buf:        bufio.NewWriter(file),
		lastFlush:  time.Now(),
		flushEvery: defaultFlushEvery,
	}, nil
}

// Path returns the audit file location.
func (l *JSONLogger) Path() string {
	return l.path
}

// WriteHeader records the column names used as keys for later rows.
func (l *JSONLogger) WriteHeader(columns []string) error {
	l.columns = append([]string(nil), columns...)
	return nil
}

// WriteRow encodes row as a JSON object keyed by the header columns.
func (l *JSONLogger) WriteRow(row []string) error {
	if l.file == nil {
		return fmt.Errorf("JSON logger is closed")
	}
	if l.columns == nil {
		return fmt.Errorf("WriteHeader must be called before WriteRow")
	}
	if len(row) != len(l.columns) {
		return fmt.Errorf("row has %d values, header has %d columns", len(row), len(l.columns))
	}

	obj := make(map[string]string, len(row)+1)
	obj["timestamp"] = time.Now().Format(time.RFC3339)
	for i, col := range l.columns {
		obj[col] = row[i]
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode JSON row: %w", err)
	}
	if _, err := l.buf.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON row: %w", err)
	}

	l.rowCount++
	if l.rowCount%l.flushEvery == 0 || time.Since(l.lastFlush) > defaultFlushInterval {
		l.lastFlush = time.Now()
		if err := l.buf.Flush(); err != nil {
			return fmt.Errorf("failed to flush JSON log: %w", err)
		}
	}
	return nil
}

// ShouldWriteHeader reports true until columns are registered. JSON Lines
// files carry no header line, so this is per logger rather than per file.
func (l *JSONLogger) ShouldWriteHeader() (bool, error) {
	return l.columns == nil, nil
}

// Close flushes buffered rows and closes the file. Safe to call twice.
func (l *JSONLogger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.buf.Flush(); err != nil {
		return fmt.Errorf("error flushing JSON log on close: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}
