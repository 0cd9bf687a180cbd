package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// CSVLogger appends audit rows to a CSV file with periodic flushing.
type CSVLogger struct {
	writer     *csv.Writer
	file       *os.File
	rowCount   int
	lastFlush  time.Time
	flushEvery int
}

// NewCSVLogger opens (or creates) _{toolName}_{action}_{date}.csv in dir.
func NewCSVLogger(dir, toolName, action string) (*CSVLogger, error) {
	file, err := openAppend(auditPath(dir, toolName, action, "csv"))
	if err != nil {
		return nil, err
	}

	return &CSVLogger{
		writer:     csv.NewWriter(file),
		file:       file,
		lastFlush:  time.Now(),
		flushEvery: defaultFlushEvery,
	}, nil
}

// Path returns the audit file location.
func (l *CSVLogger) Path() string {
	return l.file.Name()
}

// WriteHeader writes the column names, prefixed with Timestamp.
func (l *CSVLogger) WriteHeader(columns []string) error {
	header := append([]string{"Timestamp"}, columns...)
	if err := l.writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// WriteRow appends a timestamped row.
func (l *CSVLogger) WriteRow(row []string) error {
	if l.writer == nil {
		return fmt.Errorf("CSV writer is not initialized")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if err := l.writer.Write(append([]string{timestamp}, row...)); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	l.rowCount++
	if l.rowCount%l.flushEvery == 0 || time.Since(l.lastFlush) > defaultFlushInterval {
		l.writer.Flush()
		l.lastFlush = time.Now()
		if err := l.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
	}
	return nil
}

// ShouldWriteHeader reports whether the file is still empty.
func (l *CSVLogger) ShouldWriteHeader() (bool, error) {
	return isEmpty(l.file)
}

// Close flushes buffered rows and closes the file.
func (l *CSVLogger) Close() error {
	if l.writer != nil {
		l.writer.Flush()
		if err := l.writer.Error(); err != nil {
			return fmt.Errorf("error flushing CSV on close: %w", err)
		}
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
