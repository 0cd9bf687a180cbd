// Package workflow runs the operator workflows end to end: the email suffix
// migration and the identity domain teardown. Each run returns an explicit
// Status alongside any error.
package workflow

import (
	"log/slog"

	"iamtool/internal/common/logger"
)

// Status is the overall result of a workflow run.
type Status int

const (
	StatusSucceeded Status = iota
	// StatusNoMatches means there was nothing to do.
	StatusNoMatches
	// StatusPartialFailure means the run completed but some items failed.
	StatusPartialFailure
	StatusFailed
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusNoMatches:
		return "no matches"
	case StatusPartialFailure:
		return "partial failure"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// auditTrail writes rows to an audit logger, logging rather than failing on
// write errors.
type auditTrail struct {
	log    logger.Logger
	slog   *slog.Logger
	broken bool
}

func newAuditTrail(l logger.Logger, s *slog.Logger, columns []string) *auditTrail {
	if l == nil {
		l = logger.NopLogger{}
	}
	a := &auditTrail{log: l, slog: s}
	write, err := l.ShouldWriteHeader()
	if err != nil {
		a.fail(err)
		return a
	}
	if write {
		if err := l.WriteHeader(columns); err != nil {
			a.fail(err)
		}
	}
	return a
}

func (a *auditTrail) row(fields ...string) {
	if a.broken {
		return
	}
	if err := a.log.WriteRow(fields); err != nil {
		a.fail(err)
	}
}

func (a *auditTrail) fail(err error) {
	a.broken = true
	logger.LogWarn(a.slog, "Audit log disabled after write error", "error", err)
}
