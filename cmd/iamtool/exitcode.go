package main

import (
	"context"
	"errors"

	"iamtool/internal/common/poll"
	"iamtool/internal/idcs"
	"iamtool/internal/oci"
	"iamtool/internal/workflow"
)

// Process exit codes.
const (
	exitOK          = 0
	exitUnexpected  = 1
	exitConfig      = 2
	exitService     = 3
	exitTimeout     = 4
	exitPartial     = 5
	exitInterrupted = 130
)

// exitCode maps a workflow result to the process exit code. Errors take
// precedence over status.
func exitCode(status workflow.Status, err error) int {
	if err != nil {
		var (
			cfgErr     *ConfigError
			timeoutErr *poll.TimeoutError
			scimErr    *idcs.ServiceError
			ociErr     *oci.ServiceError
		)
		switch {
		case errors.Is(err, context.Canceled):
			return exitInterrupted
		case errors.As(err, &cfgErr):
			return exitConfig
		case errors.As(err, &timeoutErr):
			return exitTimeout
		case errors.As(err, &scimErr), errors.As(err, &ociErr):
			return exitService
		default:
			return exitUnexpected
		}
	}

	switch status {
	case workflow.StatusSucceeded, workflow.StatusNoMatches:
		return exitOK
	case workflow.StatusPartialFailure:
		return exitPartial
	case workflow.StatusTimedOut:
		return exitTimeout
	default:
		return exitUnexpected
	}
}
