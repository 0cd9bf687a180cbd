package idcs

import (
	"fmt"
	"net/http"
	"strings"

	"iamtool/internal/scim/protocol"
)

// ServiceError is returned when the identity domain rejects a request.
type ServiceError struct {
	Operation  string
	StatusCode int
	Detail     string
	RequestID  string
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s failed with status %d", e.Operation, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (opc-request-id %s)", e.RequestID)
	}
	return msg
}

// NotFound reports a 404 from the service.
func (e *ServiceError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newServiceError(operation string, resp *http.Response, body []byte) *ServiceError {
	detail := protocol.ErrorDetail(body)
	if detail == "" {
		detail = truncate(strings.TrimSpace(string(body)), 200)
	}
	return &ServiceError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Detail:     detail,
		RequestID:  resp.Header.Get("opc-request-id"),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
