package oci

import (
	"errors"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
)

// ServiceError is an OCI control plane rejection.
type ServiceError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s failed with status %d", e.Operation, e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (opc-request-id %s)", e.RequestID)
	}
	return msg
}

// classify converts SDK service errors into *ServiceError and wraps anything
// else with the operation name.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	svc, ok := common.IsServiceError(err)
	if !ok {
		// Wrapped service errors still carry the interface.
		ok = errors.As(err, &svc)
	}
	if ok {
		return &ServiceError{
			Operation:  operation,
			StatusCode: svc.GetHTTPStatusCode(),
			Code:       svc.GetCode(),
			Message:    svc.GetMessage(),
			RequestID:  svc.GetOpcRequestID(),
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}
