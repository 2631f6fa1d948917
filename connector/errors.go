package connector

import (
	"errors"
	"fmt"
)

// ErrUnknownType indicates no connector is registered for an integration type.
var ErrUnknownType = errors.New("connector: unknown integration type")

// ErrUnknownOperation indicates the connector does not support the operation.
var ErrUnknownOperation = errors.New("connector: unknown operation")

// RemoteError reports a failure returned by the external system. Connectors
// map every non-success remote response to a RemoteError instead of retrying
// or panicking.
type RemoteError struct {
	// StatusCode is the remote HTTP status, when applicable.
	StatusCode int

	// Message summarizes the remote failure.
	Message string
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote error (status %d): %s", e.StatusCode, e.Message)
	}
	return "remote error: " + e.Message
}

// ValidationError indicates operation parameters failed descriptor validation.
type ValidationError struct {
	Operation string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("connector validation: %s: %s", e.Operation, e.Message)
}
