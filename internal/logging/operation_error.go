package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// OperationError records which step of a face analysis failed, such as
// "usecase.parse_reply" or "vision.openai.chat_completion", and the request
// it belonged to. Steps nest: the use case wraps the model client's error.
type OperationError struct {
	Operation string
	RequestID string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.RequestID == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s (request_id=%s): %v", e.Operation, e.RequestID, e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError tags err with the analysis step and request id. A nil err
// stays nil so call sites can wrap unconditionally.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// FailedOperation returns the innermost step recorded in err's chain, or an
// empty string when err carries no OperationError.
func FailedOperation(err error) string {
	var (
		op    string
		opErr *OperationError
	)
	for errors.As(err, &opErr) {
		op = opErr.Operation
		err = opErr.Err
	}
	return op
}

// ErrorFields returns the zap fields logged for a failed analysis: the error
// and the innermost failed step.
func ErrorFields(err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("failed_operation", FailedOperation(err)),
	}
}
