package store

import (
	"errors"

	"github.com/dotcommander/tracekit/internal/models"
)

// RecoverableError is an alias for models.RecoverableError so callers of the
// store need not import models for error inspection.
type RecoverableError = models.RecoverableError

// ErrTraceNotFound is returned when no trace has the requested ID.
var ErrTraceNotFound = errors.New("trace not found")

// TraceNotFoundError is ErrTraceNotFound with structured context.
type TraceNotFoundError struct {
	ID string
}

func (e *TraceNotFoundError) Error() string     { return "trace not found" }
func (e *TraceNotFoundError) ErrorCode() string { return "TRACE_NOT_FOUND" }
func (e *TraceNotFoundError) Context() map[string]string {
	return map[string]string{"trace_id": e.ID}
}
func (e *TraceNotFoundError) SuggestedAction() string {
	return "tracekit list"
}
func (e *TraceNotFoundError) Is(target error) bool { return target == ErrTraceNotFound }
