// Package apperr defines the error taxonomy shared by the store, the
// service layer and the HTTP boundary. Handlers translate these types to
// status codes; nothing here knows about HTTP.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed client input (bad project id, empty
// batch, duplicated or missing fields, undecodable content).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError reports a create request for a project id that already exists.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("A project with id %s already exists.", e.ID)
}

// NotFoundError reports an operation against a project id that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project_id '%s' not found", e.ID)
}

// FileFailure is one failed file within an ingestion batch.
type FileFailure struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

// BatchError aggregates every file that failed to persist during one
// ingestion batch. Files that succeeded before a failure stay on disk;
// the caller reconciles using the failure list.
type BatchError struct {
	Failed []FileFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("{'message': '%s', 'file_name': '%s'}", f.Message, f.FileName))
	}
	return fmt.Sprintf("Problems with files: [%s]", strings.Join(parts, ", "))
}

// InternalError wraps an unexpected fault (filesystem scan failure and the
// like) whose underlying message is surfaced to the caller verbatim.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }
