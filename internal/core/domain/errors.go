// Package domain defines the core domain models for worldsnap.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes follow the WS-<AREA>-<NNNN> convention; the numeric suffix mirrors the
// HTTP status family the adapter reports for it.
type DomainError struct {
	Code    string // Error code (e.g., "WS-SNAP-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps cause and keeps its message verbatim as the details.
//
// Filesystem and process failures surface the underlying message unchanged,
// so callers see exactly what the OS reported.
func (e *DomainError) Wrap(cause error) *DomainError {
	if cause == nil {
		return e
	}
	return e.WithDetails(cause.Error()).WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotNotFound indicates the restore target does not exist.
	ErrSnapshotNotFound = NewDomainError("WS-SNAP-4040", "snapshot not found")

	// ErrSourceMissing indicates the working directory is absent during create.
	ErrSourceMissing = NewDomainError("WS-SNAP-4041", "working directory does not exist")

	// ErrNameCollision indicates a snapshot with the same name already exists.
	ErrNameCollision = NewDomainError("WS-SNAP-4090", "snapshot name already exists")

	// ErrInvalidName indicates the snapshot name cannot be used as a directory name.
	ErrInvalidName = NewDomainError("WS-SNAP-4001", "invalid snapshot name")
)

// ============================================================================
// Process Errors (PROC)
// ============================================================================

var (
	// ErrAlreadyRunning indicates the managed server is already running.
	ErrAlreadyRunning = NewDomainError("WS-PROC-4090", "server already running")

	// ErrStopFailed indicates the managed server could not be stopped.
	ErrStopFailed = NewDomainError("WS-PROC-5001", "failed to stop server")

	// ErrStartFailed indicates the managed server could not be started.
	ErrStartFailed = NewDomainError("WS-PROC-5002", "failed to start server")
)

// ============================================================================
// Filesystem Errors (FS)
// ============================================================================

var (
	// ErrCopyFailed indicates a directory copy failed.
	ErrCopyFailed = NewDomainError("WS-FS-5001", "copy failed")

	// ErrMoveFailed indicates a directory move failed.
	ErrMoveFailed = NewDomainError("WS-FS-5002", "move failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("WS-SYS-5000", "internal server error")

	// ErrBusy indicates the caller gave up waiting for another operation to finish.
	ErrBusy = NewDomainError("WS-SYS-5030", "another operation is in progress")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("WS-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("WS-SYS-4290", "too many requests")
)
