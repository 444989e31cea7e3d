package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("WS-TEST-1000", "test message"),
			expected: "[WS-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("WS-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[WS-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("WS-TEST-1000", "message 1")
	err2 := NewDomainError("WS-TEST-1000", "message 2")
	err3 := NewDomainError("WS-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("WS-TEST-1000", "wrapper").WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := NewDomainError("WS-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("WS-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}
	if withDetails.Code != original.Code || withDetails.Message != original.Message {
		t.Error("WithDetails should preserve code and message")
	}
}

func TestDomainError_Wrap_PreservesMessage(t *testing.T) {
	cause := fmt.Errorf("open /srv/world/level.dat: permission denied")
	err := ErrCopyFailed.Wrap(cause)

	if err.Details != cause.Error() {
		t.Errorf("Details = %q, want %q", err.Details, cause.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if !errors.Is(err, ErrCopyFailed) {
		t.Error("wrapped error should match its code")
	}
	if ErrCopyFailed.Cause != nil {
		t.Error("Wrap should not modify the sentinel")
	}
}

func TestDomainError_Wrap_Nil(t *testing.T) {
	if got := ErrMoveFailed.Wrap(nil); got != ErrMoveFailed {
		t.Errorf("Wrap(nil) = %v, want the receiver", got)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrSnapshotNotFound, "WS-SNAP-4040") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(ErrSnapshotNotFound, "WS-SNAP-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if IsDomainError(fmt.Errorf("regular error"), "") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrNameCollision)
	if !IsDomainError(wrapped, "WS-SNAP-4090") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrStopFailed, "WS-PROC-5001"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrStartFailed), "WS-PROC-5002"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrSnapshotNotFound, "WS-SNAP-4040"},
		{ErrSourceMissing, "WS-SNAP-4041"},
		{ErrNameCollision, "WS-SNAP-4090"},
		{ErrInvalidName, "WS-SNAP-4001"},
		{ErrAlreadyRunning, "WS-PROC-4090"},
		{ErrStopFailed, "WS-PROC-5001"},
		{ErrStartFailed, "WS-PROC-5002"},
		{ErrCopyFailed, "WS-FS-5001"},
		{ErrMoveFailed, "WS-FS-5002"},
		{ErrInternalServer, "WS-SYS-5000"},
		{ErrBusy, "WS-SYS-5030"},
		{ErrBadRequest, "WS-SYS-4000"},
		{ErrRateLimited, "WS-SYS-4290"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}
